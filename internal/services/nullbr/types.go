package nullbr

import "encoding/json"

// Item115 is one 115 network share listing.
type Item115 struct {
	Title      string   `json:"title"`
	Size       string   `json:"size"`
	ShareLink  string   `json:"share_link"`
	Resolution string   `json:"resolution,omitempty"`
	Quality    string   `json:"quality,omitempty"`
	SeasonList []string `json:"season_list,omitempty"`
}

// MagnetItem is one magnet link listing. Quality arrives as either a string
// or an array of strings depending on the indexer.
type MagnetItem struct {
	Name       string      `json:"name"`
	Size       string      `json:"size"`
	Magnet     string      `json:"magnet"`
	Resolution string      `json:"resolution,omitempty"`
	Source     string      `json:"source,omitempty"`
	Quality    QualityList `json:"quality,omitempty"`
	ZhSub      int         `json:"zh_sub,omitempty"`
}

// QualityList accepts both "1080p" and ["1080p","HDR"] payloads.
type QualityList []string

func (q *QualityList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*q = nil
		} else {
			*q = QualityList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*q = QualityList(many)
	return nil
}

// Resources aggregates everything the index knows about one title.
type Resources struct {
	Items115 []Item115    `json:"items_115"`
	Magnets  []MagnetItem `json:"magnets"`
	HasData  bool         `json:"has_data"`
}

type response115 struct {
	Items []Item115 `json:"115"`
}

type magnetResponse struct {
	Magnet []MagnetItem `json:"magnet"`
}
