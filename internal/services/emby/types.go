package emby

// Item is a library entry as returned by the Items API.
type Item struct {
	ID                 string            `json:"Id"`
	ServerID           string            `json:"ServerId,omitempty"`
	Name               string            `json:"Name"`
	Type               string            `json:"Type"` // "Movie" or "Series"
	ProductionYear     int               `json:"ProductionYear,omitempty"`
	ProviderIDs        map[string]string `json:"ProviderIds,omitempty"`
	Path               string            `json:"Path,omitempty"`
	IndexNumber        int               `json:"IndexNumber,omitempty"`
	ChildCount         int               `json:"ChildCount,omitempty"`
	RecursiveItemCount int               `json:"RecursiveItemCount,omitempty"`

	// Seasons is populated by series enrichment, not by the Items API.
	Seasons []Season `json:"Seasons,omitempty"`
}

// Season is a child season record of a series item. IndexNumber is a pointer
// because some servers omit it entirely; enrichment then falls back to a
// number parsed from the season name.
type Season struct {
	ID                 string `json:"Id"`
	Name               string `json:"Name"`
	IndexNumber        *int   `json:"IndexNumber,omitempty"`
	ChildCount         int    `json:"ChildCount,omitempty"`
	RecursiveItemCount int    `json:"RecursiveItemCount,omitempty"`
}

// episode carries the one field needed to redistribute counts onto seasons.
type episode struct {
	ParentIndexNumber int `json:"ParentIndexNumber"`
}

type itemsResponse[T any] struct {
	Items []T `json:"Items"`
}

// itemFields is the field list requested on every Items call.
const itemFields = "ProviderIds,MediaSources,MediaStreams,ProductionYear,ChildCount,RecursiveItemCount,Path,IndexNumber"
