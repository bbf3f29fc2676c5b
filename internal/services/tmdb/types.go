package tmdb

// Movie is one movie search result.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
}

// TV is one series search result.
type TV struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

// Genre is a catalog genre tag.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full movie record.
type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Runtime     int     `json:"runtime,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Overview    string  `json:"overview,omitempty"`
}

// TVDetails is the full series record.
type TVDetails struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FirstAirDate    string  `json:"first_air_date,omitempty"`
	NumberOfSeasons int     `json:"number_of_seasons,omitempty"`
	Genres          []Genre `json:"genres,omitempty"`
	VoteAverage     float64 `json:"vote_average,omitempty"`
	Overview        string  `json:"overview,omitempty"`
}

type searchResponse[T any] struct {
	Results []T `json:"results"`
}
