package entity

// Release is the normalized catalog shape. The upstream API returns posters,
// titles and seasons in several competing layouts; the anilibria client maps
// them into this struct once, at the edge, and nothing else ever sees the raw
// payload.
type Release struct {
	ID          int64    `json:"id"`
	Alias       string   `json:"alias"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Season      string   `json:"season,omitempty"`
	Year        int      `json:"year,omitempty"`
	AgeRating   string   `json:"age_rating,omitempty"`
	Status      string   `json:"status"`

	Episodes          []Episode `json:"episodes,omitempty"`
	ExternalPlayerURL string    `json:"external_player_url,omitempty"`
}

type Episode struct {
	ID       string  `json:"id"`
	Ordinal  float64 `json:"ordinal"`
	Name     string  `json:"name,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
}

// ScheduleDay groups releases airing on one weekday, 0 = Monday.
type ScheduleDay struct {
	Day  int       `json:"day"`
	List []Release `json:"list"`
}

const (
	StatusOngoing      = "ongoing"
	StatusInProduction = "in_production"
	StatusBlocked      = "blocked"
	StatusFinished     = "finished"
)
