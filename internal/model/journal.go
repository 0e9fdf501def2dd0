package model

import "time"

// Journal is one journal entity, created lazily from observed article
// journal names. ImpactFactor stays nil until an OpenAlex refresh finds
// a positive two-year mean citedness; it is never overwritten by a
// fresher-but-absent result.
type Journal struct {
	ID           int64      `json:"id,omitempty"`
	Name         string     `json:"name"`
	ISSN         string     `json:"issn"`
	ImpactFactor *float64   `json:"impact_factor,omitempty"`
	OpenAlexID   string     `json:"openalex_id,omitempty"`
	IFUpdatedAt  *time.Time `json:"if_updated_at,omitempty"`
}

// FetchRun records provenance for one fetch pipeline run.
type FetchRun struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	WindowDays int       `json:"window_days"`
	Found      int       `json:"found"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
