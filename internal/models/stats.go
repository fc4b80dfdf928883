package models

// CbitCounts splits registrations by CBIT and other colleges.
type CbitCounts struct {
	Cbit    int `json:"cbit"`
	NonCbit int `json:"nonCbit"`
}

// AllStats aggregates every registration counter.
type AllStats struct {
	Total       int            `json:"total"`
	Cbit        int            `json:"cbit"`
	NonCbit     int            `json:"nonCbit"`
	EventCounts map[string]int `json:"eventCounts"`
}

// TrackResult is the outcome of one tracked registration.
type TrackResult struct {
	TotalCount int    `json:"totalCount"`
	EventCount int    `json:"eventCount"`
	Category   string `json:"category"`
	// CategoryCount is the new value of the CBIT or non-CBIT counter.
	CategoryCount int `json:"categoryCount"`
}
