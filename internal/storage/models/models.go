package models

import "time"

// Product is one row of the recommendation dataset. Only ID and Name are
// required; the remaining columns are optional in the source data.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// RecommendationRecord captures one served request for history and offline
// evaluation.
type RecommendationRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	NumRequested int       `json:"num_requested"`
	NumReturned  int       `json:"num_returned"`
	AIUsed       bool      `json:"ai_used"`
	Explanation  string    `json:"explanation,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
