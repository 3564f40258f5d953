package recommender

import (
	"github.com/ai-recommender/backend/internal/ai"
)

// CandidateProduct carries a product through the scoring pipeline. Scores
// start at zero and are filled in by successive stages; the combined score
// is the weighted fusion of similarity and AI relevance.
type CandidateProduct struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	Category         string             `json:"category,omitempty"`
	Price            float64            `json:"price,omitempty"`
	Rating           float64            `json:"rating,omitempty"`
	AIAnalysis       *ai.AnalysisResult `json:"ai_analysis,omitempty"`
	SimilarityScore  float64            `json:"similarity_score"`
	AIRelevanceScore float64            `json:"ai_relevance_score"`
	CombinedScore    float64            `json:"combined_score"`
}

// Request is caller-owned and read-only to the engine. Zero or negative
// counts are rejected at the HTTP boundary before reaching the engine.
type Request struct {
	UserID             string         `json:"user_id"`
	NumRecommendations int            `json:"num_recommendations"`
	UserPreferences    string         `json:"user_preferences,omitempty"`
	Context            string         `json:"context,omitempty"`
	AIEnabled          bool           `json:"ai_processing_enabled"`
	CustomPrompt       string         `json:"custom_prompt,omitempty"`
	Filters            map[string]any `json:"filters,omitempty"`
}

// Response echoes the user and returns at most NumRecommendations products.
// AIProcessingUsed reports whether the AI path actually ran, not merely
// whether the request asked for it.
type Response struct {
	UserID           string             `json:"user_id"`
	Recommendations  []CandidateProduct `json:"recommendations"`
	ProcessingTime   float64            `json:"processing_time"`
	AIProcessingUsed bool               `json:"ai_processing_used"`
	Explanation      string             `json:"explanation,omitempty"`
}
