package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/ai"
	"github.com/ai-recommender/backend/internal/metrics"
	"github.com/ai-recommender/backend/internal/storage/models"
	"github.com/ai-recommender/backend/pkg/logger"
	"github.com/ai-recommender/backend/pkg/utils"
)

var (
	ErrNotInitialized = errors.New("recommendation engine is not initialized")
	ErrNoProducts     = errors.New("product dataset is empty")
)

const (
	productAnalysisPrompt = "You are an expert product analyst. Analyze the given " +
		"product information and provide insights about customer appeal, key " +
		"features, and target audience. Return your analysis as a JSON object " +
		"with fields: 'appeal_score' (0-1), 'key_features' (list), " +
		"'target_audience' (string), 'enhanced_description' (string)."

	productAnalysisTemplate = "Analyze this product for recommendation purposes: {data}"

	userProfilePrompt = "You are a user profiling expert. Based on the given user " +
		"preferences and context, create a detailed user profile for product " +
		"recommendations. Include interests, style preferences, budget " +
		"considerations, and shopping behavior patterns."

	// Candidates are over-fetched by 3x so AI re-ranking has headroom to
	// reorder before truncation.
	candidateMultiplier = 3

	explanationTopN = 3
)

// Config controls the engine. SimilarityWeight and AIWeight fuse the two
// score sources; they typically sum to 1 but are not required to.
type Config struct {
	AIEnabled        bool
	BatchSize        int
	SimilarityWeight float64
	AIWeight         float64
	ModelPath        string
	MaxFeatures      int
}

// AnalysisCache stores raw AI analysis text keyed by prompt hash. A nil
// cache disables caching.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (string, bool, error)
	SetAnalysis(ctx context.Context, key, value string) error
}

// Engine owns the content-similarity model and composes candidate retrieval,
// optional AI re-scoring and explanation generation. The fitted vectorizer,
// feature matrix and product table are read-only after training and are
// shared across concurrent requests without locking.
type Engine struct {
	cfg    Config
	client ai.Client
	cache  AnalysisCache

	vectorizer *Vectorizer
	features   [][]float64
	products   []models.Product
	analyses   []ai.AnalysisResult

	trained   bool
	closeOnce sync.Once
}

func NewEngine(cfg Config, client ai.Client, cache AnalysisCache) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.SimilarityWeight == 0 && cfg.AIWeight == 0 {
		cfg.SimilarityWeight = 0.6
		cfg.AIWeight = 0.4
	}
	return &Engine{
		cfg:    cfg,
		client: client,
		cache:  cache,
	}
}

// Initialize enhances the product table with AI analysis when enabled and
// trains the content model. AI enhancement is best effort: a failing
// sub-batch is replaced with placeholder results and initialization
// proceeds.
func (e *Engine) Initialize(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return ErrNoProducts
	}

	e.products = make([]models.Product, len(products))
	copy(e.products, products)

	if e.aiConfigured() {
		e.enhanceProducts(ctx)
	}

	e.trainContentModel()
	e.trained = true

	if e.cfg.ModelPath != "" {
		if err := e.SaveModel(e.cfg.ModelPath); err != nil {
			logger.Warn("Failed to persist content model", zap.Error(err))
		}
	}

	logger.Info("Recommendation engine initialized",
		zap.Int("products", len(e.products)),
		zap.Bool("ai_enhanced", len(e.analyses) > 0),
	)
	return nil
}

func (e *Engine) aiConfigured() bool {
	return e.cfg.AIEnabled && e.client != nil
}

func (e *Engine) enhanceProducts(ctx context.Context) {
	texts := make([]string, len(e.products))
	for i, p := range e.products {
		var b strings.Builder
		fmt.Fprintf(&b, "Product: %s", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, " Description: %s", p.Description)
		}
		if p.Category != "" {
			fmt.Fprintf(&b, " Category: %s", p.Category)
		}
		texts[i] = b.String()
	}

	e.analyses = make([]ai.AnalysisResult, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		results, err := e.client.ProcessBatch(ctx, texts[start:end], productAnalysisPrompt, productAnalysisTemplate)
		if err != nil {
			logger.Warn("AI enhancement failed for batch, substituting placeholders",
				zap.Int("batch_start", start),
				zap.Error(err),
			)
			for range texts[start:end] {
				e.analyses = append(e.analyses, ai.PlaceholderResult())
			}
			continue
		}
		e.analyses = append(e.analyses, results...)
	}
}

// productAnalysis is the structured verdict requested from the AI during
// enhancement.
type productAnalysis struct {
	AppealScore         float64  `json:"appeal_score"`
	KeyFeatures         []string `json:"key_features"`
	TargetAudience      string   `json:"target_audience"`
	EnhancedDescription string   `json:"enhanced_description"`
}

func (e *Engine) trainContentModel() {
	featureTexts := make([]string, len(e.products))
	for i, p := range e.products {
		parts := make([]string, 0, 4)
		if p.Name != "" {
			parts = append(parts, p.Name)
		}
		if p.Description != "" {
			parts = append(parts, p.Description)
		}
		if p.Category != "" {
			parts = append(parts, p.Category)
		}

		// Malformed AI JSON just means the product falls back to its base
		// fields.
		if i < len(e.analyses) && e.analyses[i].ProcessedData != "" {
			var analysis productAnalysis
			if err := json.Unmarshal([]byte(e.analyses[i].ProcessedData), &analysis); err == nil {
				if analysis.EnhancedDescription != "" {
					parts = append(parts, analysis.EnhancedDescription)
				}
				parts = append(parts, analysis.KeyFeatures...)
			}
		}

		featureTexts[i] = strings.Join(parts, " ")
	}

	e.vectorizer = NewVectorizer(e.cfg.MaxFeatures)
	e.features = e.vectorizer.Fit(featureTexts)
}

// GetRecommendations serves one request. Expected AI failures degrade the
// corresponding feature; only structural failures (untrained model) return
// an error.
func (e *Engine) GetRecommendations(ctx context.Context, req Request) (*Response, error) {
	if !e.trained {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	aiActive := e.aiConfigured() && req.AIEnabled

	profile := ""
	if aiActive {
		profile = e.generateUserProfile(ctx, req)
	}

	candidates := e.contentCandidates(req, profile)

	if aiActive {
		e.scoreWithAI(ctx, candidates, req, profile)
	}

	explanation := ""
	if aiActive {
		explanation = e.generateExplanation(ctx, candidates, req)
	}

	if len(candidates) > req.NumRecommendations {
		candidates = candidates[:req.NumRecommendations]
	}

	return &Response{
		UserID:           req.UserID,
		Recommendations:  candidates,
		ProcessingTime:   time.Since(start).Seconds(),
		AIProcessingUsed: aiActive,
		Explanation:      explanation,
	}, nil
}

func (e *Engine) generateUserProfile(ctx context.Context, req Request) string {
	if req.UserPreferences == "" && req.Context == "" {
		return ""
	}

	profileData := fmt.Sprintf("User preferences: %s Context: %s",
		orNone(req.UserPreferences), orNone(req.Context))

	result, err := e.process(ctx, "profile", profileData, userProfilePrompt)
	if err != nil {
		logger.Warn("Failed to generate user profile", zap.Error(err))
		return ""
	}
	return result
}

func (e *Engine) contentCandidates(req Request, profile string) []CandidateProduct {
	limit := req.NumRecommendations * candidateMultiplier
	if limit > len(e.products) {
		limit = len(e.products)
	}

	queryParts := make([]string, 0, 3)
	if req.UserPreferences != "" {
		queryParts = append(queryParts, req.UserPreferences)
	}
	if req.Context != "" {
		queryParts = append(queryParts, req.Context)
	}
	if profile != "" {
		queryParts = append(queryParts, profile)
	}

	var indices []int
	var sims []float64

	if len(queryParts) == 0 {
		// No query signal at all: random sample. The package-level source is
		// locked, so concurrent requests can share it.
		indices = rand.Perm(len(e.products))[:limit]
		sims = make([]float64, len(e.products))
	} else {
		queryVector := e.vectorizer.Transform(strings.Join(queryParts, " "))

		sims = make([]float64, len(e.products))
		for i, features := range e.features {
			sims[i] = cosineSimilarity(queryVector, features)
		}

		indices = make([]int, len(e.products))
		for i := range indices {
			indices[i] = i
		}
		// Ties keep original table order.
		sort.SliceStable(indices, func(a, b int) bool {
			return sims[indices[a]] > sims[indices[b]]
		})
		indices = indices[:limit]
	}

	candidates := make([]CandidateProduct, 0, len(indices))
	for _, idx := range indices {
		p := e.products[idx]
		candidate := CandidateProduct{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			Category:        p.Category,
			Price:           p.Price,
			Rating:          p.Rating,
			SimilarityScore: sims[idx],
		}
		if idx < len(e.analyses) && e.analyses[idx].ProcessedData != "" {
			analysis := e.analyses[idx]
			candidate.AIAnalysis = &analysis
		}
		candidate.CombinedScore = e.cfg.SimilarityWeight * candidate.SimilarityScore
		candidates = append(candidates, candidate)
	}

	return applyFilters(candidates, req.Filters)
}

// applyFilters narrows candidates by the request's optional filter payload.
// Unknown filter keys are ignored.
func applyFilters(candidates []CandidateProduct, filters map[string]any) []CandidateProduct {
	if len(filters) == 0 {
		return candidates
	}

	filtered := make([]CandidateProduct, 0, len(candidates))
	for _, c := range candidates {
		if category, ok := filters["category"].(string); ok && category != "" &&
			!strings.EqualFold(c.Category, category) {
			continue
		}
		if maxPrice, ok := filters["max_price"].(float64); ok && c.Price > maxPrice {
			continue
		}
		if minRating, ok := filters["min_rating"].(float64); ok && c.Rating < minRating {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// scoreWithAI asks for one JSON array of per-candidate scores and fuses them
// into the combined score. Anything other than a bare array of exactly
// matching length is treated as a decode failure and leaves the scores
// untouched.
func (e *Engine) scoreWithAI(ctx context.Context, candidates []CandidateProduct, req Request, profile string) {
	if len(candidates) == 0 {
		return
	}

	scoringPrompt := req.CustomPrompt
	if scoringPrompt == "" {
		scoringPrompt = fmt.Sprintf(
			"User ID: %s\nUser Preferences: %s\nContext: %s\nUser Profile: %s\n\n"+
				"Rate how relevant each product is for this user on a scale of 0.0 "+
				"to 1.0. Consider user preferences, context, and the product "+
				"characteristics. Return only a JSON array of scores.",
			req.UserID, orNone(req.UserPreferences), orNone(req.Context), orNone(profile))
	}

	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%d. %s - %s (Category: %s)",
			i+1, c.Name, orText(c.Description, "No description"), orText(c.Category, "Unknown"))
	}

	result, err := e.process(ctx, "scoring", strings.Join(lines, "\n"), scoringPrompt)
	if err != nil {
		logger.Warn("Failed to score recommendations with AI", zap.Error(err))
	} else {
		var scores []float64
		if err := json.Unmarshal([]byte(result), &scores); err != nil || len(scores) != len(candidates) {
			logger.Warn("Unusable AI score payload, keeping content scores",
				zap.Int("candidates", len(candidates)),
				zap.Int("scores", len(scores)),
			)
		} else {
			for i := range candidates {
				candidates[i].AIRelevanceScore = scores[i]
				candidates[i].CombinedScore = e.cfg.SimilarityWeight*candidates[i].SimilarityScore +
					e.cfg.AIWeight*candidates[i].AIRelevanceScore
			}
		}
	}

	// Stable: ties preserve the prior relative order.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].CombinedScore > candidates[b].CombinedScore
	})
}

func (e *Engine) generateExplanation(ctx context.Context, candidates []CandidateProduct, req Request) string {
	top := candidates
	if len(top) > explanationTopN {
		top = top[:explanationTopN]
	}
	if len(top) == 0 {
		return ""
	}

	lines := make([]string, len(top))
	for i, c := range top {
		lines[i] = fmt.Sprintf("- %s: %s", c.Name, orText(c.Description, "No description"))
	}

	prompt := fmt.Sprintf(
		"Explain why these products were recommended for user %s based on "+
			"their preferences: %s and context: %s. Keep it concise and helpful.",
		req.UserID,
		orText(req.UserPreferences, "general interests"),
		orText(req.Context, "general shopping"))

	result, err := e.process(ctx, "explanation", strings.Join(lines, "\n"), prompt)
	if err != nil {
		logger.Warn("Failed to generate explanation", zap.Error(err))
		return ""
	}
	return result
}

// process issues one AI call through the optional analysis cache and records
// token usage.
func (e *Engine) process(ctx context.Context, operation, data, systemPrompt string) (string, error) {
	key := ""
	if e.cache != nil {
		key = utils.HashString(systemPrompt + "|" + data)
		if cached, ok, err := e.cache.GetAnalysis(ctx, key); err == nil && ok {
			metrics.AICacheHits.WithLabelValues(operation).Inc()
			return cached, nil
		}
		metrics.AICacheMisses.WithLabelValues(operation).Inc()
	}

	result, err := e.client.Process(ctx, data, systemPrompt, "")
	if err != nil {
		metrics.AIRequestTotal.WithLabelValues(operation, "error").Inc()
		return "", err
	}
	metrics.AIRequestTotal.WithLabelValues(operation, "success").Inc()
	metrics.AITokensUsed.WithLabelValues(operation).Add(float64(result.TokensUsed))

	if e.cache != nil {
		if err := e.cache.SetAnalysis(ctx, key, result.ProcessedData); err != nil {
			logger.Debug("Failed to cache AI analysis", zap.Error(err))
		}
	}
	return result.ProcessedData, nil
}

// Close releases the AI client's connection resources. Safe to call more
// than once and when no client exists.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.client != nil {
			err = e.client.Close()
		}
	})
	return err
}

func orNone(s string) string {
	return orText(s, "None")
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
