package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/metrics"
	"github.com/ai-recommender/backend/internal/recommender"
	"github.com/ai-recommender/backend/internal/storage/models"
	"github.com/ai-recommender/backend/internal/storage/sqlite"
	"github.com/ai-recommender/backend/pkg/logger"
)

const defaultNumRecommendations = 5

type RecommendationHandler struct {
	engine *recommender.Engine
	store  *sqlite.Client
}

func NewRecommendationHandler(engine *recommender.Engine, store *sqlite.Client) *RecommendationHandler {
	return &RecommendationHandler{
		engine: engine,
		store:  store,
	}
}

func (h *RecommendationHandler) HandleRecommendations(c *fiber.Ctx) error {
	var req recommender.Request
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.NumRecommendations == 0 {
		req.NumRecommendations = defaultNumRecommendations
	}

	start := time.Now()
	response, err := h.engine.GetRecommendations(c.Context(), req)
	if err != nil {
		metrics.RecommendationTotal.WithLabelValues("error").Inc()
		logger.Error("Failed to generate recommendations",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate recommendations",
		})
	}

	metrics.RecommendationTotal.WithLabelValues("success").Inc()
	metrics.RecommendationDuration.WithLabelValues(fmt.Sprintf("%t", response.AIProcessingUsed)).
		Observe(time.Since(start).Seconds())
	for _, rec := range response.Recommendations {
		metrics.CombinedScore.Observe(rec.CombinedScore)
	}

	h.recordHistory(&req, response, time.Since(start))

	return c.JSON(response)
}

// recordHistory is best effort: a storage failure never fails the request.
func (h *RecommendationHandler) recordHistory(req *recommender.Request, resp *recommender.Response, latency time.Duration) {
	if h.store == nil {
		return
	}

	record := models.RecommendationRecord{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		NumRequested: req.NumRecommendations,
		NumReturned:  len(resp.Recommendations),
		AIUsed:       resp.AIProcessingUsed,
		Explanation:  resp.Explanation,
		LatencyMS:    latency.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if err := h.store.InsertRecommendationRecord(&record); err != nil {
		logger.Warn("Failed to record recommendation history",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
	}
}

func (h *RecommendationHandler) GetRecommendationHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	if h.store == nil {
		return c.JSON(fiber.Map{"history": []interface{}{}})
	}

	records, err := h.store.GetRecommendationHistory(userID, c.QueryInt("limit"))
	if err != nil {
		logger.Error("Failed to load recommendation history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load recommendation history",
		})
	}

	if records == nil {
		records = []models.RecommendationRecord{}
	}
	return c.JSON(fiber.Map{
		"user_id": userID,
		"history": records,
	})
}
