package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/storage/models"
	"github.com/ai-recommender/backend/internal/storage/sqlite"
	"github.com/ai-recommender/backend/pkg/logger"
)

// AnalysisInvalidator drops cached AI analyses after the product set changes.
type AnalysisInvalidator interface {
	InvalidateAnalysisCache(ctx context.Context) error
}

type ProductHandler struct {
	store       *sqlite.Client
	invalidator AnalysisInvalidator
}

// NewProductHandler builds the handler. invalidator may be nil when no
// analysis cache is configured.
func NewProductHandler(store *sqlite.Client, invalidator AnalysisInvalidator) *ProductHandler {
	return &ProductHandler{store: store, invalidator: invalidator}
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.store.ListProducts()
	if err != nil {
		logger.Error("Failed to list products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list products",
		})
	}

	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if product.ID == "" || product.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id and name are required",
		})
	}

	if err := h.store.InsertProduct(&product); err != nil {
		logger.Error("Failed to insert product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store product",
		})
	}

	// Cached analyses describe the old product set; drop them best-effort.
	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAnalysisCache(c.Context()); err != nil {
			logger.Warn("Failed to invalidate analysis cache", zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}
