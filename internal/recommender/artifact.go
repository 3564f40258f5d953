package recommender

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/ai"
	"github.com/ai-recommender/backend/internal/storage/models"
	"github.com/ai-recommender/backend/pkg/logger"
)

// modelArtifact bundles everything a later process needs to serve without
// refitting: the vectorizer, the feature matrix and the product table.
type modelArtifact struct {
	Vectorizer *Vectorizer
	Features   [][]float64
	Products   []models.Product
	Analyses   []ai.AnalysisResult
}

// SaveModel writes the trained content model to path.
func (e *Engine) SaveModel(path string) error {
	if !e.trained || e.vectorizer == nil {
		return ErrNotInitialized
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer file.Close()

	artifact := modelArtifact{
		Vectorizer: e.vectorizer,
		Features:   e.features,
		Products:   e.products,
		Analyses:   e.analyses,
	}
	if err := gob.NewEncoder(file).Encode(&artifact); err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}

	logger.Info("Content model persisted", zap.String("path", path))
	return nil
}

// LoadModel restores a previously saved content model, skipping the AI
// enhancement and fitting steps.
func (e *Engine) LoadModel(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open model file: %w", err)
	}
	defer file.Close()

	var artifact modelArtifact
	if err := gob.NewDecoder(file).Decode(&artifact); err != nil {
		return fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if artifact.Vectorizer == nil || len(artifact.Products) == 0 {
		return fmt.Errorf("model artifact at %s is incomplete", path)
	}

	e.vectorizer = artifact.Vectorizer
	e.features = artifact.Features
	e.products = artifact.Products
	e.analyses = artifact.Analyses
	e.trained = true

	logger.Info("Content model loaded",
		zap.String("path", path),
		zap.Int("products", len(e.products)),
	)
	return nil
}
