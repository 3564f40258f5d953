package sqlite

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/storage/models"
	"github.com/ai-recommender/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT,
		price REAL,
		rating REAL
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS recommendation_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		num_requested INTEGER NOT NULL,
		num_returned INTEGER NOT NULL,
		ai_used INTEGER DEFAULT 0,
		explanation TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON recommendation_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_history_created ON recommendation_history(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

func (c *Client) InsertProduct(p *models.Product) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO products (id, name, description, category, price, rating)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// ListProducts returns the full product table in insertion order. The table
// order matters: candidate ranking breaks ties by it.
func (c *Client) ListProducts() ([]models.Product, error) {
	rows, err := c.db.Query(
		`SELECT id, name, COALESCE(description, ''), COALESCE(category, ''),
		        COALESCE(price, 0), COALESCE(rating, 0)
		 FROM products ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

func (c *Client) CountProducts() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// ImportCSV seeds the products table from a dataset file with a header row
// of id,name,description,category,price,rating. Only id and name are
// required columns.
func (c *Client) ImportCSV(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	if _, ok := columns["id"]; !ok {
		return 0, fmt.Errorf("dataset is missing required column %q", "id")
	}
	if _, ok := columns["name"]; !ok {
		return 0, fmt.Errorf("dataset is missing required column %q", "name")
	}

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read dataset row: %w", err)
		}

		product := models.Product{
			ID:          field(record, columns, "id"),
			Name:        field(record, columns, "name"),
			Description: field(record, columns, "description"),
			Category:    field(record, columns, "category"),
			Price:       floatField(record, columns, "price"),
			Rating:      floatField(record, columns, "rating"),
		}
		if product.ID == "" || product.Name == "" {
			continue
		}
		if err := c.InsertProduct(&product); err != nil {
			return imported, err
		}
		imported++
	}

	logger.Info("Product dataset imported",
		zap.String("path", path),
		zap.Int("products", imported),
	)
	return imported, nil
}

func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func floatField(record []string, columns map[string]int, name string) float64 {
	value, err := strconv.ParseFloat(field(record, columns, name), 64)
	if err != nil {
		return 0
	}
	return value
}

func (c *Client) InsertRecommendationRecord(r *models.RecommendationRecord) error {
	aiUsed := 0
	if r.AIUsed {
		aiUsed = 1
	}
	_, err := c.db.Exec(
		`INSERT INTO recommendation_history
		 (id, user_id, num_requested, num_returned, ai_used, explanation, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.NumRequested, r.NumReturned, aiUsed, r.Explanation, r.LatencyMS, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation record: %w", err)
	}
	return nil
}

func (c *Client) GetRecommendationHistory(userID string, limit int) ([]models.RecommendationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(
		`SELECT id, user_id, num_requested, num_returned, ai_used,
		        COALESCE(explanation, ''), latency_ms, created_at
		 FROM recommendation_history WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation history: %w", err)
	}
	defer rows.Close()

	var records []models.RecommendationRecord
	for rows.Next() {
		var r models.RecommendationRecord
		var aiUsed int
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.NumRequested, &r.NumReturned, &aiUsed, &r.Explanation, &r.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation record: %w", err)
		}
		r.AIUsed = aiUsed != 0
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendation history: %w", err)
	}

	return records, nil
}
