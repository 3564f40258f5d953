package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(union|select|insert|update|delete|drop|create|alter|exec|script|javascript|onerror|onload)`)
	xssPattern          = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
)

type Config struct {
	MaxUserIDLength     int
	MaxRecommendations  int
	MaxTextLength       int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware validates recommendation requests at the HTTP boundary so the
// engine only ever sees well-formed input.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUserIDLength == 0 {
		cfg.MaxUserIDLength = 100
	}
	if cfg.MaxRecommendations == 0 {
		cfg.MaxRecommendations = 20
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		if strings.Contains(c.Path(), "/api/v1/recommendations") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			userID, ok := req["user_id"].(string)
			if !ok || strings.TrimSpace(userID) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "user_id is required and must be a string",
				})
			}
			if len(userID) > cfg.MaxUserIDLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "user_id exceeds maximum length",
				})
			}

			if raw, present := req["num_recommendations"]; present {
				num, ok := raw.(float64)
				if !ok || num != float64(int(num)) {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "num_recommendations must be an integer",
					})
				}
				if int(num) < 1 || int(num) > cfg.MaxRecommendations {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "num_recommendations must be between 1 and 20",
					})
				}
			}

			for _, field := range []string{"user_preferences", "context", "custom_prompt"} {
				text, ok := req[field].(string)
				if !ok {
					continue
				}
				if len(text) > cfg.MaxTextLength {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": field + " exceeds maximum length",
					})
				}
				if containsSQLInjection(text) || containsXSS(text) {
					cfg.Logger.Warn("Rejected suspicious request content",
						zap.String("ip", c.IP()),
						zap.String("field", field),
					)
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "Invalid request content",
					})
				}
				req[field] = sanitizeString(text)
			}

			c.Locals("sanitized_body", req)
		}

		return c.Next()
	}
}

func containsSQLInjection(input string) bool {
	return sqlInjectionPattern.MatchString(input)
}

func containsXSS(input string) bool {
	return xssPattern.MatchString(input)
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
