package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/model"
)

const (
	localUserID    = "user_id"
	localUserRole  = "user_role"
	localRequestID = "request_id"
)

// RequestID проставляет X-Request-ID, если клиент его не прислал
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Locals(localRequestID, id)
		return c.Next()
	}
}

// RequestLogger пишет access-лог каждого запроса
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		}
		if id, ok := c.Locals(localRequestID).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}

		logger.Info("Request handled", fields...)
		return err
	}
}

// Auth проверяет Bearer-токен и кладёт идентификатор
// и роль вызывающего в locals запроса
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = string(model.UserRoleStudent)
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRole, model.UserRole(role))
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("malformed Authorization header")
	}

	return parts[1], nil
}

func extractUserID(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"]
	if !ok {
		return 0, fmt.Errorf("missing user_id claim")
	}

	// JSON-числа приходят как float64
	id, ok := raw.(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("invalid user_id claim")
	}

	return int64(id), nil
}

// callerID идентификатор вызывающего из locals
func callerID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localUserID).(int64)
	return id
}
