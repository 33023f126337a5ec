package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// UserKey is the gin context key holding the verified user ID.
const UserKey = "user"

// Claims are the identity-provider token claims the API understands.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// UserSyncer mirrors a verified identity into the users table.
type UserSyncer interface {
	EnsureUser(ctx context.Context, u *models.User) error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	// EventSource cannot set headers, so streams may pass the token in the query.
	return c.Query("token")
}

// Auth verifies an HS256 bearer token, syncs the caller into the users table
// and stores the subject under UserKey. Requests without a valid token get
// 401 before any handler runs.
func Auth(secret string, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server misconfiguration"})
			return
		}
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			logger.Debug(ctx, "JWT parse failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if users != nil {
			now := time.Now().UTC()
			err := users.EnsureUser(ctx, &models.User{
				ID:        claims.Subject,
				Email:     optional(claims.Email),
				Name:      optional(claims.Name),
				AvatarURL: optional(claims.Picture),
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				logger.Error(ctx, "User sync failed", "error", err, "user_id", claims.Subject)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync user"})
				return
			}
		}

		c.Set(UserKey, claims.Subject)
		c.Request = c.Request.WithContext(logger.With(ctx, "user_id", claims.Subject))
		c.Next()
	}
}

// UserID returns the verified caller, or "" when Auth did not run.
func UserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

// SignToken issues an HS256 token for the given identity.
func SignToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
