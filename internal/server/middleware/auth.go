package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beacon-gw/beacon/internal/store"
	"github.com/beacon-gw/beacon/pkg/api"
)

// Auth checks for a valid Bearer token in the Authorization header. Static
// keys from config are matched directly; anything else is hash-checked
// against the key store. Repo may be nil when the store is disabled.
func Auth(repo store.Repository, staticKeys []string) gin.HandlerFunc {
	staticMap := make(map[string]bool, len(staticKeys))
	for _, k := range staticKeys {
		staticMap[k] = true
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}

		token := parts[1]
		if staticMap[token] {
			c.Next()
			return
		}

		if repo == nil {
			abortUnauthorized(c, "Invalid API Key")
			return
		}

		hash := sha256.Sum256([]byte(token))
		key, err := repo.APIKeys().GetByHash(c.Request.Context(), hex.EncodeToString(hash[:]))
		if err != nil {
			abortUnauthorized(c, "Invalid API Key")
			return
		}

		// async so the lookup path stays read-only
		go func() {
			_ = repo.APIKeys().UpdateUsage(context.Background(), key.ID)
		}()

		c.Next()
	}
}

// abortUnauthorized attaches a 401 for the error handler to render.
func abortUnauthorized(c *gin.Context, msg string) {
	_ = c.Error(api.UnauthorizedError(msg))
	c.Abort()
}
