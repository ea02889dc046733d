package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// keyring holds SHA-256 digests of the accepted API keys.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

func (kr keyring) contains(raw string) bool {
	sum := sha256.Sum256([]byte(raw))
	found := 0
	for i := range kr {
		found |= subtle.ConstantTimeCompare(sum[:], kr[i][:])
	}
	return found == 1
}

// AuthMiddleware validates the Bearer API key. With no keys configured every
// request passes.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(h.keys) == 0 {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ApiError{Message: "missing API key", Code: CodeUnauthorized})
			return
		}
		if !h.keys.contains(strings.TrimPrefix(header, "Bearer ")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ApiError{Message: "invalid API key", Code: CodeUnauthorized})
			return
		}
		c.Next()
	}
}
