package exports

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const exportKeyContextKey = "exportKeyID"

// APIKeyAuthMiddleware validates export API keys for the export endpoints.
func APIKeyAuthMiddleware(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext := c.GetHeader("X-Export-API-Key")
		if plaintext == "" {
			abortUnauthorized(c, "missing export API key")
			return
		}

		hash := HashKey(plaintext)
		key, err := repo.GetAPIKeyByHash(c.Request.Context(), hash)
		if err != nil {
			abortUnauthorized(c, "invalid export API key")
			return
		}

		c.Set(exportKeyContextKey, key.ID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
