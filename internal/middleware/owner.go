package middleware

import (
	"net/http"

	"qrlinkr/internal/models"

	"github.com/gin-gonic/gin"
)

const ownerKey = "owner"

// OwnerIdentity attaches the fixed owner to every request. It stands in for
// an auth layer: replacing it is the only change needed for real identities.
func OwnerIdentity(owner models.Owner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OwnerRequired aborts requests that reached it without an owner.
func OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := OwnerFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func OwnerFromContext(c *gin.Context) (models.Owner, bool) {
	val, exists := c.Get(ownerKey)
	if !exists {
		return models.Owner{}, false
	}
	owner, ok := val.(models.Owner)
	if !ok || owner.ID == "" {
		return models.Owner{}, false
	}
	return owner, true
}
