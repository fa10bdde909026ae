package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

const HeaderAdminKey = "X-Admin-Key"

var (
	errAdminDisabled = errors.New("admin api is not configured")
	errInvalidKey    = errors.New("invalid admin key")
)

// RequireAdminKey rejects requests whose X-Admin-Key does not match apiKey. An empty apiKey
// disables every admin route.
func RequireAdminKey(apiKey string, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, view.CreateResponse[any](nil, errAdminDisabled, nil, "forbidden"))
			return
		}

		got := c.GetHeader(HeaderAdminKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			logger.Warn("[RequireAdminKey] rejected", map[string]string{
				"path":      c.FullPath(),
				"client_ip": c.ClientIP(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, view.CreateResponse[any](nil, errInvalidKey, nil, "unauthorized"))
			return
		}
		c.Next()
	}
}
