package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/auth"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

const msgTokenFailed = "error generating token"

type AnonymousRequest struct {
	UUID string `json:"uuid" binding:"required,max=128"`
}

type AnonymousResponse struct {
	Token string `json:"token"`
}

type handler struct {
	issuer auth.ITokenIssuer
	logger *logger.Logger
}

// New accepts a nil issuer when the identity provider is not configured; every call then fails.
func New(issuer auth.ITokenIssuer, logger *logger.Logger) IHandler {
	return &handler{
		issuer: issuer,
		logger: logger,
	}
}

// AnonymousToken godoc
// @Summary Issue anonymous sign-in token
// @Description Mints an identity provider custom token for the client generated uuid
// @id anonymousToken
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body AnonymousRequest true "Client uuid"
// @Success 200 {object} AnonymousResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /auth-anon [post]
func (h *handler) AnonymousToken(c *gin.Context) {
	var req AnonymousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[AnonymousToken][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	if h.issuer == nil {
		h.logger.Error("[AnonymousToken] identity provider not configured")
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, nil, nil, msgTokenFailed))
		return
	}

	token, err := h.issuer.CustomToken(c.Request.Context(), req.UUID)
	if err != nil {
		h.logger.Error("[AnonymousToken][CustomToken]", map[string]string{
			"uuid":  req.UUID,
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, msgTokenFailed))
		return
	}

	c.JSON(http.StatusOK, AnonymousResponse{Token: token})
}
