package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

const defaultUpdatedBy = "admin-api"

type OverrideRequest struct {
	Address   string `json:"address"`
	Enabled   *bool  `json:"enabled" binding:"required"`
	UpdatedBy string `json:"updated_by" binding:"max=255"`
}

type handler struct {
	controller controller.IController
	logger     *logger.Logger
}

func New(controller controller.IController, logger *logger.Logger) IHandler {
	return &handler{
		controller: controller,
		logger:     logger,
	}
}

// ListOverrides godoc
// @Summary List recipient overrides
// @id listWalletOverrides
// @Tags Admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {array} model.WalletOverride
// @Failure 401 {object} view.ErrorResponse
// @Router /admin/wallets/override [get]
func (h *handler) ListOverrides(c *gin.Context) {
	overrides, err := h.controller.ListOverrides(c.Request.Context())
	if err != nil {
		h.logger.Error("[ListOverrides][controller.ListOverrides]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't list overrides"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](overrides, nil, nil, ""))
}

// GetOverride godoc
// @Summary Get recipient override
// @id getWalletOverride
// @Tags Admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param chain path string true "ethereum or solana"
// @Success 200 {object} model.WalletOverride
// @Failure 400 {object} view.ErrorResponse
// @Failure 401 {object} view.ErrorResponse
// @Router /admin/wallets/override/{chain} [get]
func (h *handler) GetOverride(c *gin.Context) {
	chain, err := model.ParseChain(c.Param("chain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	override, err := h.controller.GetOverride(c.Request.Context(), chain)
	if err != nil {
		h.logger.Error("[GetOverride][controller.GetOverride]", map[string]string{
			"chain": string(chain),
			"error": err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't get override"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](override, nil, nil, ""))
}

// SetOverride godoc
// @Summary Set recipient override
// @Description When enabled every prepared transfer on the chain is sent to address instead of the requested recipient
// @id setWalletOverride
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param chain path string true "ethereum or solana"
// @Param request body OverrideRequest true "Override"
// @Success 200 {object} model.WalletOverride
// @Failure 400 {object} view.ErrorResponse
// @Failure 401 {object} view.ErrorResponse
// @Router /admin/wallets/override/{chain} [put]
func (h *handler) SetOverride(c *gin.Context) {
	chain, err := model.ParseChain(c.Param("chain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = defaultUpdatedBy
	}

	override, err := h.controller.SetOverride(c.Request.Context(), controller.OverrideRequest{
		Chain:     chain,
		Address:   req.Address,
		Enabled:   *req.Enabled,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		h.logger.Error("[SetOverride][controller.SetOverride]", map[string]string{
			"chain": string(chain),
			"error": err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't set override"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](override, nil, nil, "override saved"))
}
