package token

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

type ListTokensRequest struct {
	Chain    string `form:"chain" binding:"required"`
	ChainRef string `form:"chain_ref" binding:"required"`
}

type CustomTokenRequest struct {
	Chain    string `json:"chain" binding:"required"`
	ChainRef string `json:"chain_ref" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol" binding:"required,max=50"`
	Decimals *int   `json:"decimals" binding:"required,min=0,max=36"`
	LogoURI  string `json:"logo_uri"`
}

type handler struct {
	registry Registry
	logger   *logger.Logger
}

func New(registry Registry, logger *logger.Logger) IHandler {
	return &handler{
		registry: registry,
		logger:   logger,
	}
}

// ListChains godoc
// @Summary List supported networks
// @id listChains
// @Tags Token
// @Produce json
// @Success 200 {array} model.ChainInfo
// @Router /chains [get]
func (h *handler) ListChains(c *gin.Context) {
	c.JSON(http.StatusOK, view.CreateResponse[any](h.registry.Chains(), nil, nil, ""))
}

// GetChain godoc
// @Summary Get network
// @id getChain
// @Tags Token
// @Produce json
// @Param chain path string true "ethereum or solana"
// @Param chain_ref path string true "Chain id or cluster"
// @Success 200 {object} model.ChainInfo
// @Failure 400 {object} view.ErrorResponse
// @Router /chains/{chain}/{chain_ref} [get]
func (h *handler) GetChain(c *gin.Context) {
	chain, err := model.ParseChain(c.Param("chain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	info, err := h.registry.Chain(chain, c.Param("chain_ref"))
	if err != nil {
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "unsupported network"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](info, nil, nil, ""))
}

// ListTokens godoc
// @Summary List tokens
// @Description Built-in and custom tokens for a network
// @id listTokens
// @Tags Token
// @Produce json
// @Param chain query string true "ethereum or solana"
// @Param chain_ref query string true "Chain id or cluster"
// @Success 200 {array} model.Token
// @Failure 400 {object} view.ErrorResponse
// @Router /tokens [get]
func (h *handler) ListTokens(c *gin.Context) {
	var req ListTokensRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	chain, err := model.ParseChain(req.Chain)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	tokens, err := h.registry.Tokens(chain, req.ChainRef)
	if err != nil {
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't list tokens"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](tokens, nil, nil, ""))
}

// AddCustomToken godoc
// @Summary Add custom token
// @id addCustomToken
// @Tags Token
// @Accept json
// @Produce json
// @Param request body CustomTokenRequest true "Token metadata"
// @Success 200 {object} model.Token
// @Failure 400 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Router /tokens/custom [post]
func (h *handler) AddCustomToken(c *gin.Context) {
	var req CustomTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[AddCustomToken][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	chain, err := model.ParseChain(req.Chain)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	token, err := h.registry.AddCustomToken(c.Request.Context(), model.Token{
		Address:  req.Address,
		Name:     req.Name,
		Symbol:   req.Symbol,
		Decimals: *req.Decimals,
		Chain:    chain,
		ChainRef: req.ChainRef,
		LogoURI:  req.LogoURI,
	})
	if err != nil {
		h.logger.Error("[AddCustomToken][registry.AddCustomToken]", map[string]string{
			"chain":   req.Chain,
			"address": req.Address,
			"error":   err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't add token"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](token, nil, nil, "token added"))
}
