package fee

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

type EstimateFeeRequest struct {
	Chain    string `form:"chain" binding:"required"`
	ChainRef string `form:"chain_ref" binding:"required"`
	Balance  string `form:"balance"`
}

type AllowanceRequest struct {
	Chain        string `form:"chain" binding:"required"`
	ChainRef     string `form:"chain_ref" binding:"required"`
	TokenAddress string `form:"token_address" binding:"required"`
	Owner        string `form:"owner" binding:"required"`
	Spender      string `form:"spender" binding:"required"`
	Amount       string `form:"amount" binding:"required,decimal_amount"`
}

type handler struct {
	controller controller.IController
	logger     *logger.Logger
}

func New(controller controller.IController, logger *logger.Logger) IHandler {
	view.RegisterValidators()
	return &handler{
		controller: controller,
		logger:     logger,
	}
}

// EstimateFee godoc
// @Summary Estimate transfer fee
// @Description Network fee for a transfer; with balance the maximum sendable amount is included
// @id estimateFee
// @Tags Fee
// @Produce json
// @Param chain query string true "ethereum or solana"
// @Param chain_ref query string true "Chain id or cluster"
// @Param balance query string false "Native balance as a decimal"
// @Success 200 {object} model.FeeEstimate
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /fees [get]
func (h *handler) EstimateFee(c *gin.Context) {
	var req EstimateFeeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	chain, err := model.ParseChain(req.Chain)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	estimate, err := h.controller.EstimateFee(c.Request.Context(), chain, req.ChainRef, req.Balance)
	if err != nil {
		h.logger.Error("[EstimateFee][controller.EstimateFee]", map[string]string{
			"chain": req.Chain,
			"error": err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't estimate fee"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](estimate, nil, nil, ""))
}

// CheckAllowance godoc
// @Summary Check token approval
// @Description needs_approval is true when the spender allowance is below amount
// @id checkAllowance
// @Tags Fee
// @Produce json
// @Param chain query string true "ethereum or solana"
// @Param chain_ref query string true "Chain id or cluster"
// @Param token_address query string true "Token contract or mint"
// @Param owner query string true "Token owner"
// @Param spender query string true "Spender"
// @Param amount query string true "Decimal amount"
// @Success 200 {object} controller.AllowanceResult
// @Failure 400 {object} view.ErrorResponse
// @Router /allowance [get]
func (h *handler) CheckAllowance(c *gin.Context) {
	var req AllowanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	chain, err := model.ParseChain(req.Chain)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}

	result, err := h.controller.CheckAllowance(c.Request.Context(), controller.AllowanceRequest{
		Chain:        chain,
		ChainRef:     req.ChainRef,
		TokenAddress: req.TokenAddress,
		Owner:        req.Owner,
		Spender:      req.Spender,
		Amount:       req.Amount,
	})
	if err != nil {
		h.logger.Error("[CheckAllowance][controller.CheckAllowance]", map[string]string{
			"chain": req.Chain,
			"error": err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't check allowance"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](result, nil, nil, ""))
}
