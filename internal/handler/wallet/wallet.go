package wallet

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

type ConnectRequest struct {
	Chain      string `json:"chain" binding:"required"`
	ChainRef   string `json:"chain_ref" binding:"required"`
	Address    string `json:"address" binding:"required"`
	WalletName string `json:"wallet_name"`
}

type AccountRequest struct {
	Address string `json:"address" binding:"required"`
}

type ChainRefRequest struct {
	ChainRef string `json:"chain_ref" binding:"required"`
}

type handler struct {
	manager         wallet.IManager
	logger          *logger.Logger
	metricsRecorder *monitoring.BusinessMetricsRecorder
}

func New(manager wallet.IManager, logger *logger.Logger, metricsRecorder *monitoring.BusinessMetricsRecorder) IHandler {
	view.RegisterValidators()
	return &handler{
		manager:         manager,
		logger:          logger,
		metricsRecorder: metricsRecorder,
	}
}

func (h *handler) record(operation string, start time.Time, err error) {
	if h.metricsRecorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metricsRecorder.RecordWalletOperation(operation, status, time.Since(start).Seconds())
}

func (h *handler) respond(c *gin.Context, tag string, state any, err error, message string) {
	if err != nil {
		h.logger.Error(tag, map[string]string{
			"session_id": c.Param("session_id"),
			"error":      err.Error(),
		})
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, message))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](state, nil, nil, ""))
}

// Connect godoc
// @Summary Connect wallet
// @Description Opens a wallet session for the connected account and loads its native balance
// @id connectWallet
// @Tags Wallet
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Connected wallet"
// @Success 200 {object} model.WalletState
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /wallets/connect [post]
func (h *handler) Connect(c *gin.Context) {
	start := time.Now()

	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[Connect][ShouldBindJSON]", map[string]string{
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

	state, err := h.manager.Connect(c.Request.Context(), wallet.ConnectRequest{
		Chain:      chain,
		ChainRef:   req.ChainRef,
		Address:    req.Address,
		WalletName: req.WalletName,
	})
	h.record("connect", start, err)
	h.respond(c, "[Connect][manager.Connect]", state, err, "can't connect wallet")
}

// Get godoc
// @Summary Get wallet session
// @id getWallet
// @Tags Wallet
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} model.WalletState
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id} [get]
func (h *handler) Get(c *gin.Context) {
	state, err := h.manager.Get(c.Param("session_id"))
	h.respond(c, "[Get][manager.Get]", state, err, "wallet session not found")
}

// Refresh godoc
// @Summary Refresh wallet balance
// @Description Re-reads the native balance; a persistent RPC failure yields balance "0" with refresh_error set
// @id refreshWallet
// @Tags Wallet
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} model.WalletState
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id}/refresh [post]
func (h *handler) Refresh(c *gin.Context) {
	start := time.Now()
	state, err := h.manager.RefreshBalance(c.Request.Context(), c.Param("session_id"))
	h.record("refresh_balance", start, err)
	h.respond(c, "[Refresh][manager.RefreshBalance]", state, err, "can't refresh balance")
}

// ChangeAccount godoc
// @Summary Change connected account
// @Description Reports an account switch inside the wallet and reloads the balance
// @id changeWalletAccount
// @Tags Wallet
// @Accept json
// @Produce json
// @Param session_id path string true "Session id"
// @Param request body AccountRequest true "New account"
// @Success 200 {object} model.WalletState
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id}/account [put]
func (h *handler) ChangeAccount(c *gin.Context) {
	start := time.Now()

	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	state, err := h.manager.ChangeAccount(c.Request.Context(), c.Param("session_id"), req.Address)
	h.record("change_account", start, err)
	h.respond(c, "[ChangeAccount][manager.ChangeAccount]", state, err, "can't change account")
}

// ChangeChainRef godoc
// @Summary Switch network
// @id changeWalletChainRef
// @Tags Wallet
// @Accept json
// @Produce json
// @Param session_id path string true "Session id"
// @Param request body ChainRefRequest true "Chain id or cluster"
// @Success 200 {object} model.WalletState
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id}/chain [put]
func (h *handler) ChangeChainRef(c *gin.Context) {
	start := time.Now()

	var req ChainRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	state, err := h.manager.ChangeChainRef(c.Request.Context(), c.Param("session_id"), req.ChainRef)
	h.record("change_chain_ref", start, err)
	h.respond(c, "[ChangeChainRef][manager.ChangeChainRef]", state, err, "can't switch network")
}

// Disconnect godoc
// @Summary Disconnect wallet
// @id disconnectWallet
// @Tags Wallet
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} model.WalletState
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id} [delete]
func (h *handler) Disconnect(c *gin.Context) {
	state, err := h.manager.Disconnect(c.Param("session_id"))
	h.record("disconnect", time.Now(), err)
	h.respond(c, "[Disconnect][manager.Disconnect]", state, err, "can't disconnect wallet")
}

// TokenBalances godoc
// @Summary List token balances
// @Description One entry per registered token for the session's network
// @id walletTokenBalances
// @Tags Wallet
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {array} model.TokenBalance
// @Failure 404 {object} view.ErrorResponse
// @Router /wallets/{session_id}/tokens [get]
func (h *handler) TokenBalances(c *gin.Context) {
	start := time.Now()
	balances, err := h.manager.TokenBalances(c.Request.Context(), c.Param("session_id"))
	h.record("token_balances", start, err)
	h.respond(c, "[TokenBalances][manager.TokenBalances]", balances, err, "can't load token balances")
}
