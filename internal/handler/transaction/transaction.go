package transaction

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	"github.com/dwarvesf/walletpay-backend/internal/telemetry"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type transactionHandler struct {
	controller      controller.IController
	telemetry       telemetry.ITelemetry
	logger          *logger.Logger
	metricsRecorder *monitoring.BusinessMetricsRecorder
}

// NewTransactionHandler creates a new instance of TransactionHandler
func NewTransactionHandler(
	controller controller.IController,
	telemetry telemetry.ITelemetry,
	logger *logger.Logger,
	metricsRecorder *monitoring.BusinessMetricsRecorder,
) IHandler {
	view.RegisterValidators()
	return &transactionHandler{
		controller:      controller,
		telemetry:       telemetry,
		logger:          logger,
		metricsRecorder: metricsRecorder,
	}
}

func (req TransferRequest) toController() (controller.TransferRequest, error) {
	chain, err := model.ParseChain(req.Chain)
	if err != nil {
		return controller.TransferRequest{}, err
	}
	return controller.TransferRequest{
		Chain:        chain,
		ChainRef:     req.ChainRef,
		From:         req.From,
		To:           req.To,
		TokenAddress: req.TokenAddress,
		Amount:       req.Amount,
	}, nil
}

func (h *transactionHandler) record(operation, chain string, start time.Time, err error) {
	if h.metricsRecorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metricsRecorder.RecordTransferOperation(operation, chain, status, time.Since(start).Seconds())
}

func (h *transactionHandler) fail(c *gin.Context, tag string, err error, req any, message string) {
	h.logger.Error(tag, map[string]string{
		"error": err.Error(),
	})
	c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, req, message))
}

// Prepare godoc
// @Summary Prepare transfer
// @Description Validates the amount, balance and recipient and returns the unsigned transaction for the wallet to sign
// @id prepareTransfer
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer"
// @Success 200 {object} model.UnsignedTransfer
// @Failure 400 {object} view.ErrorResponse
// @Failure 422 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /transactions/prepare [post]
func (h *transactionHandler) Prepare(c *gin.Context) {
	start := time.Now()

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "[Prepare][ShouldBindJSON]", err, req, "invalid request")
		return
	}
	transfer, err := req.toController()
	if err != nil {
		h.fail(c, "[Prepare][ParseChain]", err, nil, "unsupported chain")
		return
	}

	unsigned, err := h.controller.PrepareTransfer(c.Request.Context(), transfer)
	h.record("prepare", req.Chain, start, err)
	if err != nil {
		h.fail(c, "[Prepare][PrepareTransfer]", err, nil, "can't prepare transfer")
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](unsigned, nil, nil, ""))
}

// Submit godoc
// @Summary Submit signed transaction
// @Description Broadcasts a wallet-signed transaction and records it as pending
// @id submitTransfer
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Signed transfer"
// @Success 200 {object} model.TransactionRecord
// @Failure 400 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /transactions/submit [post]
func (h *transactionHandler) Submit(c *gin.Context) {
	start := time.Now()

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "[Submit][ShouldBindJSON]", err, req, "invalid request")
		return
	}
	transfer, err := req.toController()
	if err != nil {
		h.fail(c, "[Submit][ParseChain]", err, nil, "unsupported chain")
		return
	}

	rec, err := h.controller.SubmitTransfer(c.Request.Context(), controller.SubmitTransferRequest{
		TransferRequest:   transfer,
		SignedTransaction: req.SignedTransaction,
	})
	h.record("submit", req.Chain, start, err)
	if err != nil {
		h.fail(c, "[Submit][SubmitTransfer]", err, nil, "can't submit transaction")
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](rec, nil, nil, "transaction submitted"))
}

// Record godoc
// @Summary Record broadcast transaction
// @Description Stores a transaction the wallet broadcast itself
// @id recordTransfer
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body RecordRequest true "Broadcast transfer"
// @Success 200 {object} model.TransactionRecord
// @Failure 400 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /transactions [post]
func (h *transactionHandler) Record(c *gin.Context) {
	start := time.Now()

	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "[Record][ShouldBindJSON]", err, req, "invalid request")
		return
	}
	transfer, err := req.toController()
	if err != nil {
		h.fail(c, "[Record][ParseChain]", err, nil, "unsupported chain")
		return
	}

	rec, err := h.controller.RecordTransfer(c.Request.Context(), controller.RecordTransferRequest{
		TransferRequest: transfer,
		TxHash:          req.TxHash,
		Timestamp:       req.Timestamp,
	})
	h.record("record", req.Chain, start, err)
	if err != nil {
		h.fail(c, "[Record][RecordTransfer]", err, nil, "can't record transaction")
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](rec, nil, nil, "transaction recorded"))
}

// GetTransactions godoc
// @Summary List transactions
// @id listTransactions
// @Tags Transaction
// @Produce json
// @Param chain query string false "ethereum or solana"
// @Param address query string false "Sender or recipient"
// @Param status query string false "pending, confirmed or failed"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} GetTransactionsResponse
// @Failure 400 {object} view.ErrorResponse
// @Router /transactions [get]
func (h *transactionHandler) GetTransactions(c *gin.Context) {
	var req GetTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	filter := model.TransactionFilter{
		Chain:   model.Chain(req.Chain),
		Address: req.Address,
		Status:  model.TransactionStatus(req.Status),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}

	records, total, err := h.controller.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		status := view.HTTPStatus(err)
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		h.logger.Error("[GetTransactions][ListTransactions]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(status, view.CreateResponse[any](nil, err, nil, "failed to fetch transactions"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](GetTransactionsResponse{
		Total:        total,
		Transactions: records,
	}, nil, nil, ""))
}

// GetTransaction godoc
// @Summary Get transaction
// @Description With refresh=true the status is re-checked on chain before returning
// @id getTransaction
// @Tags Transaction
// @Produce json
// @Param chain path string true "ethereum or solana"
// @Param tx_hash path string true "Transaction hash or signature"
// @Param refresh query bool false "Reconcile with the chain first"
// @Success 200 {object} model.TransactionRecord
// @Failure 404 {object} view.ErrorResponse
// @Router /transactions/{chain}/{tx_hash} [get]
func (h *transactionHandler) GetTransaction(c *gin.Context) {
	chain, err := model.ParseChain(c.Param("chain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "unsupported chain"))
		return
	}
	txHash := c.Param("tx_hash")

	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	var rec *model.TransactionRecord
	if refresh && h.telemetry != nil {
		rec, err = h.telemetry.ReconcileTransaction(c.Request.Context(), chain, txHash)
	} else {
		rec, err = h.controller.GetTransaction(c.Request.Context(), chain, txHash)
	}
	if err != nil {
		h.fail(c, "[GetTransaction]", err, nil, "transaction not found")
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](rec, nil, nil, ""))
}
