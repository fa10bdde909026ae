package price

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
	"github.com/dwarvesf/walletpay-backend/internal/oracle"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/view"
)

type ConvertRequest struct {
	Symbol string `form:"symbol" binding:"required"`
	Amount string `form:"amount" binding:"required,decimal_amount"`
}

type ConvertResponse struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
	USD    string `json:"usd"`
}

type handler struct {
	oracle          oracle.IOracle
	logger          *logger.Logger
	metricsRecorder *monitoring.BusinessMetricsRecorder
}

func New(oracle oracle.IOracle, logger *logger.Logger, metricsRecorder *monitoring.BusinessMetricsRecorder) IHandler {
	view.RegisterValidators()
	return &handler{
		oracle:          oracle,
		logger:          logger,
		metricsRecorder: metricsRecorder,
	}
}

// ListPrices godoc
// @Summary List token prices
// @Description Top market tokens in USD, one per blockchain, served from a 5 minute cache
// @id listPrices
// @Tags Price
// @Produce json
// @Success 200 {array} model.TokenPrice
// @Failure 500 {object} view.ErrorResponse
// @Router /prices [get]
func (h *handler) ListPrices(c *gin.Context) {
	start := time.Now()

	prices, err := h.oracle.GetPrices(c.Request.Context())
	duration := time.Since(start).Seconds()

	if err != nil {
		h.logger.Error("[ListPrices][GetPrices]", map[string]string{
			"error": err.Error(),
		})
		if h.metricsRecorder != nil {
			h.metricsRecorder.RecordOracleOperation("prices", "error", duration)
		}
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "can't get prices"))
		return
	}

	if h.metricsRecorder != nil {
		h.metricsRecorder.RecordOracleOperation("prices", "success", duration)
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](prices, nil, nil, ""))
}

// ConvertToUSD godoc
// @Summary Convert amount to USD
// @id convertToUSD
// @Tags Price
// @Produce json
// @Param symbol query string true "Token symbol"
// @Param amount query string true "Decimal amount"
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /prices/convert [get]
func (h *handler) ConvertToUSD(c *gin.Context) {
	start := time.Now()

	var req ConvertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, model.ErrInvalidAmount, nil, "invalid request"))
		return
	}

	usd, err := h.oracle.ConvertToUSD(c.Request.Context(), req.Symbol, amount)
	duration := time.Since(start).Seconds()
	if err != nil {
		h.logger.Error("[ConvertToUSD][oracle.ConvertToUSD]", map[string]string{
			"symbol": req.Symbol,
			"error":  err.Error(),
		})
		if h.metricsRecorder != nil {
			h.metricsRecorder.RecordOracleOperation("convert", "error", duration)
		}
		c.JSON(view.HTTPStatus(err), view.CreateResponse[any](nil, err, nil, "can't convert amount"))
		return
	}

	if h.metricsRecorder != nil {
		h.metricsRecorder.RecordOracleOperation("convert", "success", duration)
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](ConvertResponse{
		Symbol: strings.ToUpper(req.Symbol),
		Amount: amount.String(),
		USD:    usd.StringFixed(2),
	}, nil, nil, ""))
}
