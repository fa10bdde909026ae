package view

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{model.ErrInvalidAmount, http.StatusBadRequest},
	{model.ErrInvalidAddress, http.StatusBadRequest},
	{model.ErrUnsupportedChain, http.StatusBadRequest},
	{model.ErrUnsupportedChainRef, http.StatusBadRequest},
	{model.ErrInvalidSignedTransaction, http.StatusBadRequest},
	{model.ErrInvalidToken, http.StatusBadRequest},
	{model.ErrInvalidTxHash, http.StatusBadRequest},
	{model.ErrInvalidTimestamp, http.StatusBadRequest},
	{model.ErrWalletNotConnected, http.StatusBadRequest},
	{model.ErrTokenNotFound, http.StatusNotFound},
	{model.ErrSessionNotFound, http.StatusNotFound},
	{model.ErrTransactionNotFound, http.StatusNotFound},
	{model.ErrPriceUnavailable, http.StatusNotFound},
	{model.ErrDuplicateTransaction, http.StatusConflict},
	{model.ErrDuplicateToken, http.StatusConflict},
	{model.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{model.ErrInvalidStatusTransition, http.StatusUnprocessableEntity},
}

// HTTPStatus maps domain errors to response codes. Anything unrecognised is a 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("decimal_amount", func(fl validator.FieldLevel) bool {
			return model.IsDecimalAmount(fl.Field().String())
		})
	})
}
