package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

// buildIntent validates a transfer request. The amount is checked before any chain call is made.
func (c *Controller) buildIntent(ctx context.Context, req TransferRequest) (wallet.ChainAdapter, model.TransferIntent, error) {
	amount := strings.TrimSpace(req.Amount)
	if !model.IsDecimalAmount(amount) {
		return nil, model.TransferIntent{}, errors.Wrapf(model.ErrInvalidAmount, "%q is not a decimal number", req.Amount)
	}

	adapter, err := c.adapters.Get(req.Chain)
	if err != nil {
		return nil, model.TransferIntent{}, err
	}
	token, err := c.tokens.TokenByAddress(req.Chain, req.ChainRef, req.TokenAddress)
	if err != nil {
		return nil, model.TransferIntent{}, err
	}
	value, err := model.ParseAmount(amount, token.Decimals)
	if err != nil {
		return nil, model.TransferIntent{}, err
	}

	from := strings.TrimSpace(req.From)
	if err := adapter.ValidateAddress(from); err != nil {
		return nil, model.TransferIntent{}, errors.Wrap(err, "from")
	}

	to, err := c.recipient(ctx, req.Chain, strings.TrimSpace(req.To))
	if err != nil {
		return nil, model.TransferIntent{}, err
	}
	if err := adapter.ValidateAddress(to); err != nil {
		return nil, model.TransferIntent{}, errors.Wrap(err, "to")
	}

	return adapter, model.TransferIntent{
		Chain:      req.Chain,
		ChainRef:   req.ChainRef,
		From:       from,
		To:         to,
		Token:      token,
		Amount:     value,
		AmountText: amount,
	}, nil
}

// recipient applies the admin override for chain when it is enabled.
func (c *Controller) recipient(ctx context.Context, chain model.Chain, to string) (string, error) {
	override, err := c.getOverride(ctx, chain)
	if err != nil {
		c.logger.Error("[recipient][WalletOverride.Get]", map[string]string{
			"chain": string(chain),
			"error": err.Error(),
		})
		return "", err
	}
	if override == nil || !override.Enabled || override.Address == "" {
		return to, nil
	}

	if override.Address != to {
		c.logger.Info("[recipient] recipient replaced by override", map[string]string{
			"chain":     string(chain),
			"requested": to,
			"override":  override.Address,
		})
	}
	return override.Address, nil
}

func (c *Controller) getOverride(ctx context.Context, chain model.Chain) (*model.WalletOverride, error) {
	start := time.Now()
	override, err := c.store.WalletOverride.Get(store.WithContext(ctx, c.db), chain)
	c.observeDB("wallet_override_get", start, err)
	return override, err
}

// observeDB reports a store call. Not-found and duplicate results count as successful round trips.
func (c *Controller) observeDB(operation string, start time.Time, err error) {
	if c.dbMetrics == nil {
		return
	}
	status := "success"
	if err != nil && !errors.Is(err, model.ErrTransactionNotFound) && !errors.Is(err, model.ErrDuplicateTransaction) {
		status = "error"
	}
	c.dbMetrics.RecordDatabaseOperation(operation, status, time.Since(start).Seconds())
}

func balanceOf(ctx context.Context, adapter wallet.ChainAdapter, intent model.TransferIntent) (*model.Web3BigInt, error) {
	if intent.Token.IsNative {
		return adapter.NativeBalance(ctx, intent.ChainRef, intent.From)
	}
	return adapter.TokenBalance(ctx, intent.ChainRef, intent.Token, intent.From)
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}
