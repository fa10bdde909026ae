package controller

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/events"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

// maxClockSkew bounds how far ahead of the server clock a client timestamp may be.
const maxClockSkew = 5 * time.Minute

type Controller struct {
	db        *gorm.DB
	store     *store.Store
	adapters  *wallet.Adapters
	tokens    TokenResolver
	publisher events.Publisher
	logger    *logger.Logger
	dbMetrics DatabaseRecorder
	now       func() time.Time
}

func New(
	db *gorm.DB,
	store *store.Store,
	adapters *wallet.Adapters,
	tokens TokenResolver,
	publisher events.Publisher,
	logger *logger.Logger,
) *Controller {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Controller{
		db:        db,
		store:     store,
		adapters:  adapters,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithMetrics times every store call under the database_operation business metric.
func (c *Controller) WithMetrics(recorder DatabaseRecorder) *Controller {
	c.dbMetrics = recorder
	return c
}

func (c *Controller) PrepareTransfer(ctx context.Context, req TransferRequest) (*model.UnsignedTransfer, error) {
	adapter, intent, err := c.buildIntent(ctx, req)
	if err != nil {
		return nil, err
	}

	balance, err := balanceOf(ctx, adapter, intent)
	if err != nil {
		c.logger.Error("[PrepareTransfer][balanceOf]", map[string]string{
			"chain":   string(intent.Chain),
			"address": intent.From,
			"error":   err.Error(),
		})
		return nil, err
	}
	if balance.LessThan(intent.Amount) {
		return nil, errors.Wrapf(model.ErrInsufficientBalance, "balance %s %s", balance.Format(), intent.Token.Symbol)
	}

	unsigned, err := adapter.PrepareTransfer(ctx, intent)
	if err != nil {
		c.logger.Error("[PrepareTransfer][adapter.PrepareTransfer]", map[string]string{
			"chain":     string(intent.Chain),
			"chain_ref": intent.ChainRef,
			"error":     err.Error(),
		})
		return nil, err
	}
	return unsigned, nil
}

func (c *Controller) SubmitTransfer(ctx context.Context, req SubmitTransferRequest) (*model.TransactionRecord, error) {
	if strings.TrimSpace(req.SignedTransaction) == "" {
		return nil, errors.Wrap(model.ErrInvalidSignedTransaction, "signed transaction is required")
	}

	adapter, intent, err := c.buildIntent(ctx, req.TransferRequest)
	if err != nil {
		return nil, err
	}

	txHash, err := adapter.SubmitSignedTransaction(ctx, intent.ChainRef, req.SignedTransaction)
	if err != nil {
		c.logger.Error("[SubmitTransfer][SubmitSignedTransaction]", map[string]string{
			"chain":     string(intent.Chain),
			"chain_ref": intent.ChainRef,
			"error":     err.Error(),
		})
		return nil, err
	}

	return c.record(ctx, intent, txHash, c.now())
}

func (c *Controller) RecordTransfer(ctx context.Context, req RecordTransferRequest) (*model.TransactionRecord, error) {
	txHash := strings.TrimSpace(req.TxHash)
	if txHash == "" {
		return nil, errors.Wrap(model.ErrInvalidSignedTransaction, "tx_hash is required")
	}

	adapter, intent, err := c.buildIntent(ctx, req.TransferRequest)
	if err != nil {
		return nil, err
	}
	if err := adapter.ValidateTxHash(txHash); err != nil {
		return nil, err
	}

	now := c.now()
	ts := req.Timestamp
	if ts.IsZero() {
		ts = now
	}
	if ts.After(now.Add(maxClockSkew)) {
		return nil, errors.Wrapf(model.ErrInvalidTimestamp, "%s is in the future", ts.UTC().Format(time.RFC3339))
	}
	return c.record(ctx, intent, txHash, ts)
}

func (c *Controller) record(ctx context.Context, intent model.TransferIntent, txHash string, ts time.Time) (*model.TransactionRecord, error) {
	rec := &model.TransactionRecord{
		Chain:        intent.Chain,
		ChainRef:     intent.ChainRef,
		FromAddress:  intent.From,
		ToAddress:    intent.To,
		Amount:       intent.AmountText,
		Currency:     intent.Token.Symbol,
		TokenAddress: intent.Token.Address,
		TxHash:       txHash,
		Status:       model.TransactionStatusPending,
		Timestamp:    ts.UTC(),
	}

	start := time.Now()
	created, err := c.store.TransactionRecord.Create(store.WithContext(ctx, c.db), rec)
	c.observeDB("transaction_record_create", start, err)
	if err != nil {
		c.logger.Error("[record][TransactionRecord.Create]", map[string]string{
			"chain":   string(intent.Chain),
			"tx_hash": txHash,
			"error":   err.Error(),
		})
		return nil, err
	}

	c.logger.Info("[record] transaction recorded", map[string]string{
		"chain":    string(created.Chain),
		"tx_hash":  created.TxHash,
		"amount":   created.Amount,
		"currency": created.Currency,
	})
	events.PublishQuietly(ctx, c.publisher, c.logger, events.FromRecord(events.EventTransactionCreated, created))
	return created, nil
}

func (c *Controller) GetTransaction(ctx context.Context, chain model.Chain, txHash string) (*model.TransactionRecord, error) {
	if !chain.IsValid() {
		return nil, model.ErrUnsupportedChain
	}
	start := time.Now()
	rec, err := c.store.TransactionRecord.GetByTxHash(store.WithContext(ctx, c.db), chain, strings.TrimSpace(txHash))
	c.observeDB("transaction_record_get", start, err)
	return rec, err
}

func (c *Controller) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, int64, error) {
	if filter.Chain != "" && !filter.Chain.IsValid() {
		return nil, 0, model.ErrUnsupportedChain
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.Wrapf(model.ErrInvalidStatusTransition, "unknown status %q", filter.Status)
	}
	start := time.Now()
	records, total, err := c.store.TransactionRecord.List(store.WithContext(ctx, c.db), filter)
	c.observeDB("transaction_record_list", start, err)
	return records, total, err
}

func (c *Controller) EstimateFee(ctx context.Context, chain model.Chain, chainRef, balance string) (*model.FeeEstimate, error) {
	balance = strings.TrimSpace(balance)
	if balance != "" && !model.IsDecimalAmount(balance) {
		return nil, errors.Wrapf(model.ErrInvalidAmount, "%q is not a decimal number", balance)
	}

	adapter, err := c.adapters.Get(chain)
	if err != nil {
		return nil, err
	}
	native, err := c.tokens.NativeToken(chain, chainRef)
	if err != nil {
		return nil, err
	}

	fee, err := adapter.EstimateTransferFee(ctx, chainRef)
	if err != nil {
		c.logger.Error("[EstimateFee][EstimateTransferFee]", map[string]string{
			"chain":     string(chain),
			"chain_ref": chainRef,
			"error":     err.Error(),
		})
		return nil, err
	}

	estimate := &model.FeeEstimate{
		Chain:     chain,
		ChainRef:  chainRef,
		Symbol:    native.Symbol,
		Fee:       fee,
		Formatted: fee.Format(),
	}
	if balance != "" {
		estimate.MaxSendable = maxSendable(balance, fee)
	}
	return estimate, nil
}

// maxSendable is max(0, balance - fee) in whole units.
func maxSendable(balance string, fee *model.Web3BigInt) string {
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return "0"
	}
	remaining := b.Sub(fee.WholeUnits())
	if !remaining.IsPositive() {
		return "0"
	}
	return remaining.String()
}

func (c *Controller) CheckAllowance(ctx context.Context, req AllowanceRequest) (*AllowanceResult, error) {
	amountStr := strings.TrimSpace(req.Amount)
	if !model.IsDecimalAmount(amountStr) {
		return nil, errors.Wrapf(model.ErrInvalidAmount, "%q is not a decimal number", req.Amount)
	}

	adapter, err := c.adapters.Get(req.Chain)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.TokenByAddress(req.Chain, req.ChainRef, req.TokenAddress)
	if err != nil {
		return nil, err
	}
	required, err := model.ParseAmount(amountStr, token.Decimals)
	if err != nil {
		return nil, err
	}

	// SPL transfers are signed by the owner directly; the wallet flow always asks for approval.
	if req.Chain == model.ChainSolana {
		return &AllowanceResult{Required: required, NeedsApproval: true}, nil
	}
	if token.IsNative {
		return &AllowanceResult{Required: required, NeedsApproval: false}, nil
	}

	reader, ok := adapter.(wallet.AllowanceReader)
	if !ok {
		return nil, model.ErrUnsupportedChain
	}
	for _, addr := range []string{req.Owner, req.Spender} {
		if err := adapter.ValidateAddress(addr); err != nil {
			return nil, err
		}
	}

	allowance, err := reader.Allowance(ctx, req.ChainRef, token, req.Owner, req.Spender)
	if err != nil {
		c.logger.Error("[CheckAllowance][Allowance]", map[string]string{
			"token":   token.Address,
			"owner":   req.Owner,
			"spender": req.Spender,
			"error":   err.Error(),
		})
		return nil, err
	}

	return &AllowanceResult{
		Allowance:     allowance,
		Required:      required,
		NeedsApproval: allowance.LessThan(required),
	}, nil
}

func (c *Controller) GetOverride(ctx context.Context, chain model.Chain) (*model.WalletOverride, error) {
	if !chain.IsValid() {
		return nil, model.ErrUnsupportedChain
	}
	override, err := c.getOverride(ctx, chain)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return &model.WalletOverride{Chain: chain}, nil
	}
	return override, nil
}

func (c *Controller) SetOverride(ctx context.Context, req OverrideRequest) (*model.WalletOverride, error) {
	address := strings.TrimSpace(req.Address)
	if req.Enabled || address != "" {
		if err := c.adapters.ValidateAddress(req.Chain, address); err != nil {
			return nil, err
		}
	} else if !req.Chain.IsValid() {
		return nil, model.ErrUnsupportedChain
	}

	start := time.Now()
	override, err := c.store.WalletOverride.Upsert(store.WithContext(ctx, c.db), &model.WalletOverride{
		Chain:     req.Chain,
		Address:   address,
		Enabled:   req.Enabled,
		UpdatedBy: req.UpdatedBy,
	})
	c.observeDB("wallet_override_upsert", start, err)
	if err != nil {
		c.logger.Error("[SetOverride][Upsert]", map[string]string{
			"chain": string(req.Chain),
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.Info("[SetOverride] override updated", map[string]string{
		"chain":      string(override.Chain),
		"address":    override.Address,
		"enabled":    boolString(override.Enabled),
		"updated_by": override.UpdatedBy,
	})
	return override, nil
}

func (c *Controller) ListOverrides(ctx context.Context) ([]model.WalletOverride, error) {
	start := time.Now()
	overrides, err := c.store.WalletOverride.List(store.WithContext(ctx, c.db))
	c.observeDB("wallet_override_list", start, err)
	return overrides, err
}
