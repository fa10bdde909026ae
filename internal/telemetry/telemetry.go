package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/events"
	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/store"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/wallet"
)

const (
	ReasonExpired       = "expired"
	ReasonFailedOnChain = "failed on chain"

	defaultBatchSize     = 100
	defaultMaxPendingAge = 24 * time.Hour
)

type Telemetry struct {
	db        *gorm.DB
	store     *store.Store
	adapters  *wallet.Adapters
	publisher events.Publisher
	logger    *logger.Logger

	maxPendingAge time.Duration
	batchSize     int
	now           func() time.Time

	mu sync.Mutex
}

func New(db *gorm.DB, store *store.Store, appConfig *config.AppConfig, logger *logger.Logger, adapters *wallet.Adapters, publisher events.Publisher) *Telemetry {
	maxAge := appConfig.Reconcile.MaxPendingAge
	if maxAge <= 0 {
		maxAge = defaultMaxPendingAge
	}
	batch := appConfig.Reconcile.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Telemetry{
		db:            db,
		store:         store,
		adapters:      adapters,
		publisher:     publisher,
		logger:        logger,
		maxPendingAge: maxAge,
		batchSize:     batch,
		now:           time.Now,
	}
}

func (t *Telemetry) ReconcilePendingTransactions(ctx context.Context) (*ReconcileResult, error) {
	if !t.mu.TryLock() {
		t.logger.Info("[ReconcilePendingTransactions] previous run still in progress, skipping")
		return &ReconcileResult{Skipped: true, Pending: map[model.Chain]int{}}, nil
	}
	defer t.mu.Unlock()

	records, err := t.store.TransactionRecord.ListPending(store.WithContext(ctx, t.db), t.batchSize)
	if err != nil {
		t.logger.Error("[ReconcilePendingTransactions][ListPending]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	result := &ReconcileResult{Pending: map[model.Chain]int{}}
	checked := make([]uint, 0, len(records))
	defer func() { t.markChecked(ctx, checked) }()

	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec := &records[i]
		result.Checked++
		checked = append(checked, rec.ID)

		status, err := t.reconcile(ctx, rec)
		switch {
		case err != nil:
			result.Errors++
			result.Pending[rec.Chain]++
		case status == model.TransactionStatusConfirmed:
			result.Confirmed++
		case status == model.TransactionStatusFailed && rec.FailureReason == ReasonExpired:
			result.Expired++
		case status == model.TransactionStatusFailed:
			result.Failed++
		default:
			result.Pending[rec.Chain]++
		}
	}

	t.logger.Info("[ReconcilePendingTransactions] done", map[string]string{
		"checked":   strconv.Itoa(result.Checked),
		"confirmed": strconv.Itoa(result.Confirmed),
		"failed":    strconv.Itoa(result.Failed),
		"expired":   strconv.Itoa(result.Expired),
		"errors":    strconv.Itoa(result.Errors),
	})
	return result, nil
}

// markChecked moves the records to the back of the pending queue so the next pass starts
// with records not yet looked at.
func (t *Telemetry) markChecked(ctx context.Context, ids []uint) {
	if len(ids) == 0 {
		return
	}
	if err := t.store.TransactionRecord.MarkChecked(store.WithContext(context.WithoutCancel(ctx), t.db), ids, t.now()); err != nil {
		t.logger.Error("[ReconcilePendingTransactions][MarkChecked]", map[string]string{
			"count": strconv.Itoa(len(ids)),
			"error": err.Error(),
		})
	}
}

func (t *Telemetry) ReconcileTransaction(ctx context.Context, chain model.Chain, txHash string) (*model.TransactionRecord, error) {
	rec, err := t.store.TransactionRecord.GetByTxHash(store.WithContext(ctx, t.db), chain, txHash)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		return rec, nil
	}

	if _, err := t.reconcile(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// reconcile asks the chain for rec's status and applies the transition, if any. rec is
// updated in place and its resulting status returned.
func (t *Telemetry) reconcile(ctx context.Context, rec *model.TransactionRecord) (model.TransactionStatus, error) {
	// CreatedAt is the server clock; Timestamp may come from the client.
	expired := t.now().Sub(rec.CreatedAt) > t.maxPendingAge

	adapter, err := t.adapters.Get(rec.Chain)
	if err != nil {
		t.logger.Error("[reconcile][adapters.Get]", map[string]string{
			"chain":   string(rec.Chain),
			"tx_hash": rec.TxHash,
			"error":   err.Error(),
		})
		return rec.Status, err
	}

	status, err := adapter.TransactionStatus(ctx, rec.ChainRef, rec.TxHash)
	if err != nil {
		t.logger.Error("[reconcile][TransactionStatus]", map[string]string{
			"chain":   string(rec.Chain),
			"tx_hash": rec.TxHash,
			"error":   err.Error(),
		})
		if !expired {
			return rec.Status, err
		}
		status = model.TransactionStatusPending
	}

	reason := ""
	switch {
	case status == model.TransactionStatusFailed:
		reason = ReasonFailedOnChain
	case status == model.TransactionStatusPending && expired:
		status, reason = model.TransactionStatusFailed, ReasonExpired
	case status == model.TransactionStatusPending:
		return status, nil
	}

	return t.apply(ctx, rec, status, reason)
}

func (t *Telemetry) apply(ctx context.Context, rec *model.TransactionRecord, status model.TransactionStatus, reason string) (model.TransactionStatus, error) {
	if !rec.Status.CanTransitionTo(status) {
		return rec.Status, model.ErrInvalidStatusTransition
	}

	at := t.now()
	applied, err := t.store.TransactionRecord.Resolve(store.WithContext(ctx, t.db), rec.ID, status, reason, at)
	if err != nil {
		t.logger.Error("[reconcile][Resolve]", map[string]string{
			"tx_hash": rec.TxHash,
			"status":  string(status),
			"error":   err.Error(),
		})
		return rec.Status, err
	}
	if !applied {
		// another writer already resolved it
		fresh, err := t.store.TransactionRecord.GetByTxHash(store.WithContext(ctx, t.db), rec.Chain, rec.TxHash)
		if err != nil {
			return rec.Status, err
		}
		*rec = *fresh
		return rec.Status, nil
	}

	rec.Status = status
	rec.FailureReason = reason
	if status == model.TransactionStatusConfirmed {
		rec.ConfirmedAt = &at
	}

	t.logger.Info("[reconcile] transaction resolved", map[string]string{
		"chain":   string(rec.Chain),
		"tx_hash": rec.TxHash,
		"status":  string(status),
		"reason":  reason,
	})
	events.PublishQuietly(ctx, t.publisher, t.logger, events.FromRecord(events.EventForStatus(status), rec))
	return status, nil
}
