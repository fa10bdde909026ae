package storetest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

// MemoryTransactionRecords mirrors the postgres transaction record store in memory. The tx
// argument is ignored.
type MemoryTransactionRecords struct {
	mu      sync.Mutex
	records []model.TransactionRecord
	nextID  uint
}

func NewMemoryTransactionRecords() *MemoryTransactionRecords {
	return &MemoryTransactionRecords{nextID: 1}
}

func (m *MemoryTransactionRecords) Create(_ *gorm.DB, record *model.TransactionRecord) (*model.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.Chain == record.Chain && r.TxHash == record.TxHash {
			return nil, model.ErrDuplicateTransaction
		}
	}
	record.ID = m.nextID
	m.nextID++
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = model.TransactionStatusPending
	}
	m.records = append(m.records, *record)
	return record, nil
}

func (m *MemoryTransactionRecords) GetByTxHash(_ *gorm.DB, chain model.Chain, txHash string) (*model.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.Chain == chain && r.TxHash == txHash {
			rec := r
			return &rec, nil
		}
	}
	return nil, model.ErrTransactionNotFound
}

func (m *MemoryTransactionRecords) List(_ *gorm.DB, filter model.TransactionFilter) ([]model.TransactionRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.TransactionRecord
	for _, r := range m.records {
		if filter.Chain != "" && r.Chain != filter.Chain {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if addr := strings.TrimSpace(filter.Address); addr != "" &&
			!strings.EqualFold(r.FromAddress, addr) && !strings.EqualFold(r.ToAddress, addr) {
			continue
		}
		matched = append(matched, r)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := int64(len(matched))
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemoryTransactionRecords) ListPending(_ *gorm.DB, limit int) ([]model.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.TransactionRecord
	for _, r := range m.records {
		if r.Status == model.TransactionStatusPending {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastCheckedAt, out[j].LastCheckedAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil || b == nil:
			return a == nil
		case a.Equal(*b):
			return out[i].ID < out[j].ID
		}
		return a.Before(*b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryTransactionRecords) MarkChecked(_ *gorm.DB, ids []uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		for i := range m.records {
			r := &m.records[i]
			if r.ID == id && r.Status == model.TransactionStatusPending {
				checked := at
				r.LastCheckedAt = &checked
			}
		}
	}
	return nil
}

func (m *MemoryTransactionRecords) Resolve(_ *gorm.DB, id uint, status model.TransactionStatus, reason string, at time.Time) (bool, error) {
	if !model.TransactionStatusPending.CanTransitionTo(status) {
		return false, model.ErrInvalidStatusTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		r := &m.records[i]
		if r.ID != id || r.Status != model.TransactionStatusPending {
			continue
		}
		r.Status = status
		r.FailureReason = reason
		r.UpdatedAt = at
		if status == model.TransactionStatusConfirmed {
			confirmedAt := at
			r.ConfirmedAt = &confirmedAt
		}
		return true, nil
	}
	return false, nil
}

// ForceStatus overwrites a status without the pending guard, to seed terminal records.
func (m *MemoryTransactionRecords) ForceStatus(chain model.Chain, txHash string, status model.TransactionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].Chain == chain && m.records[i].TxHash == txHash {
			m.records[i].Status = status
		}
	}
}

type MemoryWalletOverrides struct {
	mu        sync.Mutex
	overrides map[model.Chain]model.WalletOverride
}

func NewMemoryWalletOverrides() *MemoryWalletOverrides {
	return &MemoryWalletOverrides{overrides: map[model.Chain]model.WalletOverride{}}
}

func (m *MemoryWalletOverrides) Get(_ *gorm.DB, chain model.Chain) (*model.WalletOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overrides[chain]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *MemoryWalletOverrides) Upsert(_ *gorm.DB, override *model.WalletOverride) (*model.WalletOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	o := *override
	if existing, ok := m.overrides[o.Chain]; ok {
		o.CreatedAt = existing.CreatedAt
	} else {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	m.overrides[o.Chain] = o
	return &o, nil
}

func (m *MemoryWalletOverrides) List(_ *gorm.DB) ([]model.WalletOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.WalletOverride, 0, len(m.overrides))
	for _, o := range m.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out, nil
}

type MemoryCustomTokens struct {
	mu   sync.Mutex
	rows []model.CustomToken
}

func NewMemoryCustomTokens() *MemoryCustomTokens {
	return &MemoryCustomTokens{}
}

func (m *MemoryCustomTokens) Create(_ *gorm.DB, token *model.CustomToken) (*model.CustomToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Chain == token.Chain && r.ChainRef == token.ChainRef && strings.EqualFold(r.Address, token.Address) {
			return nil, model.ErrDuplicateToken
		}
	}
	token.ID = uint(len(m.rows) + 1)
	token.CreatedAt = time.Now()
	token.UpdatedAt = token.CreatedAt
	m.rows = append(m.rows, *token)
	return token, nil
}

func (m *MemoryCustomTokens) List(_ *gorm.DB, chain model.Chain, chainRef string) ([]model.CustomToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CustomToken
	for _, r := range m.rows {
		if r.Chain == chain && r.ChainRef == chainRef {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryCustomTokens) ListAll(_ *gorm.DB) ([]model.CustomToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CustomToken, len(m.rows))
	copy(out, m.rows)
	return out, nil
}
