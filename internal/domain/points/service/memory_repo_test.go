package service

import (
	"context"
	"localdeals/internal/domain/points/model"
	"localdeals/internal/domain/points/repository"
	"sort"
	"sync"
)

// memoryLedger 内存版 LedgerRepository，Transaction 持有全局锁并在出错时回滚
type memoryLedger struct {
	st   *ledgerState
	inTx bool
}

type ledgerState struct {
	mu          sync.Mutex
	entries     []model.LedgerEntry
	redemptions []model.Redemption

	failAppend     error
	failRedemption error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{st: &ledgerState{}}
}

func (m *memoryLedger) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.st.mu.Lock()
	return m.st.mu.Unlock
}

func (m *memoryLedger) Append(_ context.Context, entry *model.LedgerEntry) error {
	defer m.lock()()
	if m.st.failAppend != nil {
		return m.st.failAppend
	}
	m.st.entries = append(m.st.entries, *entry)
	return nil
}

func (m *memoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	defer m.lock()()
	var sum int64
	for _, e := range m.st.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (m *memoryLedger) ListAll(_ context.Context, userID string) ([]model.LedgerEntry, error) {
	defer m.lock()()
	var out []model.LedgerEntry
	for _, e := range m.st.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryLedger) PageEntries(ctx context.Context, userID string, offset, limit int) ([]model.LedgerEntry, int64, error) {
	all, err := m.ListEntries(ctx, userID, 1<<30)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memoryLedger) ListEntries(_ context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	defer m.lock()()
	var out []model.LedgerEntry
	for _, e := range m.st.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryLedger) CreateRedemption(_ context.Context, r *model.Redemption) error {
	defer m.lock()()
	if m.st.failRedemption != nil {
		return m.st.failRedemption
	}
	m.st.redemptions = append(m.st.redemptions, *r)
	return nil
}

func (m *memoryLedger) ListRedemptions(_ context.Context, userID string, limit int) ([]model.Redemption, error) {
	defer m.lock()()
	var out []model.Redemption
	for i := len(m.st.redemptions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.st.redemptions[i].UserID == userID {
			out = append(out, m.st.redemptions[i])
		}
	}
	return out, nil
}

func (m *memoryLedger) LockUser(context.Context, string) error {
	return nil
}

func (m *memoryLedger) Transaction(_ context.Context, fn func(tx repository.LedgerRepository) error) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	entries := len(m.st.entries)
	redemptions := len(m.st.redemptions)
	if err := fn(&memoryLedger{st: m.st, inTx: true}); err != nil {
		m.st.entries = m.st.entries[:entries]
		m.st.redemptions = m.st.redemptions[:redemptions]
		return err
	}
	return nil
}

func (m *memoryLedger) sumAll(userID string) int64 {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var sum int64
	for _, e := range m.st.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum
}

var _ repository.LedgerRepository = (*memoryLedger)(nil)
