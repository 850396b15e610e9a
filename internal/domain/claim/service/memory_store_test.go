package service

import (
	"context"
	"fmt"
	"localdeals/internal/domain/claim/model"
	"localdeals/internal/domain/claim/repository"
	dealModel "localdeals/internal/domain/deal/model"
	dealRepo "localdeals/internal/domain/deal/repository"
	pointsModel "localdeals/internal/domain/points/model"
	pointsRepo "localdeals/internal/domain/points/repository"
	userModel "localdeals/internal/domain/user/model"
	"localdeals/internal/pkg/apperr"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memStore 内存版 Store：Transaction 期间独占全部数据，相当于把行锁和 advisory lock 合并成一把大锁
type memStore struct {
	st   *memState
	inTx bool
}

type memState struct {
	mu        sync.Mutex
	claims    map[string]model.Claim
	deals     map[string]dealModel.Deal
	transfers []model.ClaimTransfer
	ledger    []pointsModel.LedgerEntry

	failAppend error
}

func newMemStore() *memStore {
	return &memStore{st: &memState{
		claims: make(map[string]model.Claim),
		deals:  make(map[string]dealModel.Deal),
	}}
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *memStore) Claims() repository.ClaimRepository { return memClaims{s} }
func (s *memStore) Deals() dealRepo.DealRepository     { return memDeals{s} }
func (s *memStore) Ledger() pointsRepo.LedgerRepository { return memLedger{s} }

func (s *memStore) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	claims := make(map[string]model.Claim, len(s.st.claims))
	for k, v := range s.st.claims {
		claims[k] = v
	}
	deals := make(map[string]dealModel.Deal, len(s.st.deals))
	for k, v := range s.st.deals {
		deals[k] = v
	}
	transfers := len(s.st.transfers)
	ledger := len(s.st.ledger)

	if err := fn(&memStore{st: s.st, inTx: true}); err != nil {
		s.st.claims = claims
		s.st.deals = deals
		s.st.transfers = s.st.transfers[:transfers]
		s.st.ledger = s.st.ledger[:ledger]
		return err
	}
	return nil
}

// 测试辅助

func (s *memStore) putDeal(d dealModel.Deal) {
	defer s.lock()()
	s.st.deals[d.ID] = d
}

func (s *memStore) deal(id string) dealModel.Deal {
	defer s.lock()()
	return s.st.deals[id]
}

func (s *memStore) putClaim(c model.Claim) {
	defer s.lock()()
	s.st.claims[c.ID] = c
}

func (s *memStore) rawClaim(id string) model.Claim {
	defer s.lock()()
	return s.st.claims[id]
}

func (s *memStore) ledgerFor(userID string) []pointsModel.LedgerEntry {
	defer s.lock()()
	var out []pointsModel.LedgerEntry
	for _, e := range s.st.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) transferCount() int {
	defer s.lock()()
	return len(s.st.transfers)
}

type memClaims struct{ s *memStore }

func (r memClaims) Create(_ context.Context, c *model.Claim) error {
	defer r.s.lock()()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.st.claims[c.ID] = *c
	return nil
}

func (r memClaims) find(match func(c *model.Claim) bool, what string) (*model.Claim, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.claims {
		if c.DeletedAt.Valid {
			continue
		}
		if match(&c) {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
}

func (r memClaims) GetByID(_ context.Context, id string) (*model.Claim, error) {
	return r.find(func(c *model.Claim) bool { return c.ID == id }, "claim "+id)
}

func (r memClaims) GetByScanToken(_ context.Context, token string) (*model.Claim, error) {
	return r.find(func(c *model.Claim) bool { return c.ScanToken != nil && *c.ScanToken == token }, "scan token")
}

func (r memClaims) LockByID(ctx context.Context, id string) (*model.Claim, error) {
	return r.GetByID(ctx, id)
}

func (r memClaims) LockBySession(_ context.Context, token string) (*model.Claim, error) {
	return r.find(func(c *model.Claim) bool { return c.SessionToken != nil && *c.SessionToken == token }, "session")
}

func (r memClaims) LockByScanToken(ctx context.Context, token string) (*model.Claim, error) {
	return r.GetByScanToken(ctx, token)
}

func (r memClaims) LockByCode(_ context.Context, dealID, code string) (*model.Claim, error) {
	return r.find(func(c *model.Claim) bool {
		return c.DealID == dealID && c.RedemptionCode != nil && *c.RedemptionCode == code
	}, "code")
}

func (r memClaims) Save(_ context.Context, c *model.Claim) error {
	defer r.s.lock()()
	c.UpdatedAt = time.Now()
	r.s.st.claims[c.ID] = *c
	return nil
}

func (r memClaims) SoftDelete(_ context.Context, c *model.Claim) error {
	defer r.s.lock()()
	c.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.s.st.claims[c.ID] = *c
	return nil
}

func (r memClaims) HasActiveClaim(_ context.Context, customerID, dealID string, now time.Time) (bool, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.claims {
		if !c.DeletedAt.Valid && c.CustomerID == customerID && c.DealID == dealID && !c.Redeemed && c.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r memClaims) LockCustomerDeal(context.Context, string, string) error { return nil }

func (r memClaims) ListActive(_ context.Context, customerID string, now time.Time) ([]model.Claim, error) {
	defer r.s.lock()()
	var out []model.Claim
	for _, c := range r.s.st.claims {
		if !c.DeletedAt.Valid && c.CustomerID == customerID && !c.Redeemed && c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memClaims) ListPendingManual(_ context.Context, vendorID string, now time.Time) ([]model.Claim, error) {
	defer r.s.lock()()
	var out []model.Claim
	for _, c := range r.s.st.claims {
		d := r.s.st.deals[c.DealID]
		if !c.DeletedAt.Valid && d.VendorID == vendorID && c.PaymentTier == model.TierManual &&
			!c.DepositConfirmed && c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memClaims) InsertTransfer(_ context.Context, t *model.ClaimTransfer) error {
	defer r.s.lock()()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	r.s.st.transfers = append(r.s.st.transfers, *t)
	return nil
}

func (r memClaims) ListTransfers(_ context.Context, claimID string) ([]model.ClaimTransfer, error) {
	defer r.s.lock()()
	var out []model.ClaimTransfer
	for _, t := range r.s.st.transfers {
		if t.ClaimID == claimID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memDeals struct{ s *memStore }

func (r memDeals) GetByID(_ context.Context, id string) (*dealModel.Deal, error) {
	defer r.s.lock()()
	d, ok := r.s.st.deals[id]
	if !ok {
		return nil, fmt.Errorf("deal %s: %w", id, apperr.ErrNotFound)
	}
	return &d, nil
}

func (r memDeals) TryReserveSlot(_ context.Context, id string) error {
	defer r.s.lock()()
	d, ok := r.s.st.deals[id]
	if !ok {
		return fmt.Errorf("deal %s: %w", id, apperr.ErrNotFound)
	}
	if d.MaxClaims != nil && d.ClaimsCount >= *d.MaxClaims {
		return fmt.Errorf("deal %s: %w", id, apperr.ErrAtCapacity)
	}
	d.ClaimsCount++
	r.s.st.deals[id] = d
	return nil
}

func (r memDeals) ReleaseSlot(_ context.Context, id string) error {
	defer r.s.lock()()
	d, ok := r.s.st.deals[id]
	if !ok {
		return fmt.Errorf("deal %s: %w", id, apperr.ErrNotFound)
	}
	if d.ClaimsCount == 0 {
		return dealRepo.ErrCounterUnderflow
	}
	d.ClaimsCount--
	r.s.st.deals[id] = d
	return nil
}

type memLedger struct{ s *memStore }

func (r memLedger) Append(_ context.Context, e *pointsModel.LedgerEntry) error {
	defer r.s.lock()()
	if r.s.st.failAppend != nil {
		return r.s.st.failAppend
	}
	r.s.st.ledger = append(r.s.st.ledger, *e)
	return nil
}

func (r memLedger) Balance(_ context.Context, userID string) (int64, error) {
	defer r.s.lock()()
	var sum int64
	for _, e := range r.s.st.ledger {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r memLedger) ListAll(_ context.Context, userID string) ([]pointsModel.LedgerEntry, error) {
	defer r.s.lock()()
	var out []pointsModel.LedgerEntry
	for _, e := range r.s.st.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memLedger) ListEntries(context.Context, string, int) ([]pointsModel.LedgerEntry, error) {
	return nil, nil
}

func (r memLedger) PageEntries(context.Context, string, int, int) ([]pointsModel.LedgerEntry, int64, error) {
	return nil, 0, nil
}

func (r memLedger) CreateRedemption(context.Context, *pointsModel.Redemption) error { return nil }

func (r memLedger) ListRedemptions(context.Context, string, int) ([]pointsModel.Redemption, error) {
	return nil, nil
}

func (r memLedger) LockUser(context.Context, string) error { return nil }

func (r memLedger) Transaction(_ context.Context, fn func(tx pointsRepo.LedgerRepository) error) error {
	return fn(r)
}

// memDirectory 转赠收件人目录
type memDirectory map[string]userModel.User

func (d memDirectory) FindCustomerByEmail(_ context.Context, email string) (*userModel.User, error) {
	u, ok := d[strings.ToLower(email)]
	if !ok || u.Role != userModel.RoleCustomer {
		return nil, fmt.Errorf("recipient %s: %w", email, apperr.ErrRecipientNotFound)
	}
	return &u, nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	confirmed   []string
	transferred []string
}

func (n *recordingNotifier) DepositConfirmed(_ context.Context, c *model.Claim) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, c.ID)
}

func (n *recordingNotifier) ClaimTransferred(_ context.Context, c *model.Claim, from string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transferred = append(n.transferred, from+"->"+c.CustomerID)
}

var (
	_ repository.Store = (*memStore)(nil)
)
