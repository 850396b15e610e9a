package service

import (
	"context"
	"testing"
	"time"

	"localdeals/internal/domain/points/model"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/config"
	"localdeals/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_RejectsZeroAndUnknownType(t *testing.T) {
	_, ls, _ := newTestServices(t, config.DefaultPoints())
	ctx := context.Background()

	_, err := ls.Append(ctx, "u1", 0, model.EntryEarned, "nothing", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)

	_, err = ls.Append(ctx, "u1", 10, model.EntryType("gift"), "unknown", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidEntryType)
}

func TestBalance_IsSumOfEntries(t *testing.T) {
	repo, ls, rs := newTestServices(t, config.DefaultPoints())
	ctx := context.Background()

	seed(t, ls, "u1", 300)
	seed(t, ls, "u1", 450)
	_, err := ls.Adjust(ctx, "u1", -50, model.EntryAdjustment, "correction")
	require.NoError(t, err)
	_, err = ls.Adjust(ctx, "u1", 200, model.EntryBonus, "welcome")
	require.NoError(t, err)
	_, err = rs.Redeem(ctx, "u1", 500)
	require.NoError(t, err)
	seed(t, ls, "u2", 999)

	balance, err := ls.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)
	assert.Equal(t, repo.sumAll("u1"), balance)
}

func TestBalance_IgnoresExpiredEntries(t *testing.T) {
	rules := config.DefaultPoints()
	rules.EntryTTL = 30 * 24 * time.Hour
	repo, ls, _ := newTestServices(t, rules)
	ctx := context.Background()

	seed(t, ls, "u1", 200)
	old := testNow.Add(-31 * 24 * time.Hour)
	entry, err := model.NewEntry("u1", 1000, model.EntryEarned, "last year", nil, old)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, entry))

	balance, err := ls.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
	assert.Len(t, repo.st.entries, 2, "expired entries stay in the ledger")
}

func TestBalance_SpentPointsExpiringKeepBalanceNonNegative(t *testing.T) {
	rules := config.DefaultPoints()
	rules.EntryTTL = 365 * 24 * time.Hour
	repo, ls, rs := newTestServices(t, rules)
	ctx := context.Background()

	earned, err := model.NewEntry("u1", 500, model.EntryEarned, "claim", nil, testNow.Add(-300*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, earned))

	_, err = rs.Redeem(ctx, "u1", 500)
	require.NoError(t, err)

	later := testNow.Add(100 * 24 * time.Hour)
	ls.now = func() time.Time { return later }
	balance, err := ls.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// 新入账不会被已过期的扣减抵消
	fresh, err := model.NewEntry("u1", 300, model.EntryEarned, "claim", nil, later)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, fresh))
	balance, err = ls.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)
}

func TestRedeem_CannotSpendExpiredPoints(t *testing.T) {
	rules := config.DefaultPoints()
	rules.EntryTTL = 30 * 24 * time.Hour
	repo, ls, rs := newTestServices(t, rules)
	ctx := context.Background()

	old, err := model.NewEntry("u1", 800, model.EntryEarned, "claim", nil, testNow.Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, old))
	seed(t, ls, "u1", 400)

	_, err = rs.Redeem(ctx, "u1", 500)
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	assert.Empty(t, repo.st.redemptions)
}

func TestHistory_Paginates(t *testing.T) {
	repo, ls, _ := newTestServices(t, config.DefaultPoints())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		e, err := model.NewEntry("u1", int64(i*100), model.EntryEarned, "claim", nil, testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, e))
	}
	seed(t, ls, "u2", 100)

	p := utils.Pagination{Page: 2, Limit: 2}
	entries, total, err := ls.History(ctx, "u1", &p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(300), entries[0].Amount)
	assert.Equal(t, int64(200), entries[1].Amount)

	p = utils.Pagination{}
	entries, _, err = ls.History(ctx, "u1", &p)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
}

func TestAdjust_OnlyBonusOrAdjustment(t *testing.T) {
	_, ls, _ := newTestServices(t, config.DefaultPoints())
	ctx := context.Background()

	for _, typ := range []model.EntryType{model.EntryEarned, model.EntryRedeemed, model.EntrySpendCredit} {
		_, err := ls.Adjust(ctx, "u1", 100, typ, "not allowed")
		assert.ErrorIs(t, err, apperr.ErrInvalidEntryType, string(typ))
	}

	id, err := ls.Adjust(ctx, "u1", -100, model.EntryAdjustment, "clawback")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSummary(t *testing.T) {
	_, ls, rs := newTestServices(t, config.DefaultPoints())
	ctx := context.Background()

	seed(t, ls, "u1", 1250)
	_, err := rs.Redeem(ctx, "u1", 500)
	require.NoError(t, err)

	s, err := ls.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(750), s.Balance)
	assert.Len(t, s.Entries, 2)
	assert.Len(t, s.Redemptions, 1)
	assert.True(t, s.Eligibility.MeetsMinimum)
	assert.Equal(t, int64(700), s.Eligibility.MaxRedeemable)
}

func TestEligibilityFor(t *testing.T) {
	rules := config.DefaultPoints()

	tests := []struct {
		balance int64
		meets   bool
		max     int64
	}{
		{0, false, 0},
		{499, false, 0},
		{500, true, 500},
		{999, true, 900},
		{-20, false, 0},
	}
	for _, tt := range tests {
		e := eligibilityFor(rules, tt.balance)
		assert.Equal(t, tt.meets, e.MeetsMinimum, "balance %d", tt.balance)
		assert.Equal(t, tt.max, e.MaxRedeemable, "balance %d", tt.balance)
	}
}
