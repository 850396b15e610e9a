package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClaimState(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &Claim{ExpiresAt: now.Add(time.Hour)}
	assert.Equal(t, StateCreated, c.State(now))
	assert.True(t, c.Active(now))

	c.DepositConfirmed = true
	assert.Equal(t, StateDepositConfirmed, c.State(now))

	// 过期与存储的布尔值无关
	assert.Equal(t, StateExpired, c.State(now.Add(time.Hour)))
	assert.False(t, c.Active(now.Add(time.Hour)))

	c.Redeemed = true
	assert.Equal(t, StateRedeemed, c.State(now.Add(2*time.Hour)), "redeemed stays redeemed after expiry")

	c.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	assert.Equal(t, StateCancelled, c.State(now))
}
