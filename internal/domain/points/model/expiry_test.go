package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const day = 24 * time.Hour

func entryAt(amount int64, at time.Time) LedgerEntry {
	return LedgerEntry{UserID: "u1", Amount: amount, CreatedAt: at}
}

func TestLiveBalance(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := 365 * day

	tests := []struct {
		name    string
		entries []LedgerEntry
		now     time.Time
		want    int64
	}{
		{
			name:    "nothing expired",
			entries: []LedgerEntry{entryAt(300, base), entryAt(-100, base.Add(day))},
			now:     base.Add(10 * day),
			want:    200,
		},
		{
			name:    "unspent credit expires",
			entries: []LedgerEntry{entryAt(300, base), entryAt(200, base.Add(200*day))},
			now:     base.Add(400 * day),
			want:    200,
		},
		{
			name:    "spent credit expiring does not go negative",
			entries: []LedgerEntry{entryAt(500, base), entryAt(-500, base.Add(300*day))},
			now:     base.Add(400 * day),
			want:    0,
		},
		{
			name: "spend consumes oldest credit first",
			entries: []LedgerEntry{
				entryAt(500, base),
				entryAt(500, base.Add(200*day)),
				entryAt(-600, base.Add(300*day)),
			},
			now:  base.Add(400 * day),
			want: 400,
		},
		{
			name:    "credit already expired cannot be spent later",
			entries: []LedgerEntry{entryAt(500, base), entryAt(100, base.Add(370*day)), entryAt(-100, base.Add(380*day))},
			now:     base.Add(390 * day),
			want:    0,
		},
		{
			name:    "negative adjustment without credit stays as deficit",
			entries: []LedgerEntry{entryAt(-50, base), entryAt(200, base.Add(day))},
			now:     base.Add(2 * day),
			want:    150,
		},
		{
			name:    "deficit survives expiry",
			entries: []LedgerEntry{entryAt(-50, base)},
			now:     base.Add(800 * day),
			want:    -50,
		},
		{
			name:    "credit on the boundary is still live",
			entries: []LedgerEntry{entryAt(100, base)},
			now:     base.Add(ttl),
			want:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LiveBalance(tt.entries, ttl, tt.now))
		})
	}
}
