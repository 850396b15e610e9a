package model

import "time"

// lot 一笔入账中尚未被消耗的部分
type lot struct {
	remaining int64
	expiresAt time.Time
}

// LiveBalance 按时间顺序回放流水计算有效余额。
// 扣减总是先消耗最早的未过期入账；入账过期时只作废其未被消耗的部分。
// 没有可消耗入账时的扣减（例如管理员冲正）记为欠额，由之后的入账先行抵扣。
// entries 必须按 created_at 升序。
func LiveBalance(entries []LedgerEntry, ttl time.Duration, now time.Time) int64 {
	var (
		lots    []lot
		deficit int64
	)
	expire := func(at time.Time) {
		i := 0
		for i < len(lots) && lots[i].expiresAt.Before(at) {
			i++
		}
		lots = lots[i:]
	}

	for _, e := range entries {
		expire(e.CreatedAt)

		if e.Amount > 0 {
			amount := e.Amount
			if deficit > 0 {
				paid := min(deficit, amount)
				deficit -= paid
				amount -= paid
			}
			if amount > 0 {
				lots = append(lots, lot{remaining: amount, expiresAt: e.CreatedAt.Add(ttl)})
			}
			continue
		}

		debit := -e.Amount
		for debit > 0 && len(lots) > 0 {
			if lots[0].remaining > debit {
				lots[0].remaining -= debit
				debit = 0
				break
			}
			debit -= lots[0].remaining
			lots = lots[1:]
		}
		deficit += debit
	}

	expire(now)
	var balance int64
	for _, l := range lots {
		balance += l.remaining
	}
	return balance - deficit
}
