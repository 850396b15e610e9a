package push

import (
	"context"
	"localdeals/internal/domain/claim/model"
	"sync"

	"go.uber.org/zap"
)

// ClaimNotifier claim 状态变更推送，异步发送，失败只记日志
type ClaimNotifier struct {
	push   PushService
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewClaimNotifier(push PushService, logger *zap.Logger) *ClaimNotifier {
	return &ClaimNotifier{push: push, logger: logger}
}

func (n *ClaimNotifier) DepositConfirmed(_ context.Context, c *model.Claim) {
	n.send(c.CustomerID, "Your coupon is ready",
		"Your deposit is confirmed. Show the QR code at the shop to redeem.",
		map[string]string{"type": "deposit_confirmed", "claimId": c.ID, "dealId": c.DealID})
}

func (n *ClaimNotifier) ClaimTransferred(_ context.Context, c *model.Claim, fromCustomerID string) {
	n.send(c.CustomerID, "You received a coupon",
		"A coupon was transferred to you. Open the app to see it.",
		map[string]string{"type": "claim_transferred", "claimId": c.ID, "dealId": c.DealID, "from": fromCustomerID})
}

// Wait 等待在途推送完成，用于优雅退出
func (n *ClaimNotifier) Wait() {
	n.wg.Wait()
}

func (n *ClaimNotifier) send(accountID, title, body string, ext map[string]string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.push.PushToAccount(accountID, title, body, ext); err != nil {
			n.logger.Warn("push failed",
				zap.String("account", accountID),
				zap.String("type", ext["type"]),
				zap.Error(err))
		}
	}()
}
