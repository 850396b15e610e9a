package strategy

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

const (
	ChannelAlipay = "alipay"
	ChannelWechat = "wechat"
	ChannelSigned = "signed"
)

// Notification 验签通过后的支付事件
type Notification struct {
	EventID      string          // 网关事件 ID，用于去重
	SessionToken string          // 即下单时的 out_trade_no
	Paid         bool            // 是否支付成功
	Amount       decimal.Decimal // 仅记录，不参与确认
}

type PaymentStrategy interface {
	// Pay 发起支付，返回支付参数（如 URL、JSON 串）
	Pay(ctx context.Context, sessionToken string, amount decimal.Decimal, subject string) (string, error)

	// Notify 验证并解析回调，验签失败返回 error
	Notify(ctx context.Context, req *http.Request) (*Notification, error)
}
