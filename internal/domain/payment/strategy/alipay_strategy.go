package strategy

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/pkg/config"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/smartwalle/alipay/v3"
)

type AlipayStrategy struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayStrategy(cfg config.AlipayConfig) (*AlipayStrategy, error) {
	if cfg.AppID == "" {
		return nil, errors.New("alipay config missing")
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 加载支付宝公钥 (用于验证签名)
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayStrategy{
		client: client,
		config: cfg,
	}, nil
}

// Pay 发起支付 (App支付)
func (s *AlipayStrategy) Pay(ctx context.Context, sessionToken string, amount decimal.Decimal, subject string) (string, error) {
	p := alipay.TradeAppPay{}
	p.NotifyURL = s.config.NotifyURL
	p.Subject = subject
	p.OutTradeNo = sessionToken
	p.TotalAmount = amount.StringFixed(2)
	p.ProductCode = "QUICK_MSECURITY_PAY" // App支付产品码

	// 生成签名后的参数字符串
	return s.client.TradeAppPay(p)
}

// Notify 支付宝回调是 POST Form 格式
func (s *AlipayStrategy) Notify(ctx context.Context, req *http.Request) (*Notification, error) {
	if err := req.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse alipay form: %w", err)
	}

	// 1. 验证签名
	noti, err := s.client.DecodeNotification(req.Form)
	if err != nil {
		return nil, err
	}

	// 2. TRADE_SUCCESS 或 TRADE_FINISHED 表示成功
	paid := noti.TradeStatus == alipay.TradeStatusSuccess || noti.TradeStatus == alipay.TradeStatusFinished

	// 3. 解析金额
	amount, _ := decimal.NewFromString(noti.TotalAmount)

	return &Notification{
		EventID:      noti.NotifyId,
		SessionToken: noti.OutTradeNo,
		Paid:         paid,
		Amount:       amount,
	}, nil
}

// 确保实现了接口
var _ PaymentStrategy = (*AlipayStrategy)(nil)
