package strategy

import (
	"context"
	"errors"
	"localdeals/internal/pkg/config"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/app"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy(ctx context.Context, cfg config.WechatPayConfig) (*WechatStrategy, error) {
	if cfg.MchID == "" {
		return nil, errors.New("wechat pay config missing")
	}

	// 1. 加载商户私钥
	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	// 2. 初始化 Client，同时注册平台证书下载器
	client, err := core.NewClient(ctx,
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key))
	if err != nil {
		return nil, err
	}

	// 3. 证书管理器用于回调验签
	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{
		client:  client,
		config:  cfg,
		handler: handler,
	}, nil
}

func (s *WechatStrategy) Pay(ctx context.Context, sessionToken string, amount decimal.Decimal, subject string) (string, error) {
	req := app.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(subject),
		OutTradeNo:  core.String(sessionToken),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &app.Amount{
			Total: core.Int64(amount.Shift(2).Round(0).IntPart()), // 分
		},
	}

	svc := app.AppApiService{Client: s.client}
	resp, _, err := svc.Prepay(ctx, req)
	if err != nil {
		return "", err
	}
	return *resp.PrepayId, nil
}

// Notify 微信回调是 JSON，签名在 Header 中
func (s *WechatStrategy) Notify(ctx context.Context, req *http.Request) (*Notification, error) {
	transaction := new(payments.Transaction)
	notifyReq, err := s.handler.ParseNotifyRequest(ctx, req, transaction)
	if err != nil {
		return nil, err
	}
	if transaction.OutTradeNo == nil {
		return nil, errors.New("wechat notify without out_trade_no")
	}

	n := &Notification{
		EventID:      notifyReq.ID,
		SessionToken: *transaction.OutTradeNo,
		Paid:         transaction.TradeState != nil && *transaction.TradeState == "SUCCESS",
	}
	if transaction.Amount != nil && transaction.Amount.Total != nil {
		n.Amount = decimal.New(*transaction.Amount.Total, -2)
	}
	return n, nil
}

var _ PaymentStrategy = (*WechatStrategy)(nil)
