package strategy

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"localdeals/internal/pkg/config"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SignatureHeader 签名头：t=<unix 秒>,v1=<hex hmac>[,v1=...]
const SignatureHeader = "Gateway-Signature"

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionFailed    = "checkout.session.failed"

	maxEventBody = 64 << 10
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrStaleTimestamp   = errors.New("timestamp outside tolerance")
)

// SignedEvent 通用网关回调体
type SignedEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionToken string          `json:"sessionToken"`
		Amount       decimal.Decimal `json:"amount"`
	} `json:"data"`
}

// SignedStrategy HMAC-SHA256 签名的通用网关
type SignedStrategy struct {
	config config.GatewayConfig
	now    func() time.Time
}

func NewSignedStrategy(cfg config.GatewayConfig) (*SignedStrategy, error) {
	if cfg.WebhookSecret == "" {
		return nil, errors.New("gateway webhook secret missing")
	}
	return &SignedStrategy{config: cfg, now: time.Now}, nil
}

// Pay 返回托管收银台地址
func (s *SignedStrategy) Pay(ctx context.Context, sessionToken string, amount decimal.Decimal, subject string) (string, error) {
	if s.config.CheckoutURL == "" {
		return "", errors.New("gateway checkout url missing")
	}
	u, err := url.Parse(s.config.CheckoutURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("session", sessionToken)
	q.Set("amount", amount.StringFixed(2))
	q.Set("subject", subject)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *SignedStrategy) Notify(ctx context.Context, req *http.Request) (*Notification, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxEventBody))
	if err != nil {
		return nil, fmt.Errorf("read event body: %w", err)
	}
	if err := s.verify(req.Header.Get(SignatureHeader), body); err != nil {
		return nil, err
	}

	var evt SignedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if evt.ID == "" || evt.Data.SessionToken == "" {
		return nil, errors.New("event without id or session token")
	}

	return &Notification{
		EventID:      evt.ID,
		SessionToken: evt.Data.SessionToken,
		Paid:         evt.Type == EventSessionCompleted,
		Amount:       evt.Data.Amount,
	}, nil
}

func (s *SignedStrategy) verify(header string, body []byte) error {
	if header == "" {
		return ErrMissingSignature
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrMissingSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", ts, ErrBadSignature)
	}
	if s.config.Tolerance > 0 {
		skew := s.now().Sub(time.Unix(unix, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > s.config.Tolerance {
			return ErrStaleTimestamp
		}
	}

	expected := []byte(computeSignature(s.config.WebhookSecret, ts, body))
	for _, sig := range sigs {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}
	return ErrBadSignature
}

// Sign 生成签名头，供网关模拟与压测使用
func Sign(secret string, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(secret, ts, body)
}

func computeSignature(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ PaymentStrategy = (*SignedStrategy)(nil)
