package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"localdeals/internal/domain/payment/strategy"
	"localdeals/internal/pkg/config"
	"localdeals/pkg/utils"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// 压测：N 个顾客领取同一个限量 deal，网关回调并发到达且每个事件重投 dup 次。
// 预期确认数等于剩余名额，且同一 claim 只确认一次。
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	dealID := flag.String("deal", "", "deal id (active, integrated tier)")
	users := flag.Int("users", 1000, "concurrent customers")
	dup := flag.Int("dup", 3, "deliveries per payment event")
	flag.Parse()
	if *dealID == "" {
		fmt.Println("-deal is required")
		return
	}

	// JWT 密钥与网关密钥来自同一份配置
	config.LoadConfig()
	secret := config.GlobalConfig.Gateway.WebhookSecret

	before, _ := availability(*baseURL, *dealID)
	fmt.Printf("开始压测：%d 个顾客抢 deal %s (剩余名额: %d)，每个回调投递 %d 次...\n", *users, *dealID, before, *dup)

	// 1. 并发领取并发起支付
	sessions := make(chan string, *users)
	var wg sync.WaitGroup
	var claimFailed int64
	start := time.Now()
	for i := 0; i < *users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := customerToken()
			if err != nil {
				atomic.AddInt64(&claimFailed, 1)
				return
			}
			session, err := claimAndOpenSession(*baseURL, token, *dealID)
			if err != nil {
				atomic.AddInt64(&claimFailed, 1)
				return
			}
			sessions <- session
		}()
	}
	wg.Wait()
	close(sessions)

	// 2. 网关回调：每个会话一个事件，重复投递
	var delivered, rejected int64
	for session := range sessions {
		eventID := "evt_" + uuid.New().String()
		body, _ := json.Marshal(map[string]interface{}{
			"id":   eventID,
			"type": strategy.EventSessionCompleted,
			"data": map[string]string{"sessionToken": session},
		})
		for d := 0; d < *dup; d++ {
			wg.Add(1)
			go func(body []byte) {
				defer wg.Done()
				if notify(*baseURL, secret, body) {
					atomic.AddInt64(&delivered, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}(body)
		}
	}
	wg.Wait()
	duration := time.Since(start)

	after, _ := availability(*baseURL, *dealID)

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("领取失败: %d\n", claimFailed)
	fmt.Printf("回调确认收到: %d，回调失败: %d\n", delivered, rejected)
	if before >= 0 {
		fmt.Printf("名额变化: %d -> %d (占用 %d)\n", before, after, before-after)
	}
	fmt.Println("--------------------------------------------------")
}

func customerToken() (string, error) {
	id := uuid.New().String()
	token, _, err := utils.GenerateToken(id, id[:8]+"@stress.local", "customer", "")
	return token, err
}

func claimAndOpenSession(baseURL, token, dealID string) (string, error) {
	var claim struct {
		ID string `json:"id"`
	}
	if err := call(http.MethodPost, baseURL+"/deals/"+dealID+"/claims", token, map[string]string{"paymentTier": "integrated"}, &claim); err != nil {
		return "", err
	}

	var session struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := call(http.MethodPost, baseURL+"/payment/sessions", token, map[string]string{"claimId": claim.ID, "channel": strategy.ChannelSigned}, &session); err != nil {
		return "", err
	}
	return session.SessionToken, nil
}

func notify(baseURL, secret string, body []byte) bool {
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/payment/notify/signed", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(strategy.SignatureHeader, strategy.Sign(secret, time.Now(), body))
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// availability 剩余名额，不限量返回 -1
func availability(baseURL, dealID string) (int, error) {
	token, err := customerToken()
	if err != nil {
		return -1, err
	}
	var a struct {
		Remaining int `json:"remaining"`
	}
	if err := call(http.MethodGet, baseURL+"/deals/"+dealID+"/availability", token, nil, &a); err != nil {
		return -1, err
	}
	return a.Remaining, nil
}

func call(method, url, token string, payload interface{}, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return fmt.Errorf("%s %s: %d %s", method, url, env.Code, env.Message)
	}
	return json.Unmarshal(env.Data, dest)
}
