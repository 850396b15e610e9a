// Package token 生成核销凭证：扫码 token 与人工输入的核销码
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	scanTokenBytes = 32
	codeLength     = 8
	// 去掉 0/O、1/I 等易混淆字符，长度 32 保证按位取模无偏
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewScanToken 生成嵌入二维码 URL 的扫码 token (256 bit)
func NewScanToken() string {
	buf := make([]byte, scanTokenBytes)
	mustRead(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// NewRedemptionCode 生成 8 位核销码，供扫码失败时人工输入
func NewRedemptionCode() string {
	buf := make([]byte, codeLength)
	mustRead(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)&(len(codeAlphabet)-1)]
	}
	return string(buf)
}

// IsRedemptionCode 校验核销码格式
func IsRedemptionCode(s string) bool {
	if len(s) != codeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !validCodeChar(s[i]) {
			return false
		}
	}
	return true
}

func validCodeChar(c byte) bool {
	for i := 0; i < len(codeAlphabet); i++ {
		if codeAlphabet[i] == c {
			return true
		}
	}
	return false
}

// 熵源不可用属于进程级故障，直接 panic
func mustRead(buf []byte) {
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("token: entropy source failure: %v", err))
	}
}
