// Package docs 注册 OpenAPI 描述，供 /swagger 页面读取
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/deals/{id}/claims": {"post": {"tags": ["Claim"], "summary": "领取 deal", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/deals/{id}/availability": {"get": {"tags": ["Deal"], "summary": "查询 deal 剩余名额", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/claims": {"get": {"tags": ["Claim"], "summary": "我的有效 claim", "responses": {"200": {"description": "OK"}}}},
        "/claims/{id}": {
            "get": {"tags": ["Claim"], "summary": "claim 详情", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Claim"], "summary": "取消 claim", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/claims/{id}/transfer": {"post": {"tags": ["Claim"], "summary": "转赠 claim", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/claims/{id}/transfers": {"get": {"tags": ["Claim"], "summary": "转赠记录", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/vendor/claims/pending": {"get": {"tags": ["Vendor"], "summary": "待确认的到店支付", "responses": {"200": {"description": "OK"}}}},
        "/vendor/claims/{id}/confirm": {"post": {"tags": ["Vendor"], "summary": "确认到店支付", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/vendor/scan/{token}": {"get": {"tags": ["Vendor"], "summary": "扫码查询", "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/vendor/redeem": {"post": {"tags": ["Vendor"], "summary": "核销", "responses": {"200": {"description": "OK"}}}},
        "/points": {"get": {"tags": ["Points"], "summary": "积分余额、最近流水与兑换资格", "responses": {"200": {"description": "OK"}}}},
        "/points/entries": {"get": {"tags": ["Points"], "summary": "积分流水", "parameters": [{"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/points/redeem": {"post": {"tags": ["Points"], "summary": "积分兑换账户余额", "responses": {"200": {"description": "OK"}}}},
        "/admin/points/adjust": {"post": {"tags": ["Points"], "summary": "管理员补发或冲正积分", "responses": {"200": {"description": "OK"}}}},
        "/payment/sessions": {"post": {"tags": ["Payment"], "summary": "为线上支付的 claim 发起支付", "responses": {"200": {"description": "OK"}}}},
        "/payment/notify/alipay": {"post": {"tags": ["Payment"], "summary": "支付宝回调", "security": [], "responses": {"200": {"description": "OK"}}}},
        "/payment/notify/wechat": {"post": {"tags": ["Payment"], "summary": "微信支付回调", "security": [], "responses": {"200": {"description": "OK"}}}},
        "/payment/notify/signed": {"post": {"tags": ["Payment"], "summary": "通用签名网关回调", "security": [], "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["Common"], "summary": "健康检查", "security": [], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Local Deals API",
	Description:      "Deal claims, redemption and points ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
