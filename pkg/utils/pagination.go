package utils

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Pagination 分页查询参数，绑定自 query string
type Pagination struct {
	Page  int `json:"page" form:"page" binding:"omitempty,min=0"`
	Limit int `json:"limit" form:"limit" binding:"omitempty,min=0"`
}

// PageResult 分页响应
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// GetPageOffset 规范化页码与条数并返回 offset, limit；
// 会回写 p，响应里的 page/limit 与实际查询一致
func (p *Pagination) GetPageOffset() (int, int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return (p.Page - 1) * p.Limit, p.Limit
}
