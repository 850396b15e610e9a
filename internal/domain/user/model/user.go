package model

import baseModel "localdeals/pkg/model"

// 角色，由身份服务写入 token
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// User 身份服务同步过来的用户目录，本服务只读
type User struct {
	baseModel.BaseModel
	Email    string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name     string  `gorm:"type:varchar(100)" json:"name"`
	Role     string  `gorm:"type:varchar(16);not null" json:"role"`
	VendorID *string `gorm:"type:uuid" json:"vendorId,omitempty"`
}
