package model

import "time"

// UserType 捐赠者类型
type UserType string

const (
	UserTypeIndividual   UserType = "individual"
	UserTypeOrganization UserType = "organization"
	UserTypeCorporate    UserType = "corporate"
)

func (t UserType) IsValid() bool {
	switch t {
	case UserTypeIndividual, UserTypeOrganization, UserTypeCorporate:
		return true
	}
	return false
}

// UserStatus 账户状态
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusPending   UserStatus = "pending"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusPending, UserStatusSuspended:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// User 结构体表示用户模型
type User struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // 密码哈希不应在JSON中暴露
	UserType           UserType   `json:"userType"`
	Role               string     `json:"role"`
	Phone              string     `json:"phone,omitempty"`
	Address            *Address   `json:"address,omitempty"`
	Status             UserStatus `json:"status"`
	DonationsCount     int64      `json:"donationsCount"`
	TotalAmountDonated float64    `json:"totalAmountDonated"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
