package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleStaff   Role = "staff"
)

// ParseRole 空字符串视为staff，未知角色返回false
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "":
		return RoleStaff, true
	case RoleAdmin, RoleManager, RoleCashier, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// User 用户实体（聚合根）
// PasswordHash为bcrypt哈希，不对外暴露
type User struct {
	ID           uint
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser 创建新用户（工厂方法）
func NewUser(username, hashedPassword, fullName string, role Role) *User {
	now := time.Now()
	return &User{
		Username:     username,
		PasswordHash: hashedPassword,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasRole 是否属于给定角色之一
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
