package dto

// RegisterRequest HTTP层注册请求
// role为空时注册为staff
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"kasir2"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"kasir123"`
	FullName string `json:"full_name" binding:"max=100" example:"Kasir Dua"`
	Role     string `json:"role" binding:"omitempty,oneof=admin manager cashier staff" example:"cashier"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"kasir"`
	Password string `json:"password" binding:"required" example:"kasir123"`
}

// RefreshRequest 刷新Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse 刷新Token响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
