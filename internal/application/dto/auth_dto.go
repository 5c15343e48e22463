package dto

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=180"`
	Password string `json:"password" validate:"required,max=1024"`
}

// TokenResponse 访问令牌响应 DTO
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PrincipalResponse 当前主体 DTO
type PrincipalResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}
