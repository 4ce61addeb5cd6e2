package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

type AuthStatusResponse struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	Username        *string `json:"username"`
	BackendReached  bool    `json:"backend_reached"`
}
