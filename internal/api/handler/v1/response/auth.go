package response

import "github.com/mesmerism/api/internal/domain"

type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         domain.User `json:"user"`
}

type RefreshResponse struct {
	Token string `json:"token"`
}
