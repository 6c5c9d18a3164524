package response

import "github.com/mesmerism/api/internal/domain"

type TopupResponse struct {
	Topup        domain.CoinTopup `json:"topup"`
	ClientSecret string           `json:"client_secret"`
}

type PurchaseVotesResponse struct {
	Order      domain.VoteOrder `json:"order"`
	NewBalance int              `json:"new_balance"`
}

type BalanceResponse struct {
	Balance int `json:"balance"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
