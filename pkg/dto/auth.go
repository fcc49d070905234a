package dto

type ConsentURLResponse struct {
	URL string `json:"url"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ExchangeRequest struct {
	Code string `json:"code"`
}

type MagicLinkRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type VerifyMagicLinkRequest struct {
	Token string `json:"token"`
}
