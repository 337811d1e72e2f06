package transfer

type OAuthStartRequest struct {
	Platform string `json:"platform" validate:"required"`
}

type OAuthStartResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
}

type OAuthExchangeRequest struct {
	Platform          string `json:"platform" validate:"required"`
	AuthorizationCode string `json:"authorizationCode" validate:"required"`
	State             string `json:"state" validate:"required"`
}

type ConnectionResponse struct {
	ID                int64  `json:"id"`
	Platform          string `json:"platform"`
	PlatformUsername  string `json:"platform_username"`
	PlatformAvatarURL string `json:"platform_avatar_url"`
}

type DataDeletionResponse struct {
	URL              string `json:"url"`
	ConfirmationCode string `json:"confirmation_code"`
}
