package dto

// TokenRequest exchanges a tenant API key for an access token.
type TokenRequest struct {
	TenantID string `json:"tenant_id"`
	APIKey   string `json:"api_key"`
	ActorID  string `json:"actor_id"`
	Role     string `json:"role"`
}

// TokenResponse carries the signed access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
