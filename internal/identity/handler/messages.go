package handler

// SigninRequest is the Signin RPC input.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the Signup RPC input.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPairResponse is returned by Signin and Signup. Expiries are Unix-epoch milliseconds.
type TokenPairResponse struct {
	AccessToken        string `json:"accessToken"`
	RefreshToken       string `json:"refreshToken"`
	DeviceID           string `json:"deviceId"`
	AccessExpiresAtMs  int64  `json:"accessExpiresAt"`
	RefreshExpiresAtMs int64  `json:"refreshExpiresAt"`
}

// RefreshRequest is the Refresh RPC input.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse carries a new access token for the same device.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAtMs int64  `json:"expiresAt"`
}

// LogoutRequest is empty; the device comes from the caller's access token.
type LogoutRequest struct{}

// LogoutResponse is empty.
type LogoutResponse struct{}

// InfoRequest is empty.
type InfoRequest struct{}

// InfoResponse describes the authenticated caller.
type InfoResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}
