package domain

import "time"

// Identity is the authenticated subject carried in every session token.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// Principal is an authenticated caller: the identity plus the device session it signed in on.
type Principal struct {
	Identity
	DeviceID string
}

// TokenPair is issued at signin/signup. Both tokens share DeviceID.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	DeviceID         string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessGrant is the result of a refresh: a new access token for an existing device session.
type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
	Principal   Principal
}
