package sdk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Status is the authentication status of a session record.
type Status string

const (
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// User is the identity snapshot kept in a session record.
type User struct {
	ID       EntityID `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	RoleID   EntityID `json:"roleId,omitempty"`
	RoleName string   `json:"roleName"`
}

// SessionRecord is the persisted unit of authentication state.
type SessionRecord struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Status       Status    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
}

// AnonymousRecord returns the record of a signed-out client.
func AnonymousRecord() SessionRecord {
	return SessionRecord{Status: StatusAnonymous}
}

// IsAuthenticated reports whether the record satisfies the authenticated invariant.
func (r SessionRecord) IsAuthenticated() bool {
	return r.Status == StatusAuthenticated && r.User != nil && r.AccessToken != ""
}

// IsExpired reports whether the access token is past its expiry. Tokens
// without a known expiry never report expired.
func (r SessionRecord) IsExpired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// OAuth2Token exposes the record's tokens as an oauth2.Token.
func (r SessionRecord) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: r.RefreshToken,
		Expiry:       r.ExpiresAt,
	}
}

// newUser builds the stored identity from the wire user and the resolved role.
func newUser(u *APIUser, roleName string) *User {
	return &User{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Email:    u.Email,
		RoleID:   u.RoleID,
		RoleName: roleName,
	}
}

// tokenExpiry reads the exp claim of a JWT access token without verifying it;
// the server is the authority on validity. Opaque tokens yield the zero time.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
