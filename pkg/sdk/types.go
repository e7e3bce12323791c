package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EntityID is a backend identifier. The relational backend sends numbers and the
// document backend sends strings; both decode into the same canonical string.
type EntityID string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntityID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("entity id must be a number or a string: %w", err)
		}
		*id = EntityID(n.String())
		return nil
	}
}

// MarshalJSON emits numeric identifiers as JSON numbers so the relational
// backend receives the type it sent.
func (id EntityID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() && (len(id) == 1 || id[0] != '0') {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IsNumeric reports whether the identifier is made of ASCII digits only.
func (id EntityID) IsNumeric() bool {
	return isNumeric(string(id))
}

func (id EntityID) String() string { return string(id) }

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// --- Envelopes ---

// MessageEnvelope is the generic message/error wrapper returned by mutating endpoints.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope is returned by login and sign-up.
type AuthEnvelope struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Session      *APISession `json:"session,omitempty"`
	User         *APIUser    `json:"user,omitempty"`
}

// RefreshEnvelope is returned by the refresh endpoint.
type RefreshEnvelope struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionEnvelope is returned by GET /v1/sessions.
type SessionEnvelope struct {
	Session *APISession `json:"session,omitempty"`
	User    *APIUser    `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// UsersPage is one cursor page of users.
type UsersPage struct {
	Data       []APIUser `json:"data"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// --- Models ---

// APIUser is the backend user model. Role is populated by the document backend
// and RoleID by the relational one; use RoleRef to read whichever is set.
type APIUser struct {
	ID             EntityID `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Phone          *string  `json:"phone,omitempty"`
	RoleID         EntityID `json:"role_id,omitempty"`
	Role           string   `json:"role,omitempty"`
	Created        string   `json:"created,omitempty"`
	Updated        string   `json:"updated,omitempty"`
	Enable         bool     `json:"enable"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Birthday       *string  `json:"birthday,omitempty"`
	Verified       bool     `json:"verified"`
	EmailConfirmed bool     `json:"email_confirmed"`
	PhoneConfirmed bool     `json:"phone_confirmed"`
}

// RoleRef returns the raw role identifier: the role name when the backend sent
// one, otherwise the role id.
func (u *APIUser) RoleRef() string {
	if role := strings.TrimSpace(u.Role); role != "" {
		return role
	}
	return u.RoleID.String()
}

// DisplayName joins first and last name, falling back to the username.
func (u *APIUser) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// APISession is the server-side session row.
type APISession struct {
	ID       EntityID  `json:"id"`
	UserID   EntityID  `json:"user_id"`
	DeviceID *EntityID `json:"device_id,omitempty"`
	Created  string    `json:"created,omitempty"`
	Updated  string    `json:"updated,omitempty"`
	Enable   bool      `json:"enable"`
}

// APIRole is a role as listed by /v1/roles.
type APIRole struct {
	ID     EntityID `json:"id" mapstructure:"id"`
	Name   string   `json:"name" mapstructure:"name"`
	Enable bool     `json:"enable" mapstructure:"enable"`
}

// APIStatus is an entry of /v1/statuses.
type APIStatus struct {
	ID          EntityID `json:"id"`
	Description string   `json:"description"`
}

// --- Request bodies ---

// LoginRequest is the body of POST /v1/sessions/login.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceUUID string `json:"device_uuid,omitempty"`
}

// RefreshRequest is the body of POST /v1/sessions/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the body of the password change call.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// CreateUserRequest is the sign-up body of POST /v1/users.
type CreateUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Birthday   string `json:"birthday,omitempty"`
	DeviceUUID string `json:"device_uuid,omitempty"`
}

// UpdateUserRequest carries the fields to change; nil fields are left alone.
type UpdateUserRequest struct {
	Username  *string   `json:"username,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Birthday  *string   `json:"birthday,omitempty"`
	RoleID    *EntityID `json:"role_id,omitempty"`
	Enable    *bool     `json:"enable,omitempty"`
}

// RoleInput is the body for creating or updating a role.
type RoleInput struct {
	Name   string `json:"name"`
	Enable *bool  `json:"enable,omitempty"`
}

// StatusInput is the body for creating or updating a status.
type StatusInput struct {
	Description string `json:"description"`
}
