// Package sdktest provides an in-process fake of the ReactBase API for tests.
package sdktest

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Pachada/ReactBase/pkg/sdk"
)

// Server is a fake backend. Zero configuration serves the relational shape:
// users carry a numeric role_id and /v1/roles lists role objects.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	roleNames     bool
	wrapLists     bool
	failRoles     bool
	accessTTL     time.Duration
	key           []byte
	users         map[string]*account // by id
	roles         []sdk.APIRole
	statuses      []sdk.APIStatus
	accessTokens  map[string]string // token -> user id
	refreshTokens map[string]string // token -> user id
	nextID        int

	logins, refreshes, logouts, roleLists int
}

type account struct {
	user     sdk.APIUser
	password string
}

// NewServer starts a fake backend that is closed when tb finishes.
func NewServer(tb testing.TB) *Server {
	tb.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		tb.Fatalf("generate signing key: %v", err)
	}

	s := &Server{
		accessTTL:     15 * time.Minute,
		key:           key,
		users:         make(map[string]*account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		nextID:        1,
	}
	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/sessions/login", s.handleLogin)
	r.Post("/v1/sessions/refresh", s.handleRefresh)
	r.Post("/v1/users", s.handleSignUp)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Post("/v1/sessions/logout", s.handleLogout)
		r.Get("/v1/sessions", s.handleGetSession)
		r.Post("/v1/password-recovery/change-password", s.handleChangePassword)

		r.Get("/v1/roles", s.handleListRoles)
		r.Post("/v1/roles", s.handleCreateRole)
		r.Get("/v1/roles/{id}", s.handleGetRole)
		r.Put("/v1/roles/{id}", s.handleUpdateRole)
		r.Delete("/v1/roles/{id}", s.handleDeleteRole)

		r.Get("/v1/users", s.handleListUsers)
		r.Get("/v1/users/{id}", s.handleGetUser)
		r.Put("/v1/users/{id}", s.handleUpdateUser)
		r.Delete("/v1/users/{id}", s.handleDeleteUser)

		r.Get("/v1/statuses", s.handleListStatuses)
		r.Post("/v1/statuses", s.handleCreateStatus)
		r.Put("/v1/statuses/{id}", s.handleUpdateStatus)
		r.Delete("/v1/statuses/{id}", s.handleDeleteStatus)
	})

	return r
}

// --- Fixtures ---

// AddUser registers an account. An empty ID is assigned the next numeric id.
func (s *Server) AddUser(user sdk.APIUser, password string) sdk.APIUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = sdk.EntityID(strconv.Itoa(s.nextID))
		s.nextID++
	}
	user.Enable = true
	s.users[user.ID.String()] = &account{user: user, password: password}
	return user
}

// SetRoles replaces the role catalogue.
func (s *Server) SetRoles(roles ...sdk.APIRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append([]sdk.APIRole(nil), roles...)
}

// SetStatuses replaces the status catalogue.
func (s *Server) SetStatuses(statuses ...sdk.APIStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append([]sdk.APIStatus(nil), statuses...)
}

// SetRoleNames makes /v1/roles answer with plain role names, as the document backend does.
func (s *Server) SetRoleNames(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleNames = on
}

// SetWrapLists wraps list responses in {"data": [...]}.
func (s *Server) SetWrapLists(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrapLists = on
}

// SetFailRoles makes /v1/roles answer 500.
func (s *Server) SetFailRoles(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRoles = on
}

// SetAccessTTL sets the lifetime written into the exp claim of new access tokens.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// ExpireAccessTokens invalidates every issued access token; refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = make(map[string]string)
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]string)
}

// Password returns the stored password of a user.
func (s *Server) Password(id sdk.EntityID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.users[id.String()]; ok {
		return acct.password
	}
	return ""
}

// Logins returns how many logins succeeded.
func (s *Server) Logins() int { return s.count(&s.logins) }

// Refreshes returns how many refresh calls succeeded.
func (s *Server) Refreshes() int { return s.count(&s.refreshes) }

// Logouts returns how many logout calls succeeded.
func (s *Server) Logouts() int { return s.count(&s.logouts) }

// RoleLists returns how many times /v1/roles was listed.
func (s *Server) RoleLists() int { return s.count(&s.roleLists) }

func (s *Server) count(n *int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *n
}

// --- Tokens ---

func (s *Server) issueTokens(userID string) (access, refresh string, err error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", "", err
	}
	refresh = uuid.NewString()
	s.accessTokens[access] = userID
	s.refreshTokens[refresh] = userID
	return access, refresh, nil
}

type ctxUserKey struct{}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		s.mu.Lock()
		userID, ok := s.accessTokens[token]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		r.Header.Set("X-User-Id", userID)
		r.Header.Set("X-Access-Token", token)
		next.ServeHTTP(w, r)
	})
}

// --- Session handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req sdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.users {
		if acct.user.Username == req.Username && acct.password == req.Password {
			access, refresh, err := s.issueTokens(acct.user.ID.String())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			s.logins++
			user := acct.user
			writeJSON(w, http.StatusOK, sdk.AuthEnvelope{
				AccessToken:  access,
				RefreshToken: refresh,
				Session:      &sdk.APISession{ID: sdk.EntityID(strconv.Itoa(s.logins)), UserID: user.ID, Enable: true},
				User:         &user,
			})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "invalid credentials")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req sdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refreshTokens[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	// Refresh tokens are single use.
	delete(s.refreshTokens, req.RefreshToken)
	access, refresh, err := s.issueTokens(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.refreshes++
	writeJSON(w, http.StatusOK, sdk.RefreshEnvelope{AccessToken: access, RefreshToken: refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.accessTokens, r.Header.Get("X-Access-Token"))
	s.logouts++
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[r.Header.Get("X-User-Id")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	user := acct.user
	writeJSON(w, http.StatusOK, sdk.SessionEnvelope{
		Session: &sdk.APISession{ID: "1", UserID: user.ID, Enable: true},
		User:    &user,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req sdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.users[r.Header.Get("X-User-Id")]; ok {
		acct.password = req.NewPassword
	}
	writeJSON(w, http.StatusOK, sdk.MessageEnvelope{Message: "password updated"})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req sdk.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user := s.AddUser(sdk.APIUser{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, req.Password)

	s.mu.Lock()
	defer s.mu.Unlock()
	access, refresh, err := s.issueTokens(user.ID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sdk.AuthEnvelope{AccessToken: access, RefreshToken: refresh, User: &user})
}

// --- Role handlers ---

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleLists++
	if s.failRoles {
		writeError(w, http.StatusInternalServerError, "roles unavailable")
		return
	}
	if s.roleNames {
		names := make([]string, 0, len(s.roles))
		for _, role := range s.roles {
			names = append(names, role.Name)
		}
		s.writeList(w, names)
		return
	}
	s.writeList(w, s.roles)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.roleIndex(chi.URLParam(r, "id")); i >= 0 {
		writeJSON(w, http.StatusOK, s.roles[i])
		return
	}
	writeError(w, http.StatusNotFound, "role not found")
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var in sdk.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role := sdk.APIRole{ID: sdk.EntityID(strconv.Itoa(len(s.roles) + 100)), Name: in.Name, Enable: in.Enable == nil || *in.Enable}
	s.roles = append(s.roles, role)
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var in sdk.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roleIndex(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "role not found")
		return
	}
	if in.Name != "" {
		s.roles[i].Name = in.Name
	}
	if in.Enable != nil {
		s.roles[i].Enable = *in.Enable
	}
	writeJSON(w, http.StatusOK, s.roles[i])
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roleIndex(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "role not found")
		return
	}
	s.roles = append(s.roles[:i], s.roles[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) roleIndex(id string) int {
	for i, role := range s.roles {
		if role.ID.String() == id {
			return i
		}
	}
	return -1
}

// --- User handlers ---

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	cursor := r.URL.Query().Get("cursor")

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })

	page := sdk.UsersPage{Limit: limit, Data: []sdk.APIUser{}}
	for _, id := range ids {
		if cursor != "" && !idLess(cursor, id) {
			continue
		}
		if len(page.Data) == limit {
			page.NextCursor = page.Data[len(page.Data)-1].ID.String()
			break
		}
		page.Data = append(page.Data, s.users[id].user)
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in sdk.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	u := &acct.user
	setIf(&u.Username, in.Username)
	setIf(&u.Email, in.Email)
	setIf(&u.FirstName, in.FirstName)
	setIf(&u.LastName, in.LastName)
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.Birthday != nil {
		u.Birthday = in.Birthday
	}
	if in.RoleID != nil {
		u.RoleID = *in.RoleID
	}
	if in.Enable != nil {
		u.Enable = *in.Enable
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Status handlers ---

func (s *Server) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeList(w, s.statuses)
}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var in sdk.StatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	status := sdk.APIStatus{ID: sdk.EntityID(strconv.Itoa(len(s.statuses) + 1)), Description: in.Description}
	s.statuses = append(s.statuses, status)
	writeJSON(w, http.StatusCreated, status)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in sdk.StatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.statuses {
		if s.statuses[i].ID.String() == chi.URLParam(r, "id") {
			s.statuses[i].Description = in.Description
			writeJSON(w, http.StatusOK, s.statuses[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "status not found")
}

func (s *Server) handleDeleteStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.statuses {
		if s.statuses[i].ID.String() == chi.URLParam(r, "id") {
			s.statuses = append(s.statuses[:i], s.statuses[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "status not found")
}

// --- Helpers ---

func (s *Server) writeList(w http.ResponseWriter, items any) {
	if s.wrapLists {
		writeJSON(w, http.StatusOK, map[string]any{"data": items})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, sdk.MessageEnvelope{Error: msg, ErrorCode: status})
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// idLess orders numeric ids numerically and everything else lexically.
func idLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
