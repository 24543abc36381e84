// Package fakeapi is an in-process Extra Chill API used by tests. Refresh
// tokens are single use and rotate on every refresh.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// DefaultAccessTTL is the lifetime of issued access tokens
const DefaultAccessTTL = 15 * time.Minute

// Server is a fake REST API
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	seq         int
	users       map[string]*account
	access      map[string]accessGrant
	refresh     map[string]string // refresh token -> user id
	calls       []string
	accessTTL   time.Duration
	refreshWait time.Duration
	logoutFails bool
	forced401   map[string]int
	googleToken string
}

type account struct {
	ID          int
	Identifier  string
	Email       string
	Password    string
	Username    string
	Onboarded   bool
	IsArtist    bool
	IsPro       bool
	DisplayName string
}

type accessGrant struct {
	userID    string
	expiresAt time.Time
}

// New starts a fake API with a single user "jamie" / "hunter2"
func New() *Server {
	s := &Server{
		users:       make(map[string]*account),
		access:      make(map[string]accessGrant),
		refresh:     make(map[string]string),
		forced401:   make(map[string]int),
		accessTTL:   DefaultAccessTTL,
		googleToken: "google-id-token",
	}
	s.AddUser("jamie", "jamie@example.com", "hunter2")

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/google", s.handleGoogle).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/config/oauth", s.handleOAuthConfig).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/auth/browser-handoff", s.handleHandoff).Methods(http.MethodPost)
	authed.HandleFunc("/activity", s.handleActivity).Methods(http.MethodGet)
	authed.HandleFunc("/users/onboarding", s.handleOnboardingStatus).Methods(http.MethodGet)
	authed.HandleFunc("/users/onboarding", s.handleOnboardingSubmit).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers an account that can log in with identifier or email
func (s *Server) AddUser(identifier, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	acct := &account{
		ID:          s.seq,
		Identifier:  identifier,
		Email:       email,
		Password:    password,
		Username:    identifier,
		Onboarded:   true,
		DisplayName: strings.ToUpper(identifier[:1]) + identifier[1:],
	}
	s.users[identifier] = acct
	s.users[email] = acct
}

// Issue mints a token pair for identifier whose access token expires after ttl
func (s *Server) Issue(identifier string, ttl time.Duration) (access, refresh string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.users[identifier]
	return s.issueLocked(strconv.Itoa(acct.ID), ttl)
}

// SetAccessTTL changes the lifetime of access tokens issued from now on
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// SetRefreshDelay makes every refresh call sleep before answering
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshWait = d
}

// SetLogoutFails makes logout answer 500
func (s *Server) SetLogoutFails(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutFails = fail
}

// RevokeRefreshTokens invalidates every outstanding refresh token
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]string)
}

// RevokeAccessToken invalidates a single access token server side
func (s *Server) RevokeAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, token)
}

// ForceUnauthorized answers 401 to the next n requests for path
func (s *Server) ForceUnauthorized(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced401[path] = n
}

// ValidAccessToken reports whether token is currently accepted
func (s *Server) ValidAccessToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant, ok := s.access[token]
	return ok && time.Now().Before(grant.expiresAt)
}

// Calls returns the recorded "METHOD /path" log in arrival order
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many requests hit path
func (s *Server) CallCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.HasSuffix(c, " "+path) {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) issueLocked(userID string, ttl time.Duration) (string, string, time.Time) {
	s.seq++
	access := fmt.Sprintf("access-%d", s.seq)
	refresh := fmt.Sprintf("refresh-%d", s.seq)
	expiresAt := time.Now().Add(ttl).Truncate(time.Second)
	s.access[access] = accessGrant{userID: userID, expiresAt: expiresAt}
	s.refresh[refresh] = userID
	return access, refresh, expiresAt
}

func (s *Server) userByID(id string) *account {
	for _, acct := range s.users {
		if strconv.Itoa(acct.ID) == id {
			return acct
		}
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		if n := s.forced401[r.URL.Path]; n > 0 {
			s.forced401[r.URL.Path] = n - 1
			s.mu.Unlock()
			writeError(w, http.StatusUnauthorized, "rest_forbidden", "Token rejected")
			return
		}
		grant, ok := s.access[token]
		s.mu.Unlock()

		if !ok || !time.Now().Before(grant.expiresAt) {
			writeError(w, http.StatusUnauthorized, "invalid_token", "Access token is invalid or expired")
			return
		}

		r.Header.Set("X-Fake-User", grant.userID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) tokenPayload(acct *account, ttl time.Duration) map[string]interface{} {
	access, refresh, expiresAt := s.issueLocked(strconv.Itoa(acct.ID), ttl)
	return map[string]interface{}{
		"access_token":       access,
		"access_expires_at":  expiresAt.UTC().Format(time.RFC3339),
		"refresh_token":      refresh,
		"refresh_expires_at": expiresAt.Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"user":               userPayload(acct),
	}
}

func userPayload(acct *account) map[string]interface{} {
	return map[string]interface{}{
		"id":           acct.ID,
		"username":     acct.Username,
		"display_name": acct.DisplayName,
		"avatar_url":   "https://extrachill.com/avatars/" + acct.Username + ".png",
		"profile_url":  "https://community.extrachill.com/u/" + acct.Username,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		DeviceID   string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "identifier, password and device_id are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[body.Identifier]
	if !ok || acct.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password.")
		return
	}
	writeJSON(w, http.StatusOK, s.tokenPayload(acct, s.accessTTL))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email              string `json:"email"`
		Password           string `json:"password"`
		PasswordConfirm    string `json:"password_confirm"`
		DeviceID           string `json:"device_id"`
		RegistrationSource string `json:"registration_source"`
		RegistrationMethod string `json:"registration_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed registration")
		return
	}
	if body.Password != body.PasswordConfirm {
		writeError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
		return
	}
	if r.Header.Get("ExtraChill-Client") != "app" || body.RegistrationMethod != "standard" {
		writeError(w, http.StatusBadRequest, "invalid_source", "Unknown registration client.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[body.Email]; exists {
		writeError(w, http.StatusConflict, "existing_user", "An account with that email already exists.")
		return
	}
	s.seq++
	name := strings.SplitN(body.Email, "@", 2)[0]
	acct := &account{ID: s.seq, Identifier: name, Email: body.Email, Password: body.Password, Username: name, DisplayName: name}
	s.users[body.Email] = acct
	s.users[name] = acct

	payload := s.tokenPayload(acct, s.accessTTL)
	payload["onboarding_completed"] = false
	writeJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken            string `json:"id_token"`
		DeviceID           string `json:"device_id"`
		RegistrationMethod string `json:"registration_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.IDToken != s.googleToken || body.RegistrationMethod != "google" {
		writeError(w, http.StatusUnauthorized, "invalid_google_token", "Google token could not be verified.")
		return
	}
	acct := s.users["jamie"]
	writeJSON(w, http.StatusOK, s.tokenPayload(acct, s.accessTTL))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
		DeviceID     string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token and device_id are required")
		return
	}

	s.mu.Lock()
	wait := s.refreshWait
	s.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[body.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token", "Refresh token is invalid or already used.")
		return
	}
	// Single use: the presented token dies with this call
	delete(s.refresh, body.RefreshToken)

	acct := s.userByID(userID)
	writeJSON(w, http.StatusOK, s.tokenPayload(acct, s.accessTTL))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logoutFails {
		writeError(w, http.StatusInternalServerError, "logout_failed", "Could not revoke session.")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	delete(s.access, token)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) currentUser(r *http.Request) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByID(r.Header.Get("X-Fake-User"))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := s.currentUser(r)
	payload := userPayload(acct)
	payload["email"] = acct.Email
	payload["registered"] = "2024-03-01T12:00:00Z"
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHandoff(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RedirectURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_redirect", "redirect_url is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"handoff_url": "https://extrachill.com/handoff?token=once&redirect=" + body.RedirectURL,
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	start, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
	if start <= 0 {
		start = 100
	}

	items := make([]map[string]interface{}, 0, limit)
	for id := start; id > start-limit && id > 0; id-- {
		items = append(items, map[string]interface{}{
			"id":         id,
			"created_at": "2025-06-01T10:00:00Z",
			"type":       "post_published",
			"blog_id":    1,
			"actor_id":   1,
			"summary":    fmt.Sprintf("Post %d published", id),
			"visibility": "public",
			"primary_object": map[string]interface{}{
				"object_type": "post",
				"blog_id":     1,
				"id":          strconv.Itoa(id),
			},
			"data": map[string]interface{}{
				"post_type": "post",
				"post_id":   id,
				"card": map[string]string{
					"title":     fmt.Sprintf("Post %d", id),
					"permalink": fmt.Sprintf("https://extrachill.com/p/%d", id),
				},
			},
		})
	}

	var next interface{}
	if start-limit > 0 {
		next = start - limit
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "next_cursor": next})
}

func (s *Server) handleOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	acct := s.currentUser(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed": acct.Onboarded,
		"fields": map[string]interface{}{
			"username":             acct.Username,
			"user_is_artist":       acct.IsArtist,
			"user_is_professional": acct.IsPro,
		},
	})
}

func (s *Server) handleOnboardingSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username           string `json:"username"`
		UserIsArtist       bool   `json:"user_is_artist"`
		UserIsProfessional bool   `json:"user_is_professional"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		writeError(w, http.StatusBadRequest, "invalid_username", "Please choose a username")
		return
	}

	acct := s.currentUser(r)
	s.mu.Lock()
	acct.Username = body.Username
	acct.IsArtist = body.UserIsArtist
	acct.IsPro = body.UserIsProfessional
	acct.Onboarded = true
	payload := userPayload(acct)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": payload})
}

func (s *Server) handleOAuthConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"google": map[string]interface{}{
			"enabled":       true,
			"web_client_id": "web-client.apps.googleusercontent.com",
			"ios_client_id": "ios-client.apps.googleusercontent.com",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}
