package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"streamcompass/models"
	"streamcompass/services/accounts"
	"streamcompass/services/sessions"
)

// AccountService is the account surface the auth handler needs.
type AccountService interface {
	SignUp(email, password string) (models.Account, error)
	Authenticate(email, password string) (models.Account, error)
	Get(id string) (models.Account, bool)
	UpdatePassword(id, newPassword string) error
	ResetPassword(email string) (string, error)
	Delete(id string) error
}

// FavoritesPurger drops a user's favorites collection when the account goes
// away. *favorites.Service satisfies it.
type FavoritesPurger interface {
	PurgeUser(ctx context.Context, userID string) (int, error)
}

// SessionService is the session surface the auth handler needs.
type SessionService interface {
	Create(accountID, userAgent, ipAddress string) (models.Session, error)
	Validate(token string) (models.Session, error)
	Refresh(token string) (models.Session, error)
	Revoke(token string) error
	RevokeAllForAccount(accountID string) int
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts  AccountService
	sessions  SessionService
	favorites FavoritesPurger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accountsSvc AccountService, sessionsSvc SessionService, favoritesSvc FavoritesPurger) *AuthHandler {
	return &AuthHandler{
		accounts:  accountsSvc,
		sessions:  sessionsSvc,
		favorites: favoritesSvc,
	}
}

// CredentialsRequest is the body of signup and login requests.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the body returned by login, signup and refresh.
type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// AccountResponse represents account info response.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authErrorMessage maps known failure conditions to the human-readable
// strings the client shows verbatim; anything else gets the generic line.
func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, accounts.ErrEmailRequired):
		return "Please enter email and password."
	case errors.Is(err, accounts.ErrPasswordRequired):
		return "Please enter email and password."
	case errors.Is(err, accounts.ErrEmailInvalid):
		return "Invalid email format."
	case errors.Is(err, accounts.ErrEmailExists):
		return "Email already in use."
	case errors.Is(err, accounts.ErrPasswordTooShort):
		return "Password must be at least 6 characters."
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, accounts.ErrAccountNotFound):
		return "User not found."
	default:
		return "Something went wrong. Please try again."
	}
}

func authErrorStatus(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, accounts.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrEmailRequired),
		errors.Is(err, accounts.ErrPasswordRequired),
		errors.Is(err, accounts.ErrEmailInvalid),
		errors.Is(err, accounts.ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErrorStatus(err))
	json.NewEncoder(w).Encode(map[string]string{"error": authErrorMessage(err)})
}

// SignUp registers a new account and opens a session for it.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.SignUp(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	session, err := h.sessions.Create(account.ID, r.Header.Get("User-Agent"), getClientIPAddress(r))
	if err != nil {
		log.Printf("[auth] failed to create session after signup: %v", err)
		http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
		return
	}

	writeSessionResponse(w, session, account)
}

// Login authenticates a user and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	session, err := h.sessions.Create(account.ID, r.Header.Get("User-Agent"), getClientIPAddress(r))
	if err != nil {
		log.Printf("[auth] failed to create session: %v", err)
		http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
		return
	}

	writeSessionResponse(w, session, account)
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "no session token"}`, http.StatusBadRequest)
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Already-gone sessions are fine, the client just wants out
		if err != sessions.ErrSessionNotFound {
			http.Error(w, `{"error": "failed to revoke session"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

// Me returns the current authenticated account info.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired session"})
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	resp := AccountResponse{
		ID:    account.ID,
		Email: account.Email,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Refresh extends the session expiration.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Refresh(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired session"})
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	writeSessionResponse(w, session, account)
}

// ChangePasswordRequest represents password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword changes the current account's password and revokes the
// account's other sessions.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired session"})
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	if _, err := h.accounts.Authenticate(account.Email, req.CurrentPassword); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "current password is incorrect"})
		return
	}

	if err := h.accounts.UpdatePassword(session.AccountID, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}

	h.sessions.RevokeAllForAccount(session.AccountID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "password changed"})
}

// DeleteAccount removes the current account along with its favorites
// collection and every open session.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired session"})
		return
	}

	removed, err := h.favorites.PurgeUser(r.Context(), session.AccountID)
	if err != nil {
		log.Printf("[auth] failed to purge favorites for %s: %v", session.AccountID, err)
		http.Error(w, `{"error": "failed to delete account data"}`, http.StatusBadGateway)
		return
	}

	if err := h.accounts.Delete(session.AccountID); err != nil {
		writeAuthError(w, err)
		return
	}

	revoked := h.sessions.RevokeAllForAccount(session.AccountID)
	log.Printf("[auth] deleted account %s (%d favorites, %d sessions)", session.AccountID, removed, revoked)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "account deleted"})
}

// ResetPasswordRequest is the body of the password reset request.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPassword generates a temporary password for the account. With no
// mail delivery wired up the temporary password is returned in the
// response body.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	temp, err := h.accounts.ResetPassword(req.Email)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"temporaryPassword": temp})
}

func writeSessionResponse(w http.ResponseWriter, session models.Session, account models.Account) {
	resp := SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		AccountID: account.ID,
		Email:     account.Email,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// getClientIPAddress extracts the client IP address from the request.
func getClientIPAddress(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
