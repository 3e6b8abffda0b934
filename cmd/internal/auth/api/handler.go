package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"vitalis/cmd/identity"
	"vitalis/cmd/internal/auth/session"
	"vitalis/cmd/security/password"
)

// Handler wires the HTTP auth endpoints to the credential store and the
// session manager. It parses input, runs the explicit validation step, calls
// the session core, and translates results to responses.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	pw       password.Config
	users    identity.Store
	sessions *session.Manager
	throttle *loginThrottle

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, pw password.Config, users identity.Store, sessions *session.Manager) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("authapi: nil credential store")
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session manager")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		pw:       pw,
		users:    users,
		sessions: sessions,
		throttle: newLoginThrottle(cfg.LoginIPMax, cfg.LoginIPWindow),
	}

	// Dummy hash for timing-resistant login checks on unknown emails.
	if hash, err := pw.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignup)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Existence pre-check gives the common case a clean 409; the unique index
	// still decides races.
	if _, err := h.users.FindByEmail(ctx, req.Email); err == nil {
		writeError(w, http.StatusConflict, "email_in_use", "email already in use")
		return
	} else if !identity.IsNotFound(err) {
		h.log.Error("auth.signup.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	pwHash, err := h.pw.Hash(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort),
			errors.Is(err, password.ErrPasswordTooLong),
			errors.Is(err, password.ErrWeakPassword):
			writeValidationError(w, []FieldError{{Field: "password", Message: err.Error()}})
		default:
			h.log.Error("auth.signup.hash.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	role, _ := identity.ParseRole(req.Role)
	user, err := identity.NewUser(now, req.Name, req.Email, pwHash, role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		return
	}

	if err := h.users.Create(ctx, user); err != nil {
		if identity.IsConflict(err) {
			writeError(w, http.StatusConflict, "email_in_use", "email already in use")
			return
		}
		h.log.Error("auth.signup.create.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	issued, err := h.sessions.Issue(ctx, now, user)
	if err != nil {
		h.log.Error("auth.signup.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:   toUserResponse(user),
		Tokens: toTokenPairResponse(issued),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	if !h.throttle.allow(ipKey(ip), now) {
		writeRateLimited(w, h.cfg.LoginIPWindow)
		return
	}

	user, err := h.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if identity.IsNotFound(err) {
			// Timing resistance: run a dummy verify so unknown emails cost the
			// same as wrong passwords. The response is identical either way.
			if h.dummyHash != "" {
				_, _ = h.pw.Verify(h.dummyHash, req.Password)
			}
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	ok, err := h.pw.Verify(user.PasswordHash, req.Password)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	if err := h.users.SaveLastLogin(ctx, user.ID, now); err != nil {
		// Bookkeeping only; the login still succeeds.
		h.log.Warn("auth.login.last_login.fail", "err", err, "user_id", user.ID)
	}

	issued, err := h.sessions.Issue(ctx, now, user)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:   toUserResponse(user),
		Tokens: toTokenPairResponse(issued),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Rotate(ctx, now, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidSession):
			writeError(w, http.StatusUnauthorized, "invalid_session", "invalid refresh token")
		case errors.Is(err, session.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "not_found", "user not found")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Tokens: toTokenPairResponse(issued)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}

	// Logout is best-effort cleanup, not an authentication check: unknown and
	// already-revoked tokens succeed the same as live ones.
	if tok := strings.TrimSpace(req.RefreshToken); tok != "" {
		if err := h.sessions.Revoke(r.Context(), time.Now().UTC(), tok); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.RequireAuth(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(user)})
}

// ---- helpers ----

// RequireAuth validates the bearer access token and returns its claims.
// Exported so other subsystems (vitals) can guard their endpoints with the
// same check.
func (h *Handler) RequireAuth(w http.ResponseWriter, r *http.Request) (session.AccessClaims, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
		return session.AccessClaims{}, false
	}
	claims, err := h.sessions.ValidateAccess(token, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
		return session.AccessClaims{}, false
	}
	return claims, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toTokenPairResponse(issued session.Issued) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExp,
		RefreshToken:     issued.RefreshToken,
		RefreshExpiresAt: issued.RefreshExp,
	}
}

func ipKey(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
