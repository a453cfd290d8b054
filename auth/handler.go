package auth

import (
	"net/http"
	"time"

	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the access token for browser clients
const SessionCookieName = "auth_token"

// TokenIssuer mints access tokens
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// SessionResponse is returned when a session cookie is set
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler exchanges an authenticated request for a session cookie and clears it again
type Handler struct {
	issuer      TokenIssuer
	currentUser func(r *http.Request) *models.User
	secure      bool
	logger      *zap.Logger
}

// NewHandler creates a session handler. currentUser resolves the user the
// authentication middleware stored on the request.
func NewHandler(issuer TokenIssuer, currentUser func(r *http.Request) *models.User, secureCookies bool, logger *zap.Logger) *Handler {
	return &Handler{
		issuer:      issuer,
		currentUser: currentUser,
		secure:      secureCookies,
		logger:      logger,
	}
}

// HandleCreateSession handles POST /api/v1/auth/session
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	token, expiresAt, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue session token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})

	_ = utils.WriteOK(w, SessionResponse{ExpiresAt: expiresAt})
}

// HandleDeleteSession handles DELETE /api/v1/auth/session
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	utils.WriteNoContent(w)
}
