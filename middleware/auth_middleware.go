package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/upb/crm-control-plane/auth"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.ParsedClaims, error)
}

// UserLoader loads the user a token was issued to
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	users     UserLoader
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, users UserLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		users:     users,
		logger:    logger,
	}
}

// RequireAuth validates the access token and loads the user, team included, into the context
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, services.GetErrorMessage(err))
			return
		}

		user, err := m.users.GetByID(ctx, claims.UserID)
		if err != nil {
			if services.IsNotFoundError(err) {
				m.logger.Warn("token subject does not exist",
					zap.String("request_id", requestID),
					zap.String("user_id", claims.UserID.String()))
				_ = utils.WriteUnauthorized(w, "User not found.")
				return
			}
			m.logger.Error("failed to load authenticated user",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithUser(ctx, user)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID.String()),
			zap.String("team", user.Team.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTeam rejects users outside teams. It must run after RequireAuth.
func (m *AuthMiddleware) RequireTeam(teams ...models.Team) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			user := GetUserFromContext(ctx)
			if user == nil {
				m.logger.Error("user not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, "")
				return
			}

			if !lo.Contains(teams, user.Team) {
				m.logger.Warn("team not allowed",
					zap.String("request_id", requestID),
					zap.String("team", user.Team.String()))
				_ = utils.WriteForbidden(w, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the bearer token, falling back to the auth_token cookie
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
