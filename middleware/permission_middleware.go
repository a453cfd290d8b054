package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/services/audit"
	"github.com/upb/crm-control-plane/services/policy"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

// DenialRecorder records refused requests to the audit trail
type DenialRecorder interface {
	LogDenial(d audit.Denial) error
}

// Loader resolves the record a detail route points at
type Loader[T any] func(ctx context.Context, id uuid.UUID) (T, error)

// PermissionMiddleware enforces policy permissions on resource routes
type PermissionMiddleware struct {
	auditor DenialRecorder
	logger  *zap.Logger
}

// NewPermissionMiddleware creates a new PermissionMiddleware
func NewPermissionMiddleware(auditor DenialRecorder, logger *zap.Logger) *PermissionMiddleware {
	return &PermissionMiddleware{
		auditor: auditor,
		logger:  logger,
	}
}

// RequirePermission runs the request-level check of perm and, on routes carrying an
// {id} parameter, resolves the record once through load and runs the object-level
// check. The resolved record is stored in the context for the handler.
// It must run after RequireAuth and be registered inline so chi has resolved {id}.
func RequirePermission[T any](m *PermissionMiddleware, resource policy.Resource, perm policy.Permission[T], load Loader[T]) func(http.Handler) http.Handler {
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

			req := policy.NewRequest(user, r.Method)

			allowed, err := perm.HasPermission(ctx, req)
			if err != nil {
				m.logger.Error("failed to evaluate request permission",
					zap.String("request_id", requestID),
					zap.String("resource", string(resource)),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}
			if !allowed {
				m.deny(r, models.AuditActionPermissionDenied, resource, nil, policy.RuleRequestLevel, "")
				_ = utils.WriteForbidden(w, "")
				return
			}

			rawID := chi.URLParam(r, "id")
			if rawID == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := utils.ParseUUID(rawID)
			if err != nil {
				_ = utils.WriteBadRequest(w, "Invalid identifier.", map[string]interface{}{"id": rawID})
				return
			}

			obj, err := load(ctx, id)
			if err != nil {
				if services.IsNotFoundError(err) {
					_ = utils.WriteNotFound(w, "")
					return
				}
				m.logger.Error("failed to load record",
					zap.String("request_id", requestID),
					zap.String("resource", string(resource)),
					zap.String("id", id.String()),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}

			outcome, err := policy.ExplainPermission(ctx, perm, req, obj)
			if err != nil {
				if services.IsForbiddenError(err) {
					reason := services.GetErrorMessage(err)
					m.deny(r, models.AuditActionForbiddenWithReason, resource, &id, outcome.Rule, reason)
					_ = utils.WriteForbidden(w, reason)
					return
				}
				m.logger.Error("failed to evaluate object permission",
					zap.String("request_id", requestID),
					zap.String("resource", string(resource)),
					zap.String("rule", outcome.Rule),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}
			if !outcome.Allowed {
				m.deny(r, models.AuditActionObjectPermissionDenied, resource, &id, outcome.Rule, "")
				_ = utils.WriteForbidden(w, "")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithObject(ctx, obj)))
		})
	}
}

// deny logs the refusal and queues it for the audit trail. A full audit buffer
// never changes the response.
func (m *PermissionMiddleware) deny(r *http.Request, action models.AuditAction, resource policy.Resource, id *uuid.UUID, rule, reason string) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)
	user := GetUserFromContext(ctx)

	m.logger.Warn("permission denied",
		zap.String("request_id", requestID),
		zap.String("action", string(action)),
		zap.String("resource", string(resource)),
		zap.String("method", r.Method),
		zap.String("team", user.Team.String()),
		zap.String("rule", rule),
		zap.String("reason", reason))

	if m.auditor == nil {
		return
	}
	err := m.auditor.LogDenial(audit.Denial{
		Action:     action,
		User:       user,
		Resource:   string(resource),
		ResourceID: id,
		Method:     r.Method,
		Rule:       rule,
		Reason:     reason,
		RequestID:  requestID,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		m.logger.Warn("failed to queue audit event",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
