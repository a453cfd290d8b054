package handlers

import (
	"net/http"

	"github.com/upb/crm-control-plane/middleware"
	"github.com/upb/crm-control-plane/utils"
)

// HandleCurrentUser handles GET /api/v1/users/me, returning the authenticated user with its team
func HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	_ = utils.WriteOK(w, user)
}
