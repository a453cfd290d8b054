package handlers

import (
	"net/http"
	"strconv"

	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// parsePage reads limit and offset query parameters
func parsePage(r *http.Request) (repositories.Page, error) {
	page := repositories.Page{Limit: defaultPageLimit}
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, utils.NewFieldError("limit", "must be a positive integer")
		}
		page.Limit = min(limit, maxPageLimit)
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, utils.NewFieldError("offset", "must be a non-negative integer")
		}
		page.Offset = offset
	}
	return page, nil
}

// decodeAndValidate decodes the JSON body into dst and validates it, writing a
// 400 response and returning false on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// writeList writes a page of items
func writeList[T any](w http.ResponseWriter, items []T, page repositories.Page) error {
	if items == nil {
		items = []T{}
	}
	return utils.WriteOK(w, utils.ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}
