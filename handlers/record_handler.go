package handlers

import (
	"context"
	"net/http"

	"github.com/upb/crm-control-plane/middleware"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services/crm"
	"github.com/upb/crm-control-plane/utils"
	"go.uber.org/zap"
)

// RecordService is the CRM service behind a RecordHandler. In is the full
// representation used by POST and PUT; P is the partial one used by PATCH.
type RecordService[T any, In any, P any] interface {
	List(ctx context.Context, user *models.User, page repositories.Page) ([]T, error)
	Create(ctx context.Context, actor *models.User, in In) (T, error)
	Replace(ctx context.Context, actor *models.User, record T, in In) (T, error)
	Patch(ctx context.Context, actor *models.User, record T, p P) (T, error)
	Delete(ctx context.Context, actor *models.User, record T) error
}

// RecordHandler serves one CRM resource. Detail routes read the record resolved
// and authorized by the permission middleware from the request context.
type RecordHandler[T any, In any, P any] struct {
	resource string
	service  RecordService[T, In, P]
	logger   *zap.Logger
}

// ClientHandler serves /api/v1/clients
type ClientHandler = RecordHandler[*models.Client, crm.ClientInput, crm.ClientPatch]

// ContractHandler serves /api/v1/contracts
type ContractHandler = RecordHandler[*models.Contract, crm.ContractInput, crm.ContractPatch]

// EventHandler serves /api/v1/events
type EventHandler = RecordHandler[*models.Event, crm.EventInput, crm.EventPatch]

// NewClientHandler creates the client handler
func NewClientHandler(service *crm.ClientService, logger *zap.Logger) *ClientHandler {
	return NewRecordHandler[*models.Client, crm.ClientInput, crm.ClientPatch]("client", service, logger)
}

// NewContractHandler creates the contract handler
func NewContractHandler(service *crm.ContractService, logger *zap.Logger) *ContractHandler {
	return NewRecordHandler[*models.Contract, crm.ContractInput, crm.ContractPatch]("contract", service, logger)
}

// NewEventHandler creates the event handler
func NewEventHandler(service *crm.EventService, logger *zap.Logger) *EventHandler {
	return NewRecordHandler[*models.Event, crm.EventInput, crm.EventPatch]("event", service, logger)
}

// NewRecordHandler creates a handler for any CRM resource
func NewRecordHandler[T any, In any, P any](resource string, service RecordService[T, In, P], logger *zap.Logger) *RecordHandler[T, In, P] {
	return &RecordHandler[T, In, P]{
		resource: resource,
		service:  service,
		logger:   logger,
	}
}

// HandleList handles GET on the collection. Only records the user may read are returned.
func (h *RecordHandler[T, In, P]) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	records, err := h.service.List(ctx, middleware.GetUserFromContext(ctx), page)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("listed records",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("resource", h.resource),
		zap.Int("count", len(records)))

	_ = writeList(w, records, page)
}

// HandleCreate handles POST on the collection
func (h *RecordHandler[T, In, P]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in In
	if !decodeAndValidate(w, r, &in, h.logger) {
		return
	}

	record, err := h.service.Create(ctx, middleware.GetUserFromContext(ctx), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, record)
}

// HandleGet handles GET on a record
func (h *RecordHandler[T, In, P]) HandleGet(w http.ResponseWriter, r *http.Request) {
	record, ok := h.record(w, r)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, record)
}

// HandleReplace handles PUT on a record
func (h *RecordHandler[T, In, P]) HandleReplace(w http.ResponseWriter, r *http.Request) {
	record, ok := h.record(w, r)
	if !ok {
		return
	}

	var in In
	if !decodeAndValidate(w, r, &in, h.logger) {
		return
	}

	ctx := r.Context()
	updated, err := h.service.Replace(ctx, middleware.GetUserFromContext(ctx), record, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, updated)
}

// HandlePatch handles PATCH on a record
func (h *RecordHandler[T, In, P]) HandlePatch(w http.ResponseWriter, r *http.Request) {
	record, ok := h.record(w, r)
	if !ok {
		return
	}

	var p P
	if !decodeAndValidate(w, r, &p, h.logger) {
		return
	}

	ctx := r.Context()
	updated, err := h.service.Patch(ctx, middleware.GetUserFromContext(ctx), record, p)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, updated)
}

// HandleDelete handles DELETE on a record
func (h *RecordHandler[T, In, P]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	record, ok := h.record(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.service.Delete(ctx, middleware.GetUserFromContext(ctx), record); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// record returns the authorized record stored by the permission middleware
func (h *RecordHandler[T, In, P]) record(w http.ResponseWriter, r *http.Request) (T, bool) {
	record, ok := middleware.GetObjectFromContext[T](r.Context())
	if !ok {
		h.logger.Error("record missing from context; permission middleware not mounted",
			zap.String("resource", h.resource),
			zap.String("path", r.URL.Path))
		_ = utils.WriteInternalServerError(w, "")
	}
	return record, ok
}
