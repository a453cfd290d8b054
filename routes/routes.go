package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/crm-control-plane/app"
	"github.com/upb/crm-control-plane/handlers"
	"github.com/upb/crm-control-plane/middleware"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services/crm"
	"github.com/upb/crm-control-plane/services/policy"
	"github.com/upb/crm-control-plane/utils"
)

const requestTimeout = 30 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(chimiddleware.GetHead)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", deps.Handlers.Health.HandleHealth)
	r.Get("/readyz", deps.Handlers.Health.HandleReadiness)

	pm := deps.PermissionMiddleware

	r.Route("/api/v1", func(r chi.Router) {
		// clearing the cookie needs no valid session
		r.Delete("/auth/session", deps.Handlers.Session.HandleDeleteSession)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Post("/auth/session", deps.Handlers.Session.HandleCreateSession)
			r.Get("/users/me", handlers.HandleCurrentUser)

			r.Route("/clients", func(r chi.Router) {
				mountRecords[*models.Client, crm.ClientInput, crm.ClientPatch](
					r, pm, policy.ResourceClient, deps.Policy.Clients, deps.Services.Clients.Get, deps.Handlers.Clients)
			})
			r.Route("/contracts", func(r chi.Router) {
				mountRecords[*models.Contract, crm.ContractInput, crm.ContractPatch](
					r, pm, policy.ResourceContract, deps.Policy.Contracts, deps.Services.Contracts.Get, deps.Handlers.Contracts)
			})
			r.Route("/events", func(r chi.Router) {
				mountRecords[*models.Event, crm.EventInput, crm.EventPatch](
					r, pm, policy.ResourceEvent, deps.Policy.Events, deps.Services.Events.Get, deps.Handlers.Events)
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireTeam(models.TeamManagement))
				r.Get("/logs", deps.Handlers.Audit.HandleList)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// mountRecords registers the collection and detail routes of one CRM resource
// behind its permission. The middleware is mounted inline so {id} is resolved
// when it runs.
func mountRecords[T any, In any, P any](
	r chi.Router,
	pm *middleware.PermissionMiddleware,
	resource policy.Resource,
	perm policy.Permission[T],
	load middleware.Loader[T],
	h *handlers.RecordHandler[T, In, P],
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(pm, resource, perm, load))

		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleReplace)
		r.Patch("/{id}", h.HandlePatch)
		r.Delete("/{id}", h.HandleDelete)
	})
}
