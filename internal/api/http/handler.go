package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"rentstock-backend/internal/security"
	"rentstock-backend/internal/service"
	"rentstock-backend/internal/utils"
)

// Services are the core components exposed over HTTP
type Services struct {
	Org       service.OrganizationService
	Registry  service.WarehouseRegistry
	Calendar  service.PeriodCalendar
	Projector service.AvailabilityProjector
	Locks     service.TransferLocks
	Shortfall service.ShortfallReporter
}

type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	return &Handler{svc: svc}
}

// NewRouter builds the booking and operator JSON API
func NewRouter(svc *Services, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)
	RegisterRoutes(router, NewHandler(svc), NewAuthMiddleware(tm))
	return router
}

func RegisterRoutes(router *mux.Router, h *Handler, auth *AuthMiddleware) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Booking front end - public
	api.HandleFunc("/orgs/{orgID:[0-9]+}/constraints", h.GetConstraints).Methods("GET", "POST")
	api.HandleFunc("/orgs/{orgID:[0-9]+}/items/{itemID:[0-9]+}/availability", h.ProjectAvailability).Methods("GET")
	api.HandleFunc("/orgs/{orgID:[0-9]+}/bookings/validate", h.ValidateBooking).Methods("POST")

	// Operators - access token required
	ops := api.NewRoute().Subrouter()
	ops.Use(auth.RequireOperator)

	ops.HandleFunc("/orgs", h.ListOrganizations).Methods("GET")
	ops.HandleFunc("/orgs", h.CreateOrganization).Methods("POST")
	ops.HandleFunc("/orgs/{orgID:[0-9]+}", h.GetOrganization).Methods("GET")
	ops.HandleFunc("/orgs/{orgID:[0-9]+}", h.UpdateOrganization).Methods("PUT")
	ops.HandleFunc("/orgs/{orgID:[0-9]+}/locations", h.ListLocations).Methods("GET")
	ops.HandleFunc("/locations/{id:[0-9]+}/role", h.SetLocationRole).Methods("PUT")

	ops.HandleFunc("/orgs/{orgID:[0-9]+}/periods", h.CreatePeriod).Methods("POST")
	ops.HandleFunc("/orgs/{orgID:[0-9]+}/periods/next-start", h.NextPeriodStart).Methods("GET")
	ops.HandleFunc("/periods/{id:[0-9]+}", h.GetPeriod).Methods("GET")
	ops.HandleFunc("/periods/{id:[0-9]+}", h.UpdatePeriod).Methods("PUT")
	ops.HandleFunc("/periods/{id:[0-9]+}", h.DeletePeriod).Methods("DELETE")
	ops.HandleFunc("/periods/{id:[0-9]+}/confirm", h.ConfirmPeriod).Methods("POST")
	ops.HandleFunc("/periods/{id:[0-9]+}/unlock", h.UnlockPeriod).Methods("POST")
	ops.HandleFunc("/periods/{id:[0-9]+}/day-configs/defaults", h.CreateDefaultDayConfigs).Methods("POST")
	ops.HandleFunc("/periods/{id:[0-9]+}/day-configs/{weekday:[1-7]}", h.SetDayConfig).Methods("PUT")
	ops.HandleFunc("/periods/{id:[0-9]+}/allocations", h.SetAllocation).Methods("POST")
	ops.HandleFunc("/periods/{id:[0-9]+}/allocations/auto", h.AutoConfigureAllocations).Methods("POST")
	ops.HandleFunc("/periods/{id:[0-9]+}/allocations/remaining", h.RemainingItems).Methods("GET")

	ops.HandleFunc("/movements/{id:[0-9]+}", h.UpdateMovement).Methods("PUT")
	ops.HandleFunc("/movements/{id:[0-9]+}", h.DeleteMovement).Methods("DELETE")
	ops.HandleFunc("/movements/{id:[0-9]+}/unlock", h.UnlockMovement).Methods("POST")
	ops.HandleFunc("/movements/{id:[0-9]+}/lock", h.RelockMovement).Methods("POST")

	ops.HandleFunc("/orgs/{orgID:[0-9]+}/shortfalls", h.ListShortfalls).Methods("GET")
}

// instant parses s in the organization's timezone; empty yields nil
func (h *Handler) instant(ctx context.Context, orgID int32, field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	loc, err := h.svc.Org.Location(ctx, orgID)
	if err != nil {
		return nil, err
	}
	t, err := utils.ParseInstant(s, loc)
	if err != nil {
		return nil, validationProblem("invalid "+field, err)
	}
	return &t, nil
}

func (h *Handler) requiredInstant(ctx context.Context, orgID int32, field, s string) (time.Time, error) {
	t, err := h.instant(ctx, orgID, field, s)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, validationProblem("missing "+field, nil)
	}
	return *t, nil
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
