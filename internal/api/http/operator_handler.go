package http

import (
	"net/http"
	"strconv"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/service"
)

type roleRequest struct {
	Role domain.LocationRole `json:"role"`
}

type periodRequest struct {
	Name            string                  `json:"name"`
	Start           string                  `json:"start"`
	End             string                  `json:"end"`
	IsClosed        bool                    `json:"is_closed"`
	MinimalDuration *domain.MinimalDuration `json:"minimal_duration"`
}

type unlockRequest struct {
	Password string `json:"password"`
	Note     string `json:"note"`
}

type lockRequest struct {
	Note string `json:"note"`
}

type countResponse struct {
	Created int `json:"created"`
}

type nextStartResponse struct {
	Start time.Time `json:"start"`
}

type remainingResponse struct {
	ItemIDs []int32 `json:"item_ids"`
}

type shortfallsResponse struct {
	Tasks []domain.OperatorTask `json:"tasks"`
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.svc.Org.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var org domain.Organization
	if err := decodeJSON(r, &org); err != nil {
		writeError(w, r, err)
		return
	}
	org.ID = 0
	if err := h.svc.Org.CreateOrganization(r.Context(), &org); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	org, err := h.svc.Org.GetOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var org domain.Organization
	if err := decodeJSON(r, &org); err != nil {
		writeError(w, r, err)
		return
	}
	org.ID = orgID
	if err := h.svc.Org.UpdateOrganization(r.Context(), &org); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	locations, err := h.svc.Registry.ListLocations(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *Handler) SetLocationRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	loc, err := h.svc.Registry.SetRole(r.Context(), id, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := h.instant(r.Context(), orgID, "start", req.Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := h.requiredInstant(r.Context(), orgID, "end", req.End)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.svc.Calendar.CreatePeriod(r.Context(), actorFrom(r), orgID, service.PeriodInput{
		Name:            req.Name,
		Start:           start,
		End:             end,
		MinimalDuration: req.MinimalDuration,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) NextPeriodStart(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := h.svc.Calendar.NextPeriodStart(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nextStartResponse{Start: start})
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Calendar.GetPeriod(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePeriod replaces the authored fields of a period. Dates are read in the
// timezone of the organization owning the period.
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.svc.Calendar.GetPeriod(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := h.requiredInstant(r.Context(), existing.OrgID, "start", req.Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := h.requiredInstant(r.Context(), existing.OrgID, "end", req.End)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.svc.Calendar.UpdatePeriod(r.Context(), actorFrom(r), &domain.RentalPeriod{
		ID:              id,
		OrgID:           existing.OrgID,
		Name:            req.Name,
		Start:           start,
		End:             end,
		IsClosed:        req.IsClosed,
		MinimalDuration: req.MinimalDuration,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Calendar.DeletePeriod(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) ConfirmPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Calendar.ConfirmPeriod(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UnlockPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Calendar.UnlockPeriod(r.Context(), actorFrom(r), id, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SetDayConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	weekday, err := pathInt32(r, "weekday")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var dc domain.DayConfig
	if err := decodeJSON(r, &dc); err != nil {
		writeError(w, r, err)
		return
	}
	dc.Weekday = int(weekday)

	saved, err := h.svc.Calendar.SetDayConfig(r.Context(), actorFrom(r), id, dc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) CreateDefaultDayConfigs(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.Calendar.CreateDefaultDayConfigs(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Created: n})
}

func (h *Handler) SetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var alloc domain.StockAllocation
	if err := decodeJSON(r, &alloc); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.svc.Calendar.SetAllocation(r.Context(), actorFrom(r), id, alloc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) AutoConfigureAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.Calendar.AutoConfigureAllocations(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Created: n})
}

func (h *Handler) RemainingItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.svc.Calendar.RemainingItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []int32{}
	}
	writeJSON(w, http.StatusOK, remainingResponse{ItemIDs: items})
}

func (h *Handler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var m domain.Movement
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	m.ID = id
	if err := h.svc.Locks.UpdateMovement(r.Context(), &m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Locks.DeleteMovement(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) UnlockMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Locks.Unlock(r.Context(), actorFrom(r), id, req.Password, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) RelockMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req lockRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	m, err := h.svc.Locks.Relock(r.Context(), actorFrom(r), id, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) ListShortfalls(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := int32(30)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n <= 0 {
			writeError(w, r, domain.NewValidationError("invalid limit", "limit must be a positive integer"))
			return
		}
		limit = int32(n)
	}
	tasks, err := h.svc.Shortfall.ListTasks(r.Context(), orgID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []domain.OperatorTask{}
	}
	writeJSON(w, http.StatusOK, shortfallsResponse{Tasks: tasks})
}
