package http

import (
	"net/http"
	"strconv"

	"rentstock-backend/internal/domain"
)

type constraintsRequest struct {
	ReferenceDate string `json:"reference_date"`
}

type bookingRequest struct {
	Pickup string `json:"pickup"`
	Return string `json:"return"`
}

type bookingResponse struct {
	Valid      bool                      `json:"valid"`
	Violations []domain.BookingViolation `json:"violations"`
}

type availabilityResponse struct {
	Intervals []domain.AvailabilityInterval `json:"intervals"`
}

// GetConstraints accepts the reference date as a query parameter, or in the
// JSON body of a POST.
func (h *Handler) GetConstraints(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := constraintsRequest{ReferenceDate: r.URL.Query().Get("reference_date")}
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ref, err := h.instant(r.Context(), orgID, "reference_date", req.ReferenceDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Calendar.Constraints(r.Context(), orgID, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ProjectAvailability(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathInt32(r, "itemID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()

	var location *int32
	if s := q.Get("location"); s != "" {
		id, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			writeError(w, r, domain.NewValidationError("invalid location", "location must be an integer"))
			return
		}
		l := int32(id)
		location = &l
	}
	from, err := h.requiredInstant(r.Context(), orgID, "from", q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := h.requiredInstant(r.Context(), orgID, "to", q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	intervals, err := h.svc.Projector.Project(r.Context(), orgID, itemID, from, to, location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if intervals == nil {
		intervals = []domain.AvailabilityInterval{}
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Intervals: intervals})
}

func (h *Handler) ValidateBooking(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt32(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pickup, err := h.requiredInstant(r.Context(), orgID, "pickup", req.Pickup)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := h.requiredInstant(r.Context(), orgID, "return", req.Return)
	if err != nil {
		writeError(w, r, err)
		return
	}

	violations, err := h.svc.Calendar.ValidateBooking(r.Context(), orgID, pickup, ret)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Valid: len(violations) == 0, Violations: violations})
}

func validationProblem(message string, err error) error {
	if err == nil {
		return domain.NewValidationError(message)
	}
	return domain.NewValidationError(message, err.Error())
}
