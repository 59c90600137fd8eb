package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

type LatenessHandler interface {
	Evaluate(w http.ResponseWriter, r *http.Request)
}

type latenessHandlerImpl struct {
	escalator timeexception.LatenessEscalator
}

func NewLatenessHandler(escalator timeexception.LatenessEscalator) LatenessHandler {
	return &latenessHandlerImpl{
		escalator: escalator,
	}
}

type latenessResultResponse struct {
	UnresolvedLate int                                  `json:"unresolved_late"`
	Escalated      bool                                 `json:"escalated"`
	Summary        *timeexception.TimeExceptionResponse `json:"summary,omitempty"`
}

// Evaluate implements LatenessHandler. The window_days and threshold query
// parameters, given together, override the configured policy.
func (h *latenessHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var (
		params timeexception.LatenessParams
		errs   validator.ValidationErrors
	)
	if v := r.URL.Query().Get("window_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, validator.ValidationError{Field: "window_days", Message: "window_days must be a positive integer"})
		}
		params.WindowDays = n
	}
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, validator.ValidationError{Field: "threshold", Message: "threshold must be a positive integer"})
		}
		params.Threshold = n
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	var (
		result timeexception.LatenessResult
		err    error
	)
	if params.WindowDays > 0 || params.Threshold > 0 {
		result, err = h.escalator.EvaluateWith(r.Context(), employeeID, params)
	} else {
		result, err = h.escalator.Evaluate(r.Context(), employeeID)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := latenessResultResponse{
		UnresolvedLate: result.UnresolvedLate,
		Escalated:      result.Escalated,
	}
	if result.Summary != nil {
		summary := timeexception.NewTimeExceptionResponse(*result.Summary)
		resp.Summary = &summary
	}
	response.Success(w, resp)
}
