package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/response"
)

type TimeExceptionHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Assign(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
}

type timeExceptionHandlerImpl struct {
	exceptionService timeexception.Service
}

func NewTimeExceptionHandler(exceptionService timeexception.Service) TimeExceptionHandler {
	return &timeExceptionHandlerImpl{
		exceptionService: exceptionService,
	}
}

// Get implements TimeExceptionHandler.
func (h *timeExceptionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.exceptionService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if err := canView(r, e.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timeexception.NewTimeExceptionResponse(e))
}

// Assign implements TimeExceptionHandler.
func (h *timeExceptionHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req timeexception.AssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	assigned, err := h.exceptionService.Assign(r.Context(), id, req.HandlerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time exception assigned", timeexception.NewTimeExceptionResponse(assigned))
}

// UpdateStatus implements TimeExceptionHandler.
func (h *timeExceptionHandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req timeexception.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	change, err := h.exceptionService.UpdateStatus(r.Context(), id, req.Status, actorID(r), req.Note)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timeexception.StatusChangeResponse{
		Deleted:   change.Deleted,
		Exception: timeexception.NewTimeExceptionResponse(change.Exception),
	})
}
