package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/response"
)

type BreakPermissionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	GetMaxMinutes(w http.ResponseWriter, r *http.Request)
	SetMaxMinutes(w http.ResponseWriter, r *http.Request)
}

type breakPermissionHandlerImpl struct {
	breakService timeexception.BreakPermissionService
}

func NewBreakPermissionHandler(breakService timeexception.BreakPermissionService) BreakPermissionHandler {
	return &breakPermissionHandlerImpl{
		breakService: breakService,
	}
}

type maxBreakMinutesResponse struct {
	Minutes int `json:"minutes"`
}

// Create implements BreakPermissionHandler.
func (h *breakPermissionHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req timeexception.CreateBreakRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	employeeID, err := actingEmployee(r, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.breakService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Break permission requested", timeexception.NewTimeExceptionResponse(created))
}

// Approve implements BreakPermissionHandler.
func (h *breakPermissionHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	approved, err := h.breakService.Approve(r.Context(), id, actorID(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break permission approved", timeexception.NewTimeExceptionResponse(approved))
}

// Reject implements BreakPermissionHandler.
func (h *breakPermissionHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req timeexception.RejectBreakRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	rejected, err := h.breakService.Reject(r.Context(), id, actorID(r), req.Note)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break permission rejected", timeexception.NewTimeExceptionResponse(rejected))
}

// GetMaxMinutes implements BreakPermissionHandler.
func (h *breakPermissionHandlerImpl) GetMaxMinutes(w http.ResponseWriter, r *http.Request) {
	response.Success(w, maxBreakMinutesResponse{Minutes: h.breakService.MaxBreakMinutes()})
}

// SetMaxMinutes implements BreakPermissionHandler.
func (h *breakPermissionHandlerImpl) SetMaxMinutes(w http.ResponseWriter, r *http.Request) {
	var req timeexception.SetMaxBreakMinutesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.breakService.SetMaxBreakMinutes(req.Minutes); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Maximum break minutes updated", maxBreakMinutesResponse{Minutes: h.breakService.MaxBreakMinutes()})
}
