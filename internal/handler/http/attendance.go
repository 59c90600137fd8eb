package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	PunchIn(w http.ResponseWriter, r *http.Request)
	PunchOut(w http.ResponseWriter, r *http.Request)
	CreatePlaceholder(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
	ListExceptions(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.Service
	exceptionService  timeexception.Service
}

func NewAttendanceHandler(attendanceService attendance.Service, exceptionService timeexception.Service) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		exceptionService:  exceptionService,
	}
}

// PunchIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.PunchIn)
}

// PunchOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.PunchOut)
}

func (h *attendanceHandlerImpl) punch(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResult, error),
) {
	var req attendance.PunchRequest
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

	result, err := fn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Recorded {
		response.SuccessWithMessage(w, result.Message, attendance.NewPunchResultResponse(result))
		return
	}
	response.Created(w, result.Message, attendance.NewPunchResultResponse(result))
}

// CreatePlaceholder implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreatePlaceholder(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreatePlaceholderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.CreatePlaceholder(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance record created", attendance.NewAttendanceResponse(record))
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	record, ok := h.visibleRecord(w, r)
	if !ok {
		return
	}

	response.Success(w, attendance.NewAttendanceResponse(record))
}

// Recompute implements AttendanceHandler.
func (h *attendanceHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.attendanceService.RecomputeAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance recomputed", attendance.NewAttendanceResponse(record))
}

// ListExceptions implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListExceptions(w http.ResponseWriter, r *http.Request) {
	record, ok := h.visibleRecord(w, r)
	if !ok {
		return
	}

	list, err := h.exceptionService.ListByRecord(r.Context(), record.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timeexception.NewTimeExceptionResponses(list))
}

func (h *attendanceHandlerImpl) visibleRecord(w http.ResponseWriter, r *http.Request) (attendance.AttendanceRecord, bool) {
	id := chi.URLParam(r, "id")

	record, err := h.attendanceService.GetRecord(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return attendance.AttendanceRecord{}, false
	}
	if err := canView(r, record.EmployeeID); err != nil {
		response.HandleError(w, err)
		return attendance.AttendanceRecord{}, false
	}
	return record, true
}
