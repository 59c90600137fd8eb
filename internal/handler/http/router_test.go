package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app/apptest"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	handler "github.com/cmlabs-hris/hris-timekeeping-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type RouterSuite struct {
	suite.Suite
	env    *apptest.Env
	jwt    jwt.Service
	router http.Handler
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.env = apptest.New(s.T(), apptest.At(s.T(), "02/03/2026 08:55"))
	s.env.AssignShift("emp-1", apptest.DayShift(schedule.PunchPolicyFirstLast), apptest.Day(s.T(), "01/03/2026"), nil)
	s.jwt = jwt.NewJWTService("test-secret", "15m", time.Minute)

	svc := s.env.Services
	s.router = handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			Env:            "test",
			Gatherer:       s.env.Registry,
		},
		s.jwt,
		handler.Handlers{
			Attendance:      handler.NewAttendanceHandler(svc.Attendance, svc.TimeExceptions),
			Correction:      handler.NewCorrectionHandler(svc.Corrections),
			BreakPermission: handler.NewBreakPermissionHandler(svc.BreakPermission),
			TimeException:   handler.NewTimeExceptionHandler(svc.TimeExceptions),
			Lateness:        handler.NewLatenessHandler(svc.Lateness),
		},
	)
}

func (s *RouterSuite) token(employeeID string, role auth.Role) string {
	token, _, err := s.jwt.GenerateAccessToken("user-"+employeeID, &employeeID, role)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *RouterSuite) punchIn(token, at string) (*httptest.ResponseRecorder, envelope) {
	s.env.Clock.Set(apptest.At(s.T(), at))
	return s.do(http.MethodPost, "/api/v1/attendance/punch-in", token, map[string]string{"timestamp": at})
}

func (s *RouterSuite) recordID(env envelope) string {
	var result struct {
		Attendance struct {
			ID string `json:"id"`
		} `json:"attendance"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	s.Require().NotEmpty(result.Attendance.ID)
	return result.Attendance.ID
}

func (s *RouterSuite) TestRequiresToken() {
	rec, _ := s.do(http.MethodPost, "/api/v1/attendance/punch-in", "", map[string]string{})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/attendance/punch-in", "not-a-token", map[string]string{})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestRevokedToken() {
	token := s.token("emp-1", auth.RoleEmployee)
	s.jwt.RevokeToken(token)

	rec, env := s.punchIn(token, "02/03/2026 09:00")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Token revoked", env.Error.Message)
}

func (s *RouterSuite) TestPunchInAndReadRecord() {
	token := s.token("emp-1", auth.RoleEmployee)

	rec, env := s.punchIn(token, "02/03/2026 09:00")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.True(env.Success)
	id := s.recordID(env)

	rec, env = s.do(http.MethodGet, "/api/v1/attendance/records/"+id, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var record struct {
		EmployeeID string `json:"employee_id"`
		Date       string `json:"date"`
		Punches    []struct {
			Type string `json:"type"`
		} `json:"punches"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &record))
	s.Equal("emp-1", record.EmployeeID)
	s.Equal("2026-03-02", record.Date)
	s.Len(record.Punches, 1)

	// A repeated IN under FIRST_LAST is acknowledged, not stored.
	rec, env = s.punchIn(token, "02/03/2026 09:05")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(env.Message, "already punched in")

	other := s.token("emp-2", auth.RoleEmployee)
	rec, _ = s.do(http.MethodGet, "/api/v1/attendance/records/"+id, other, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/attendance/records/missing", token, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestEmployeeCannotPunchForOthers() {
	token := s.token("emp-1", auth.RoleEmployee)
	at := "02/03/2026 09:00"

	rec, _ := s.do(http.MethodPost, "/api/v1/attendance/punch-in", token, map[string]string{
		"employee_id": "emp-2",
		"timestamp":   at,
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestPunchValidationAndRuleErrors() {
	token := s.token("emp-1", auth.RoleEmployee)

	rec, env := s.do(http.MethodPost, "/api/v1/attendance/punch-in", token, map[string]string{"timestamp": "2026-03-02 09:00"})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(env.Error.Details, "timestamp")

	s.env.Clock.Set(apptest.At(s.T(), "02/03/2026 09:00"))
	rec, _ = s.do(http.MethodPost, "/api/v1/attendance/punch-out", token, map[string]string{"timestamp": "02/03/2026 09:00"})
	s.Equal(http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch-in", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestMalformedShiftIsRejected() {
	shift := apptest.DayShift(schedule.PunchPolicyFirstLast)
	shift.EndTime = "5pm"
	s.env.AssignShift("emp-2", shift, apptest.Day(s.T(), "01/03/2026"), nil)
	token := s.token("emp-2", auth.RoleEmployee)

	rec, env := s.punchIn(token, "02/03/2026 09:00")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Require().NotNil(env.Error)
	s.Contains(env.Error.Message, "shift configuration is malformed")
	s.Contains(env.Error.Message, "5pm")
}

func (s *RouterSuite) TestBusyEmployeeReturnsServiceUnavailable() {
	unlock, err := s.env.Locker.Lock(context.Background(), lock.EmployeeKey("emp-1"))
	s.Require().NoError(err)
	defer unlock()

	token := s.token("emp-1", auth.RoleEmployee)
	at := "02/03/2026 09:00"
	s.env.Clock.Set(apptest.At(s.T(), at))
	body, err := json.Marshal(map[string]string{"timestamp": at})
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch-in", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Require().NotNil(env.Error)
	s.Equal("SERVICE_UNAVAILABLE", env.Error.Code)

	record, err := s.env.Attendance.GetByEmployeeAndDate(context.Background(), "emp-1", apptest.Day(s.T(), "02/03/2026"))
	s.Require().NoError(err)
	s.Nil(record)

	// Once the lock is released the same punch goes through.
	unlock()
	rec, _ := s.punchIn(token, at)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *RouterSuite) TestCorrectionReviewFlow() {
	employee := s.token("emp-1", auth.RoleEmployee)
	manager := s.token("mgr-1", auth.RoleManager)

	_, env := s.punchIn(employee, "02/03/2026 09:00")
	id := s.recordID(env)

	s.env.Clock.Set(apptest.At(s.T(), "03/03/2026 08:00"))
	rec, env := s.do(http.MethodPost, "/api/v1/corrections", employee, map[string]string{
		"attendance_record_id":       id,
		"correction_type":            "MISSING_PUNCH_OUT",
		"corrected_punch_date":       "02/03/2026",
		"corrected_punch_local_time": "17:00",
		"reason":                     "Forgot to punch out",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &created))
	s.Equal("SUBMITTED", created.Status)

	rec, _ = s.do(http.MethodPost, "/api/v1/corrections/"+created.ID+"/start-review", employee, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/corrections/"+created.ID+"/start-review", manager, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodPost, "/api/v1/corrections/"+created.ID+"/review", manager, map[string]string{"decision": "MAYBE"})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(env.Error.Details, "decision")

	rec, _ = s.do(http.MethodPost, "/api/v1/corrections/"+created.ID+"/review", manager, map[string]string{"decision": "APPROVE"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// Deciding twice conflicts with the request's state.
	rec, _ = s.do(http.MethodPost, "/api/v1/corrections/"+created.ID+"/review", manager, map[string]string{"decision": "REJECT"})
	s.Equal(http.StatusConflict, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/attendance/records/"+id, employee, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var record struct {
		TotalWorkMinutes    int  `json:"total_work_minutes"`
		FinalisedForPayroll bool `json:"finalised_for_payroll"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &record))
	s.Equal(480, record.TotalWorkMinutes)
	s.True(record.FinalisedForPayroll)
}

func (s *RouterSuite) TestExceptionsAndLateness() {
	employee := s.token("emp-1", auth.RoleEmployee)
	manager := s.token("mgr-1", auth.RoleManager)

	_, env := s.punchIn(employee, "02/03/2026 09:30")
	id := s.recordID(env)

	rec, env := s.do(http.MethodGet, "/api/v1/attendance/records/"+id+"/exceptions", employee, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var exceptions []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &exceptions))
	var lateID string
	for _, e := range exceptions {
		if e.Type == "LATE" {
			lateID = e.ID
		}
	}
	s.Require().NotEmpty(lateID)

	rec, _ = s.do(http.MethodPost, "/api/v1/exceptions/"+lateID+"/assign", employee, map[string]string{"handler_id": "mgr-1"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/exceptions/"+lateID+"/assign", manager, map[string]string{"handler_id": "mgr-1"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPut, "/api/v1/exceptions/"+lateID+"/status", manager, map[string]string{"status": "RESOLVED"})
	s.Equal(http.StatusConflict, rec.Code)

	rec, env = s.do(http.MethodPut, "/api/v1/exceptions/"+lateID+"/status", manager, map[string]string{"status": "REJECTED", "note": "Excused"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var change struct {
		Deleted   bool `json:"deleted"`
		Exception struct {
			Status string `json:"status"`
		} `json:"exception"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &change))
	s.False(change.Deleted)
	s.Equal("REJECTED", change.Exception.Status)

	rec, env = s.do(http.MethodPost, "/api/v1/lateness/emp-1/evaluate?window_days=30&threshold=5", manager, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Escalated bool `json:"escalated"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	s.False(result.Escalated)

	rec, _ = s.do(http.MethodPost, "/api/v1/lateness/emp-1/evaluate?threshold=zero", manager, nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *RouterSuite) TestMaxBreakMinutesIsAdminOnly() {
	manager := s.token("mgr-1", auth.RoleManager)
	admin := s.token("adm-1", auth.RoleAdmin)

	rec, _ := s.do(http.MethodPut, "/api/v1/breaks/max-minutes", manager, map[string]int{"minutes": 60})
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPut, "/api/v1/breaks/max-minutes", admin, map[string]int{"minutes": 0})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(http.MethodPut, "/api/v1/breaks/max-minutes", admin, map[string]int{"minutes": 60})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(60, s.env.Services.BreakPermission.MaxBreakMinutes())
}

func (s *RouterSuite) TestMetricsEndpoint() {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}
