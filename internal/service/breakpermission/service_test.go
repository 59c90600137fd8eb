package breakpermission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app/apptest"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

const employeeID = "emp-1"

type BreakPermissionSuite struct {
	suite.Suite
	ctx    context.Context
	env    *apptest.Env
	svc    timeexception.BreakPermissionService
	record attendance.AttendanceRecord
}

func TestBreakPermission(t *testing.T) {
	suite.Run(t, new(BreakPermissionSuite))
}

func (s *BreakPermissionSuite) SetupTest() {
	s.ctx = context.Background()
	s.env = apptest.New(s.T(), apptest.At(s.T(), "02/03/2026 07:00"))
	s.svc = s.env.Services.BreakPermission
	s.env.AssignShift(employeeID, apptest.DayShift(schedule.PunchPolicyFirstLast), apptest.Day(s.T(), "02/03/2026"), nil)
	s.record = s.workDay("09:00", "17:00")
}

func (s *BreakPermissionSuite) workDay(in, out string) attendance.AttendanceRecord {
	svc := s.env.Services.Attendance
	for _, p := range []struct {
		typ attendance.PunchType
		at  string
	}{{attendance.PunchTypeIn, in}, {attendance.PunchTypeOut, out}} {
		ts := "02/03/2026 " + p.at
		s.env.Clock.Set(apptest.At(s.T(), ts))
		req := attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &ts}
		var err error
		if p.typ == attendance.PunchTypeIn {
			_, err = svc.PunchIn(s.ctx, req)
		} else {
			_, err = svc.PunchOut(s.ctx, req)
		}
		s.Require().NoError(err)
	}
	record, err := s.env.Attendance.GetByEmployeeAndDate(s.ctx, employeeID, apptest.Day(s.T(), "02/03/2026"))
	s.Require().NoError(err)
	s.Require().NotNil(record)
	return *record
}

func (s *BreakPermissionSuite) request(start, end string) timeexception.CreateBreakRequest {
	return timeexception.CreateBreakRequest{
		EmployeeID:         employeeID,
		AttendanceRecordID: s.record.ID,
		StartTime:          "02/03/2026 " + start,
		EndTime:            "02/03/2026 " + end,
		Reason:             "Doctor appointment",
	}
}

func (s *BreakPermissionSuite) TestCreate() {
	s.Require().True(s.record.FinalisedForPayroll)

	e, err := s.svc.Create(s.ctx, s.request("12:00", "12:30"))
	s.Require().NoError(err)
	s.Equal(timeexception.TypeBreakPermission, e.Type)
	s.Equal(timeexception.StatusPending, e.Status)
	s.Require().NotNil(e.Break)
	s.Equal(30, e.Break.DurationMinutes)
	s.Require().NotNil(e.Deadline)

	record, err := s.env.Attendance.GetByID(s.ctx, s.record.ID)
	s.Require().NoError(err)
	s.Contains(record.ExceptionIDs, e.ID)
	s.False(record.FinalisedForPayroll)

	// Pending breaks do not count.
	minutes, err := s.svc.CalculateApprovedBreakMinutes(s.ctx, s.record.ID)
	s.Require().NoError(err)
	s.Zero(minutes)
}

func (s *BreakPermissionSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.ctx, s.request("12:30", "12:00"))
	s.ErrorIs(err, timeexception.ErrBreakEndBeforeStart)

	_, err = s.svc.Create(s.ctx, s.request("09:00", "12:01"))
	s.ErrorIs(err, timeexception.ErrBreakTooLong)

	req := s.request("12:00", "12:30")
	req.EmployeeID = "emp-2"
	_, err = s.svc.Create(s.ctx, req)
	s.ErrorIs(err, timeexception.ErrRecordNotOwned)

	req = s.request("12:00", "12:30")
	req.StartTime = "12:00"
	_, err = s.svc.Create(s.ctx, req)
	var verrs validator.ValidationErrors
	s.ErrorAs(err, &verrs)
}

func (s *BreakPermissionSuite) TestMaxBreakMinutes() {
	s.Equal(180, s.svc.MaxBreakMinutes())
	s.ErrorIs(s.svc.SetMaxBreakMinutes(0), timeexception.ErrInvalidMaxBreak)
	s.ErrorIs(s.svc.SetMaxBreakMinutes(1441), timeexception.ErrInvalidMaxBreak)

	s.Require().NoError(s.svc.SetMaxBreakMinutes(20))
	_, err := s.svc.Create(s.ctx, s.request("12:00", "12:30"))
	s.ErrorIs(err, timeexception.ErrBreakTooLong)
}

func (s *BreakPermissionSuite) TestApprove_NoShortTimeForApprovedBreak() {
	e, err := s.svc.Create(s.ctx, s.request("12:00", "12:30"))
	s.Require().NoError(err)

	approved, err := s.svc.Approve(s.ctx, e.ID, "mgr-1")
	s.Require().NoError(err)
	s.Equal(timeexception.StatusApproved, approved.Status)

	record, err := s.env.Attendance.GetByID(s.ctx, s.record.ID)
	s.Require().NoError(err)
	s.Equal(450, record.TotalWorkMinutes)
	s.True(record.FinalisedForPayroll)

	shortfall, err := s.env.Services.Attendance.ShortfallMinutes(s.ctx, record)
	s.Require().NoError(err)
	s.Zero(shortfall)

	short, err := s.env.Exceptions.List(s.ctx, timeexception.Filter{
		AttendanceRecordID: s.record.ID,
		Types:              []timeexception.Type{timeexception.TypeShortTime},
	})
	s.Require().NoError(err)
	s.Empty(short)

	minutes, err := s.svc.CalculateApprovedBreakMinutes(s.ctx, s.record.ID)
	s.Require().NoError(err)
	s.Equal(30, minutes)
	s.Len(s.env.Notifier.OfType(notification.TypeBreakPermissionApproved), 1)
}

func (s *BreakPermissionSuite) TestApprove_FromEscalated() {
	e, err := s.svc.Create(s.ctx, s.request("12:00", "12:15"))
	s.Require().NoError(err)
	_, err = s.env.Services.TimeExceptions.Escalate(s.ctx, e.ID, "overdue")
	s.Require().NoError(err)

	approved, err := s.svc.Approve(s.ctx, e.ID, "mgr-1")
	s.Require().NoError(err)
	s.Equal(timeexception.StatusApproved, approved.Status)
}

func (s *BreakPermissionSuite) TestReject() {
	e, err := s.svc.Create(s.ctx, s.request("12:00", "12:30"))
	s.Require().NoError(err)

	rejected, err := s.svc.Reject(s.ctx, e.ID, "mgr-1", "Not during the audit")
	s.Require().NoError(err)
	s.Equal(timeexception.StatusRejected, rejected.Status)

	_, err = s.svc.Approve(s.ctx, e.ID, "mgr-1")
	s.ErrorIs(err, timeexception.ErrInvalidTransition)

	record, err := s.env.Attendance.GetByID(s.ctx, s.record.ID)
	s.Require().NoError(err)
	s.True(record.FinalisedForPayroll)
	s.Equal(480, record.TotalWorkMinutes)

	sent := s.env.Notifier.OfType(notification.TypeBreakPermissionRejected)
	s.Require().Len(sent, 1)
	s.Contains(sent[0].Message, "Not during the audit")
}

func (s *BreakPermissionSuite) TestApprove_WrongType() {
	late := s.workDayLate()
	_, err := s.svc.Approve(s.ctx, late, "mgr-1")
	s.ErrorIs(err, timeexception.ErrWrongType)
}

// workDayLate records a late arrival on the next day and returns the LATE id.
func (s *BreakPermissionSuite) workDayLate() string {
	ts := "03/03/2026 09:30"
	s.env.Clock.Set(apptest.At(s.T(), ts))
	res, err := s.env.Services.Attendance.PunchIn(s.ctx, attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &ts})
	s.Require().NoError(err)
	lates, err := s.env.Exceptions.List(s.ctx, timeexception.Filter{
		AttendanceRecordID: res.Record.ID,
		Types:              []timeexception.Type{timeexception.TypeLate},
	})
	s.Require().NoError(err)
	s.Require().Len(lates, 1)
	return lates[0].ID
}
