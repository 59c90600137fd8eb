package correction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app/apptest"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/validator"
)

const employeeID = "emp-1"

type CorrectionServiceSuite struct {
	suite.Suite
	ctx context.Context
	env *apptest.Env
	svc correction.Service
}

func TestCorrectionService(t *testing.T) {
	suite.Run(t, new(CorrectionServiceSuite))
}

func (s *CorrectionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.env = apptest.New(s.T(), apptest.At(s.T(), "02/03/2026 07:00"))
	s.svc = s.env.Services.Corrections
	s.env.AssignShift(employeeID, apptest.DayShift(schedule.PunchPolicyFirstLast), apptest.Day(s.T(), "02/03/2026"), nil)
}

func (s *CorrectionServiceSuite) punch(punchType attendance.PunchType, ts string) attendance.AttendanceRecord {
	s.env.Clock.Set(apptest.At(s.T(), ts))
	req := attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &ts}
	var (
		res attendance.PunchResult
		err error
	)
	if punchType == attendance.PunchTypeIn {
		res, err = s.env.Services.Attendance.PunchIn(s.ctx, req)
	} else {
		res, err = s.env.Services.Attendance.PunchOut(s.ctx, req)
	}
	s.Require().NoError(err)
	return res.Record
}

func (s *CorrectionServiceSuite) record(id string) attendance.AttendanceRecord {
	record, err := s.env.Attendance.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return record
}

func (s *CorrectionServiceSuite) exceptions(recordID string, t timeexception.Type) []timeexception.TimeException {
	list, err := s.env.Exceptions.List(s.ctx, timeexception.Filter{AttendanceRecordID: recordID, Types: []timeexception.Type{t}})
	s.Require().NoError(err)
	return list
}

func submit(recordID string, kind correction.Kind, date, clock string) correction.SubmitRequest {
	return correction.SubmitRequest{
		EmployeeID:              employeeID,
		AttendanceRecordID:      recordID,
		CorrectionType:          kind,
		CorrectedPunchDate:      date,
		CorrectedPunchLocalTime: clock,
		Reason:                  "Forgot to punch",
	}
}

func (s *CorrectionServiceSuite) approve(id string) correction.CorrectionRequest {
	_, err := s.svc.StartReview(s.ctx, id, "mgr-1")
	s.Require().NoError(err)
	c, err := s.svc.Review(s.ctx, id, "mgr-1", correction.ReviewRequest{Decision: correction.DecisionApprove})
	s.Require().NoError(err)
	return c
}

func (s *CorrectionServiceSuite) TestMissingPunchOut_Approved() {
	record := s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	s.Require().Len(s.exceptions(record.ID, timeexception.TypeMissedPunch), 1)

	s.env.Clock.Set(apptest.At(s.T(), "03/03/2026 08:00"))
	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.Require().NoError(err)
	s.Equal(correction.StatusSubmitted, c.Status)
	s.Nil(c.Detail.OriginalTimestamp)

	record = s.record(record.ID)
	s.False(record.FinalisedForPayroll)
	s.Contains(record.CorrectionRequestIDs, c.ID)

	c = s.approve(c.ID)
	s.Equal(correction.StatusApproved, c.Status)
	s.Require().NotNil(c.ReviewedAt)

	record = s.record(record.ID)
	s.True(record.HasInAndOut())
	s.Equal(480, record.TotalWorkMinutes)
	s.False(record.HasMissedPunch)
	s.True(record.FinalisedForPayroll)
	s.Empty(s.exceptions(record.ID, timeexception.TypeMissedPunch))
	s.Empty(s.env.Notifier.OfType(notification.TypeMissedPunch))
	s.Len(s.env.Notifier.OfType(notification.TypeCorrectionInReview), 1)
	s.Len(s.env.Notifier.OfType(notification.TypeCorrectionApproved), 1)
}

func (s *CorrectionServiceSuite) TestIncorrectPunchIn_ReplacesFirstIn() {
	s.punch(attendance.PunchTypeIn, "02/03/2026 09:30")
	record := s.punch(attendance.PunchTypeOut, "02/03/2026 17:00")
	late := s.exceptions(record.ID, timeexception.TypeLate)
	s.Require().Len(late, 1)

	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchIn, "02/03/2026", "09:00"))
	s.Require().NoError(err)
	s.Require().NotNil(c.Detail.OriginalTimestamp)
	s.True(c.Detail.OriginalTimestamp.Equal(apptest.At(s.T(), "02/03/2026 09:30")))

	s.approve(c.ID)

	record = s.record(record.ID)
	s.Equal(2, record.Punches.Len())
	first, ok := record.Punches.First(attendance.PunchTypeIn)
	s.Require().True(ok)
	s.True(first.Time.Equal(apptest.At(s.T(), "02/03/2026 09:00")))
	s.Equal(0, record.LateMinutes)
	s.Equal(480, record.TotalWorkMinutes)
	s.True(record.FinalisedForPayroll)

	resolved, err := s.env.Exceptions.GetByID(s.ctx, late[0].ID)
	s.Require().NoError(err)
	s.Equal(timeexception.StatusResolved, resolved.Status)
}

func (s *CorrectionServiceSuite) TestIncorrectPunchOut_AcceptsFollowingDay() {
	s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	record := s.punch(attendance.PunchTypeOut, "02/03/2026 17:00")

	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchOut, "03/03/2026", "00:30"))
	s.Require().NoError(err)
	s.approve(c.ID)

	record = s.record(record.ID)
	last, _, ok := record.Punches.LastOf(attendance.PunchTypeOut)
	s.Require().True(ok)
	s.True(last.Time.Equal(apptest.At(s.T(), "03/03/2026 00:30")))
	s.Equal(2, record.Punches.Len())
}

func (s *CorrectionServiceSuite) TestRequest_Rejections() {
	record := s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")

	var verrs validator.ValidationErrors
	_, err := s.svc.Request(s.ctx, submit("not-a-uuid", correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.ErrorAs(err, &verrs)

	_, err = s.svc.Request(s.ctx, submit("0190a3b4-0000-7000-8000-000000000000", correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.ErrorIs(err, attendance.ErrAttendanceNotFound)

	other := submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:00")
	other.EmployeeID = "emp-2"
	_, err = s.svc.Request(s.ctx, other)
	s.ErrorIs(err, correction.ErrNotOwner)

	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchIn, "03/03/2026", "09:00"))
	s.ErrorIs(err, correction.ErrCorrectionDayInvalid)

	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "04/03/2026", "01:00"))
	s.ErrorIs(err, correction.ErrCorrectionDayInvalid)

	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchOut, "02/03/2026", "17:00"))
	s.ErrorIs(err, correction.ErrNoPunchToCorrect)

	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchIn, "02/03/2026", "09:01"))
	s.ErrorIs(err, correction.ErrRedundantCorrection)

	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.Require().NoError(err)
	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchIn, "02/03/2026", "08:45"))
	s.ErrorIs(err, correction.ErrOpenRequestExists)

	s.Len(s.record(record.ID).CorrectionRequestIDs, 1)
}

func (s *CorrectionServiceSuite) TestReject_LeavesPunchesAlone() {
	record := s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.Require().NoError(err)

	_, err = s.svc.Review(s.ctx, c.ID, "mgr-1", correction.ReviewRequest{Decision: correction.DecisionReject})
	s.ErrorIs(err, correction.ErrInvalidStatus)

	_, err = s.svc.StartReview(s.ctx, c.ID, "mgr-1")
	s.Require().NoError(err)

	var verrs validator.ValidationErrors
	_, err = s.svc.Review(s.ctx, c.ID, "mgr-1", correction.ReviewRequest{Decision: "MAYBE"})
	s.ErrorAs(err, &verrs)

	c, err = s.svc.Review(s.ctx, c.ID, "mgr-1", correction.ReviewRequest{Decision: correction.DecisionReject, Note: "No badge log"})
	s.Require().NoError(err)
	s.Equal(correction.StatusRejected, c.Status)
	s.Require().NotNil(c.ReviewNote)
	s.Equal("No badge log", *c.ReviewNote)

	record = s.record(record.ID)
	s.Equal(1, record.Punches.Len())
	s.False(record.FinalisedForPayroll)
	s.Len(s.exceptions(record.ID, timeexception.TypeMissedPunch), 1)

	rejected := s.env.Notifier.OfType(notification.TypeCorrectionRejected)
	s.Require().Len(rejected, 1)
	s.Contains(rejected[0].Message, "No badge log")

	// A rejected request no longer blocks a new one.
	_, err = s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:05"))
	s.NoError(err)
}

func (s *CorrectionServiceSuite) TestOpenRequestBlocksFinalisation() {
	s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	record := s.punch(attendance.PunchTypeOut, "02/03/2026 17:00")
	s.True(record.FinalisedForPayroll)

	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindIncorrectPunchOut, "02/03/2026", "17:30"))
	s.Require().NoError(err)

	record, err = s.env.Services.Attendance.RecomputeAttendance(s.ctx, record.ID)
	s.Require().NoError(err)
	s.False(record.FinalisedForPayroll)

	s.approve(c.ID)
	record = s.record(record.ID)
	s.True(record.FinalisedForPayroll)
	s.Equal(510, record.TotalWorkMinutes)
}

func (s *CorrectionServiceSuite) TestEscalateStale() {
	record := s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	c, err := s.svc.Request(s.ctx, submit(record.ID, correction.KindMissingPunchOut, "02/03/2026", "17:00"))
	s.Require().NoError(err)

	n, err := s.svc.EscalateStale(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.env.Clock.Advance(8 * 24 * time.Hour)
	n, err = s.svc.EscalateStale(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	stored, err := s.svc.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(correction.StatusEscalated, stored.Status)
	s.NotNil(stored.EscalatedAt)

	sent := s.env.Notifier.OfType(notification.TypeCorrectionEscalated)
	s.Require().Len(sent, 2)
	s.ElementsMatch([]string{employeeID, "reviewer-1"}, []string{sent[0].RecipientID, sent[1].RecipientID})

	n, err = s.svc.EscalateStale(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	// Escalated requests still block payroll and can be decided.
	s.False(s.record(record.ID).FinalisedForPayroll)
	c, err = s.svc.Review(s.ctx, c.ID, "hr-1", correction.ReviewRequest{Decision: correction.DecisionApprove})
	s.Require().NoError(err)
	s.Equal(correction.StatusApproved, c.Status)
	s.True(s.record(record.ID).FinalisedForPayroll)
}

func (s *CorrectionServiceSuite) TestEscalateOverdueAdHoc() {
	s.punch(attendance.PunchTypeIn, "02/03/2026 09:00")
	record := s.punch(attendance.PunchTypeOut, "02/03/2026 17:00")
	brk, err := s.env.Services.BreakPermission.Create(s.ctx, timeexception.CreateBreakRequest{
		EmployeeID:         employeeID,
		AttendanceRecordID: record.ID,
		StartTime:          "02/03/2026 12:00",
		EndTime:            "02/03/2026 12:45",
		Reason:             "Clinic visit",
	})
	s.Require().NoError(err)

	n, err := s.svc.EscalateOverdueAdHoc(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.env.Clock.Advance(49 * time.Hour)
	n, err = s.svc.EscalateOverdueAdHoc(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	stored, err := s.env.Exceptions.GetByID(s.ctx, brk.ID)
	s.Require().NoError(err)
	s.Equal(timeexception.StatusEscalated, stored.Status)
	s.Len(s.env.Notifier.OfType(notification.TypeRequestOverdue), 2)

	n, err = s.svc.EscalateOverdueAdHoc(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)
	s.Len(s.env.Notifier.OfType(notification.TypeRequestOverdue), 2)
}
