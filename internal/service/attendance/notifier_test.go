package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/app/apptest"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/notification/mocks"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/timeexception"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/holiday"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-timekeeping-go/internal/repository/memory"
)

// servicesWith rebuilds env's services around notifier.
func servicesWith(env *apptest.Env, notifier notification.Service) *app.Services {
	return app.NewServices(
		memory.NewTransactor(),
		lock.NewMemoryLocker(),
		app.Repositories{
			Attendance:     env.Attendance,
			TimeExceptions: env.Exceptions,
			Corrections:    env.Corrections,
			Schedule:       env.Schedule,
			Holidays:       holiday.NewChecker(nil, env.Holidays),
			PayrollPeriods: env.Payroll,
		},
		notifier,
		nil,
		nil,
		env.Options,
	)
}

func TestPunchIn_NotificationFailureDoesNotFailPunch(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockService(ctrl)
	notifier.EXPECT().
		QueueNotification(gomock.Any(), gomock.Any()).
		Return(errors.New("queue unavailable")).
		MinTimes(1)
	notifier.EXPECT().SendNow(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	notifier.EXPECT().HasBeenSent(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()

	env := apptest.New(t, apptest.At(t, "02/03/2026 09:20"))
	env.AssignShift(employeeID, apptest.DayShift(schedule.PunchPolicyFirstLast), apptest.Day(t, "02/03/2026"), nil)
	svc := servicesWith(env, notifier)

	ts := "02/03/2026 09:20"
	res, err := svc.Attendance.PunchIn(context.Background(), attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &ts})
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Equal(t, 10, res.Record.LateMinutes)

	late, err := env.Exceptions.List(context.Background(), timeexception.Filter{
		AttendanceRecordID: res.Record.ID,
		Types:              []timeexception.Type{timeexception.TypeLate},
	})
	require.NoError(t, err)
	assert.Len(t, late, 1)
}

func TestPunchOut_WithdrawsClearedExceptionNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockService(ctrl)

	var queued []notification.CreateNotificationRequest
	notifier.EXPECT().
		QueueNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req notification.CreateNotificationRequest) error {
			queued = append(queued, req)
			return nil
		}).
		AnyTimes()
	notifier.EXPECT().SendNow(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	notifier.EXPECT().HasBeenSent(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()

	env := apptest.New(t, apptest.At(t, "02/03/2026 09:00"))
	env.AssignShift(employeeID, apptest.DayShift(schedule.PunchPolicyFirstLast), apptest.Day(t, "02/03/2026"), nil)
	svc := servicesWith(env, notifier)
	ctx := context.Background()

	in := "02/03/2026 09:00"
	res, err := svc.Attendance.PunchIn(ctx, attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &in})
	require.NoError(t, err)

	missed, err := env.Exceptions.List(ctx, timeexception.Filter{
		AttendanceRecordID: res.Record.ID,
		Types:              []timeexception.Type{timeexception.TypeMissedPunch},
	})
	require.NoError(t, err)
	require.Len(t, missed, 1)
	short, err := env.Exceptions.List(ctx, timeexception.Filter{
		AttendanceRecordID: res.Record.ID,
		Types:              []timeexception.Type{timeexception.TypeShortTime},
	})
	require.NoError(t, err)
	require.Len(t, short, 1)

	byType := map[notification.NotificationType]notification.CreateNotificationRequest{}
	for _, req := range queued {
		byType[req.Type] = req
	}
	require.Len(t, queued, 2)
	require.Contains(t, byType, notification.TypeMissedPunch)
	require.Contains(t, byType, notification.TypeShortTime)
	assert.Equal(t, employeeID, byType[notification.TypeMissedPunch].RecipientID)
	assert.Equal(t, missed[0].ID, *byType[notification.TypeMissedPunch].ReferenceID)

	// A full day clears both the missed punch and the shortfall.
	gomock.InOrder(
		notifier.EXPECT().DeleteForReference(gomock.Any(), missed[0].ID).Return(nil).Times(1),
		notifier.EXPECT().DeleteForReference(gomock.Any(), short[0].ID).Return(nil).Times(1),
	)

	env.Clock.Set(apptest.At(t, "02/03/2026 17:00"))
	out := "02/03/2026 17:00"
	_, err = svc.Attendance.PunchOut(ctx, attendance.PunchRequest{EmployeeID: employeeID, Timestamp: &out})
	require.NoError(t, err)
}
