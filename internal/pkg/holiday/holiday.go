package holiday

import (
	"context"
	"fmt"
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/domain/schedule"
)

const (
	CalendarUS   = "us"
	CalendarNone = "none"
)

// NewPublicCalendar returns the public holiday calendar named by name.
func NewPublicCalendar(name string) (*cal.BusinessCalendar, error) {
	bc := cal.NewBusinessCalendar()
	switch name {
	case CalendarUS:
		bc.AddHoliday(
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		)
	case CalendarNone, "":
	default:
		return nil, fmt.Errorf("unknown holiday calendar %q", name)
	}
	return bc, nil
}

// Checker combines the public calendar with company-defined holidays.
type Checker struct {
	public  *cal.BusinessCalendar
	company schedule.HolidayRepository
}

func NewChecker(public *cal.BusinessCalendar, company schedule.HolidayRepository) *Checker {
	return &Checker{public: public, company: company}
}

func (c *Checker) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if c.public != nil {
		if ok, _, _ := c.public.IsHoliday(date); ok {
			return true, nil
		}
	}
	if c.company == nil {
		return false, nil
	}
	ok, err := c.company.IsCompanyHoliday(ctx, schedule.DateOnly(date))
	if err != nil {
		return false, fmt.Errorf("failed to check company holiday: %w", err)
	}
	return ok, nil
}
