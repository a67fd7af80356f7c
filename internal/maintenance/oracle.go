package maintenance

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hamed0406/prommonitor/internal/domain"
)

// Oracle answers questions about cron expressions.
type Oracle interface {
	IsValid(expr string) bool
	// MostRecent returns the latest occurrence strictly before ref.
	MostRecent(expr string, ref time.Time) (time.Time, error)
}

// lookbacks are tried in order until one contains an occurrence. The last one
// matches the horizon robfig/cron itself searches forward.
var lookbacks = []time.Duration{
	time.Hour,
	24 * time.Hour,
	8 * 24 * time.Hour,
	32 * 24 * time.Hour,
	367 * 24 * time.Hour,
	5 * 366 * 24 * time.Hour,
}

// CronOracle evaluates standard 5-field expressions (and @descriptors) in a
// fixed location.
type CronOracle struct {
	parser cron.Parser
	loc    *time.Location
}

func NewCronOracle(loc *time.Location) *CronOracle {
	if loc == nil {
		loc = time.UTC
	}
	return &CronOracle{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:    loc,
	}
}

// parse accepts only calendar schedules. @every intervals have no fixed
// occurrences, so they cannot anchor a window.
func (o *CronOracle) parse(expr string) (*cron.SpecSchedule, error) {
	sched, err := o.parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrScheduleExpression, expr, err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("%w: %q is an interval, not a calendar schedule", domain.ErrScheduleExpression, expr)
	}
	return spec, nil
}

func (o *CronOracle) IsValid(expr string) bool {
	_, err := o.parse(expr)
	return err == nil
}

func (o *CronOracle) MostRecent(expr string, ref time.Time) (time.Time, error) {
	sched, err := o.parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	ref = ref.In(o.loc)

	for _, back := range lookbacks {
		t := sched.Next(ref.Add(-back))
		if t.IsZero() || !t.Before(ref) {
			continue
		}
		// walk forward to the last occurrence before ref
		for {
			n := sched.Next(t)
			if n.IsZero() || !n.Before(ref) {
				return t, nil
			}
			t = n
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q never fires", domain.ErrScheduleExpression, expr)
}
