package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/prommonitor/internal/domain"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCronOracle_IsValid(t *testing.T) {
	o := NewCronOracle(nil)
	assert.True(t, o.IsValid("0 20 * * 1-5"))
	assert.True(t, o.IsValid("@daily"))
	assert.False(t, o.IsValid("not a cron"))
	assert.False(t, o.IsValid("0 0 20 * * 1-5")) // seconds field not accepted
	assert.False(t, o.IsValid(""))
	assert.False(t, o.IsValid("@every 2h"))
}

func TestCronOracle_MostRecent(t *testing.T) {
	o := NewCronOracle(time.UTC)
	cases := []struct {
		name string
		expr string
		ref  string
		want string
	}{
		{"same day", "0 20 * * *", "2024-03-05T22:00:00Z", "2024-03-05T20:00:00Z"},
		{"previous day", "0 20 * * *", "2024-03-05T10:00:00Z", "2024-03-04T20:00:00Z"},
		{"strictly before ref", "0 * * * *", "2024-03-05T10:00:00Z", "2024-03-05T09:00:00Z"},
		{"every minute", "* * * * *", "2024-03-05T10:00:30Z", "2024-03-05T10:00:00Z"},
		{"weekly", "0 20 * * 5", "2024-03-03T12:00:00Z", "2024-03-01T20:00:00Z"},
		{"monthly", "0 0 1 * *", "2024-03-20T00:00:00Z", "2024-03-01T00:00:00Z"},
		{"yearly", "0 0 1 1 *", "2024-03-20T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"leap day", "0 0 29 2 *", "2025-03-01T00:00:00Z", "2024-02-29T00:00:00Z"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := o.MostRecent(c.expr, at(c.ref))
			require.NoError(t, err)
			assert.True(t, got.Equal(at(c.want)), "want %s got %s", c.want, got)
		})
	}
}

func TestCronOracle_MostRecentUsesLocation(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	o := NewCronOracle(plus2)

	// 06:00Z is 08:00 local, so today's 07:00 local (05:00Z) already fired
	got, err := o.MostRecent("0 7 * * *", at("2024-03-05T06:00:00Z"))
	require.NoError(t, err)
	assert.True(t, got.Equal(at("2024-03-05T05:00:00Z")), "got %s", got)
}

func TestCronOracle_Errors(t *testing.T) {
	o := NewCronOracle(time.UTC)

	_, err := o.MostRecent("bogus", at("2024-03-05T06:00:00Z"))
	assert.ErrorIs(t, err, domain.ErrScheduleExpression)

	// valid syntax, never fires
	_, err = o.MostRecent("0 0 30 2 *", at("2024-03-05T06:00:00Z"))
	assert.ErrorIs(t, err, domain.ErrScheduleExpression)

	// intervals have no fixed occurrences
	_, err = o.MostRecent("@every 2h", at("2026-01-01T12:30:00Z"))
	assert.ErrorIs(t, err, domain.ErrScheduleExpression)
}

func TestWindow_ScaledDown(t *testing.T) {
	w := NewWindow([]string{"dev-a"}, "0 20 * * *", "0 7 * * *", NewCronOracle(time.UTC))

	cases := []struct {
		ref  string
		want bool
	}{
		{"2024-03-05T22:00:00Z", true},  // after today's scale-down
		{"2024-03-05T03:00:00Z", true},  // overnight
		{"2024-03-05T10:00:00Z", false}, // scaled back up at 07:00
		{"2024-03-05T19:59:00Z", false},
	}
	for _, c := range cases {
		got, err := w.ScaledDown("dev-a", at(c.ref))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "ref %s", c.ref)
	}

	// clusters outside the group are never excluded
	got, err := w.ScaledDown("prod-a", at("2024-03-05T22:00:00Z"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestWindow_WeekendScaleDown(t *testing.T) {
	w := NewWindow([]string{"dev-a"}, "0 20 * * 5", "0 7 * * 1", NewCronOracle(time.UTC))

	got, err := w.ScaledDown("dev-a", at("2024-03-03T12:00:00Z")) // Sunday
	require.NoError(t, err)
	assert.True(t, got)

	got, err = w.ScaledDown("dev-a", at("2024-03-06T12:00:00Z")) // Wednesday
	require.NoError(t, err)
	assert.False(t, got)
}

func TestWindow_InvalidExpressionFailsOpen(t *testing.T) {
	cases := []struct {
		name, down, up string
	}{
		{"unparsable", "0 20 * * *", "every morning"},
		{"interval", "@every 2h", "0 0 * * *"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWindow([]string{"dev-a"}, c.down, c.up, NewCronOracle(time.UTC))
			got, err := w.ScaledDown("dev-a", at("2026-01-01T12:30:00Z"))
			assert.False(t, got)
			assert.ErrorIs(t, err, domain.ErrScheduleExpression)
		})
	}
}

type fixedOracle struct {
	times map[string]time.Time
}

func (f fixedOracle) IsValid(expr string) bool { _, ok := f.times[expr]; return ok }
func (f fixedOracle) MostRecent(expr string, _ time.Time) (time.Time, error) {
	return f.times[expr], nil
}

func TestWindow_EqualOccurrencesAreNotScaledDown(t *testing.T) {
	ts := at("2024-03-05T07:00:00Z")
	w := NewWindow([]string{"dev-a"}, "down", "up", fixedOracle{times: map[string]time.Time{"down": ts, "up": ts}})
	got, err := w.ScaledDown("dev-a", ts.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestWindow_NilExcludesNothing(t *testing.T) {
	w := NewWindow(nil, "0 20 * * *", "0 7 * * *", NewCronOracle(time.UTC))
	require.Nil(t, w)
	assert.False(t, w.Covers("dev-a"))
	got, err := w.ScaledDown("dev-a", time.Now())
	require.NoError(t, err)
	assert.False(t, got)
}
