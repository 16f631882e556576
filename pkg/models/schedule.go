package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrIncompleteSchedule is returned when a schedule has no frequency.
	ErrIncompleteSchedule = errors.New("schedule frequency is not set")

	// ErrInvalidScheduleTime is returned when the time is not a valid HH:MM value.
	ErrInvalidScheduleTime = errors.New("schedule time must be HH:MM")
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronSpec renders the schedule as a standard 5-field cron expression
// (minute hour day month weekday). Hourly schedules only use the minute of
// Time; weekly schedules fire on Mondays and monthly ones on the first day.
// A missing time means midnight.
func (c *ScheduleConfig) CronSpec() (string, error) {
	if c.Frequency == "" {
		return "", ErrIncompleteSchedule
	}

	hour, minute, err := parseClock(c.Time)
	if err != nil {
		return "", err
	}

	var spec string

	switch c.Frequency {
	case FrequencyHourly:
		spec = fmt.Sprintf("%d * * * *", minute)
	case FrequencyDaily:
		spec = fmt.Sprintf("%d %d * * *", minute, hour)
	case FrequencyWeekly:
		spec = fmt.Sprintf("%d %d * * 1", minute, hour)
	case FrequencyMonthly:
		spec = fmt.Sprintf("%d %d 1 * *", minute, hour)
	default:
		return "", fmt.Errorf("unknown schedule frequency %q", c.Frequency)
	}

	if _, err := cronParser.Parse(spec); err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	return spec, nil
}

// NextRun returns the first time after from at which the schedule fires.
func (c *ScheduleConfig) NextRun(from time.Time) (time.Time, error) {
	spec, err := c.CronSpec()
	if err != nil {
		return time.Time{}, err
	}

	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(from), nil
}

func parseClock(value string) (int, int, error) {
	if value == "" {
		return 0, 0, nil
	}

	h, m, ok := strings.Cut(value, ":")
	if !ok {
		return 0, 0, ErrInvalidScheduleTime
	}

	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidScheduleTime
	}

	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidScheduleTime
	}

	return hour, minute, nil
}
