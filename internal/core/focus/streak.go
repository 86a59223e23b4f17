package focus

import "time"

// StreakPolicy decides how consecutive focus days are counted.
type StreakPolicy interface {
	// Record returns the streak after a session completes at the given time.
	Record(stats Stats, at time.Time) int
	// Current returns the streak to display at the given time.
	Current(stats Stats, at time.Time) int
}

// ConsecutiveDays counts calendar days in a row with at least one completed session.
// Another session on the same day keeps the streak, the next day extends it and a gap restarts it.
type ConsecutiveDays struct {
	Location *time.Location
}

// Record implements StreakPolicy.
func (policy ConsecutiveDays) Record(stats Stats, at time.Time) int {
	if stats.LastFocusAt.IsZero() || stats.Streak <= 0 {
		return 1
	}
	last := policy.day(stats.LastFocusAt)
	today := policy.day(at)
	switch {
	case !today.After(last):
		return stats.Streak
	case last.AddDate(0, 0, 1).Equal(today):
		return stats.Streak + 1
	default:
		return 1
	}
}

// Current implements StreakPolicy. A streak whose last day is before yesterday is broken.
func (policy ConsecutiveDays) Current(stats Stats, at time.Time) int {
	if stats.LastFocusAt.IsZero() {
		return 0
	}
	last := policy.day(stats.LastFocusAt)
	today := policy.day(at)
	if last.AddDate(0, 0, 1).Before(today) {
		return 0
	}
	return stats.Streak
}

func (policy ConsecutiveDays) day(at time.Time) time.Time {
	location := policy.Location
	if location == nil {
		location = time.Local
	}
	year, month, day := at.In(location).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}
