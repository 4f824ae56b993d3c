package domain

import "time"

// StartOfDayUTC truncates a timestamp to UTC midnight. All workoutDate and
// checkInDate values go through this before hitting the database so the
// per-day unique indexes compare like with like.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekdayMondayFirst converts Go's Sunday-first weekday to the Monday-first
// 1..7 numbering used by PlanDay and WorkoutLog.
func WeekdayMondayFirst(t time.Time) int {
	wd := int(t.UTC().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// StartOfWeekUTC returns UTC midnight of the Monday of t's week.
func StartOfWeekUTC(t time.Time) time.Time {
	day := StartOfDayUTC(t)
	return day.AddDate(0, 0, 1-WeekdayMondayFirst(day))
}

// RangesOverlap reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// SameDayUTC reports whether two timestamps fall on the same UTC calendar day.
func SameDayUTC(a, b time.Time) bool {
	return StartOfDayUTC(a).Equal(StartOfDayUTC(b))
}
