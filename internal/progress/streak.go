package progress

import (
	"sort"
	"time"
)

// DayLayout is the ISO date format used for active days
const DayLayout = "2006-01-02"

// GetStreak returns the number of consecutive calendar days ending on
// today that appear in activeDays. A streak whose latest day is before
// today has lapsed and counts as 0. Unparseable and future entries are
// ignored, duplicates count once.
func GetStreak(activeDays []string, today time.Time) int {
	todayDate := truncateDay(today)

	seen := make(map[string]bool, len(activeDays))
	days := make([]time.Time, 0, len(activeDays))
	for _, s := range activeDays {
		d, err := time.ParseInLocation(DayLayout, s, today.Location())
		if err != nil || d.After(todayDate) || seen[d.Format(DayLayout)] {
			continue
		}
		seen[d.Format(DayLayout)] = true
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	if !days[0].Equal(todayDate) {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].AddDate(0, 0, 1).Equal(days[i-1]) {
			break
		}
		streak++
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
