package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetStreak(t *testing.T) {
	today := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []string
		want int
	}{
		{name: "no active days", days: nil, want: 0},
		{name: "three consecutive", days: []string{"2024-01-01", "2024-01-02", "2024-01-03"}, want: 3},
		{name: "gap", days: []string{"2024-01-01", "2024-01-03"}, want: 1},
		{name: "unordered input", days: []string{"2024-01-02", "2024-01-03", "2024-01-01"}, want: 3},
		{name: "duplicates count once", days: []string{"2024-01-03", "2024-01-03", "2024-01-02"}, want: 2},
		{name: "lapsed streak", days: []string{"2024-01-01", "2024-01-02"}, want: 0},
		{name: "month boundary", days: []string{"2023-12-31", "2024-01-01", "2024-01-02", "2024-01-03"}, want: 4},
		{name: "garbage ignored", days: []string{"yesterday", "2024-01-03"}, want: 1},
		{name: "future ignored", days: []string{"2024-01-04", "2024-01-03"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStreak(tt.days, today))
		})
	}
}
