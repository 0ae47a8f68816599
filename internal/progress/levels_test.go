package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	tests := []struct {
		name   string
		points int
		tier   int
		title  string
	}{
		{name: "zero points", points: 0, tier: 1, title: "Novice Explorer"},
		{name: "one chapter", points: 25, tier: 1, title: "Novice Explorer"},
		{name: "exact threshold", points: 50, tier: 2, title: "Curious Learner"},
		{name: "just below threshold", points: 99, tier: 2},
		{name: "top threshold", points: 2000, tier: 10, title: "NextGen Master"},
		{name: "beyond top", points: 99999, tier: 10},
		{name: "negative total", points: -40, tier: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetLevel(tt.points)
			assert.Equal(t, tt.tier, got.Tier)
			if tt.title != "" {
				assert.Equal(t, tt.title, got.Name)
			}
		})
	}
}

func TestLevelTableShape(t *testing.T) {
	table := Levels()
	require.Len(t, table, 10)
	assert.Equal(t, 0, table[0].MinPoints)
	assert.Equal(t, 2000, table[len(table)-1].MinPoints)
	for i := 1; i < len(table); i++ {
		assert.Greater(t, table[i].MinPoints, table[i-1].MinPoints)
		assert.Equal(t, i+1, table[i].Tier)
	}
}

func TestLevelMonotonicity(t *testing.T) {
	prev := GetLevel(-10)
	for p := -10; p <= 2500; p++ {
		cur := GetLevel(p)
		if cur.Tier < prev.Tier {
			t.Fatalf("GetLevel(%d) tier %d is below GetLevel(%d) tier %d", p, cur.Tier, p-1, prev.Tier)
		}
		prev = cur
	}
}

func TestNextLevel(t *testing.T) {
	next, remaining, ok := NextLevel(25)
	require.True(t, ok)
	assert.Equal(t, 2, next.Tier)
	assert.Equal(t, 25, remaining)

	next, remaining, ok = NextLevel(1999)
	require.True(t, ok)
	assert.Equal(t, 10, next.Tier)
	assert.Equal(t, 1, remaining)

	_, _, ok = NextLevel(2000)
	assert.False(t, ok)
}
