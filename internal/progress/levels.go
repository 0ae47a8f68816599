package progress

// Level is one tier of the gamification ladder
type Level struct {
	Tier      int    `json:"tier"`
	MinPoints int    `json:"minPoints"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
}

// levels is ordered by ascending MinPoints
var levels = []Level{
	{Tier: 1, MinPoints: 0, Name: "Novice Explorer", Icon: "🌱"},
	{Tier: 2, MinPoints: 50, Name: "Curious Learner", Icon: "🔍"},
	{Tier: 3, MinPoints: 100, Name: "Junior Scientist", Icon: "🧪"},
	{Tier: 4, MinPoints: 200, Name: "Star Gazer", Icon: "⭐"},
	{Tier: 5, MinPoints: 350, Name: "Robot Builder", Icon: "🤖"},
	{Tier: 6, MinPoints: 500, Name: "Space Cadet", Icon: "🚀"},
	{Tier: 7, MinPoints: 750, Name: "AI Apprentice", Icon: "🧠"},
	{Tier: 8, MinPoints: 1000, Name: "Tech Wizard", Icon: "🧙"},
	{Tier: 9, MinPoints: 1500, Name: "Innovation Hero", Icon: "🦸"},
	{Tier: 10, MinPoints: 2000, Name: "NextGen Master", Icon: "🏆"},
}

// Levels returns a copy of the level table
func Levels() []Level {
	return append([]Level(nil), levels...)
}

// GetLevel returns the highest tier whose threshold is reached. Reaching a
// threshold exactly counts. Totals below zero stay on the first tier.
func GetLevel(points int) Level {
	current := levels[0]
	for _, l := range levels {
		if points < l.MinPoints {
			break
		}
		current = l
	}
	return current
}

// NextLevel returns the tier after the current one and the points still
// needed to reach it. ok is false at the top tier.
func NextLevel(points int) (next Level, remaining int, ok bool) {
	current := GetLevel(points)
	if current.Tier >= len(levels) {
		return Level{}, 0, false
	}
	next = levels[current.Tier]
	return next, next.MinPoints - points, true
}
