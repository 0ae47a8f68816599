package catalog

import "nextgenschool/internal/models"

// Default returns the NextGen School course catalog
func Default() *Catalog {
	c, err := New(defaultCourses...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCourses = []models.Course{
	{
		ID:    "ai",
		Title: "AI Adventures",
		Icon:  "🤖",
		Chapters: []models.Chapter{
			{Icon: "💡", Title: "What Is AI?"},
			{Icon: "🧠", Title: "How Machines Learn"},
			{Icon: "🏷️", Title: "Sorting and Labels"},
			{Icon: "🔍", Title: "Finding Patterns"},
			{Icon: "🗣️", Title: "Talking Computers"},
			{Icon: "👀", Title: "Computer Vision"},
			{Icon: "⚖️", Title: "Fair and Safe AI"},
			{Icon: "🚀", Title: "Build Your Own AI"},
		},
	},
	{
		ID:    "space",
		Title: "Space Explorers",
		Icon:  "🪐",
		Chapters: []models.Chapter{
			{Icon: "☀️", Title: "Our Sun"},
			{Icon: "🌍", Title: "Planet Earth"},
			{Icon: "🌙", Title: "The Moon"},
			{Icon: "🪐", Title: "The Planets"},
			{Icon: "☄️", Title: "Comets and Asteroids"},
			{Icon: "🌌", Title: "Stars and Galaxies"},
			{Icon: "🛰️", Title: "Satellites"},
			{Icon: "👩‍🚀", Title: "Life of an Astronaut"},
		},
	},
	{
		ID:    "robotics",
		Title: "Robot Builders",
		Icon:  "🦾",
		Chapters: []models.Chapter{
			{Icon: "🔩", Title: "What Is a Robot?"},
			{Icon: "⚙️", Title: "Motors and Gears"},
			{Icon: "📡", Title: "Sensors"},
			{Icon: "🔋", Title: "Power and Batteries"},
			{Icon: "🧩", Title: "Giving Instructions"},
			{Icon: "🔁", Title: "Loops and Logic"},
			{Icon: "🚗", Title: "Robots That Move"},
			{Icon: "🏆", Title: "Robot Challenge"},
		},
	},
}
