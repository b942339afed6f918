// internal/catalog/defaults.go
package catalog

import "github.com/jason-s-yu/happyfamilies/internal/models"

// DefaultFamilies is the seed catalog written to an empty store on first load.
var DefaultFamilies = []models.Family{
	{ID: "baker", Name: "Baker", Color: "#E74C3C", Emoji: "🥖", Theme: "A village bakery at dawn, flour and warm bread"},
	{ID: "astronaut", Name: "Astronaut", Color: "#3498DB", Emoji: "🚀", Theme: "Retro space explorers in bubble helmets"},
	{ID: "magician", Name: "Magician", Color: "#9B59B6", Emoji: "🎩", Theme: "Stage illusionists with top hats and rabbits"},
	{ID: "pirate", Name: "Pirate", Color: "#27AE60", Emoji: "🏴‍☠️", Theme: "Swashbuckling sailors on a treasure hunt"},
	{ID: "inventor", Name: "Inventor", Color: "#F39C12", Emoji: "⚙️", Theme: "Steampunk workshop full of gears and gadgets"},
	{ID: "explorer", Name: "Explorer", Color: "#1ABC9C", Emoji: "🧭", Theme: "Jungle expeditions with maps and pith helmets"},
	{ID: "musician", Name: "Musician", Color: "#E67E22", Emoji: "🎵", Theme: "A travelling brass band"},
	{ID: "doctor", Name: "Doctor", Color: "#E91E63", Emoji: "🩺", Theme: "Country doctors with leather bags"},
	{ID: "firefighter", Name: "Firefighter", Color: "#FF5722", Emoji: "🚒", Theme: "Brave crews with shiny red engines"},
	{ID: "police_officer", Name: "Police Officer", Color: "#2196F3", Emoji: "🚔", Theme: "Friendly neighbourhood patrols"},
	{ID: "farmer", Name: "Farmer", Color: "#8BC34A", Emoji: "🌾", Theme: "Harvest time on a family farm"},
	{ID: "fisher", Name: "Fisher", Color: "#00BCD4", Emoji: "🎣", Theme: "Seaside fishing boats and nets"},
	{ID: "cook", Name: "Cook", Color: "#FF9800", Emoji: "👨‍🍳", Theme: "A bustling restaurant kitchen"},
	{ID: "gardener", Name: "Gardener", Color: "#4CAF50", Emoji: "🌻", Theme: "Flower beds, watering cans and greenhouses"},
}

// Palette colors are handed to generated families in rotation.
var Palette = []string{
	"#E74C3C", "#3498DB", "#27AE60", "#9B59B6", "#1ABC9C",
	"#F39C12", "#E67E22", "#2ECC71", "#E91E63", "#00BCD4",
	"#FF5722", "#795548", "#607D8B", "#8BC34A", "#FFEB3B",
	"#673AB7", "#009688", "#FF9800", "#3F51B5", "#CDDC39",
}

// paletteColor picks the color for the n-th family in the catalog.
func paletteColor(n int) string {
	return Palette[n%len(Palette)]
}
