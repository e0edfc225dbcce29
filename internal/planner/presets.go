package planner

import (
	"fmt"
	"sort"
	"strings"
)

// presetTemplate is the canonical retrieval prompt for a named puja. It
// matches the expansion template so preset and free-form questions retrieve
// comparably.
const presetTemplate = "Provide a step-by-step procedure for '%s'. Include: " +
	"1) A numbered step-by-step procedure " +
	"2) A bullet list of required materials with exact names " +
	"3) Any special timings or auspicious days " +
	"4) Mantras or short chants (if present in the sources) " +
	"5) Source citations (book name + page) for each major step or claim. " +
	"Only use information from the indexed books."

// presetSubjects maps preset ids to the ritual each preset describes.
var presetSubjects = map[string]string{
	"ganesh":            "Ganesh Puja",
	"durga":             "Durga Puja",
	"lakshmi":           "Lakshmi Puja",
	"saraswati":         "Saraswati Puja",
	"shiva":             "Shiva Puja",
	"vishnu":            "Vishnu Puja",
	"krishna":           "Krishna Puja",
	"hanuman":           "Hanuman Puja",
	"kali":              "Kali Puja",
	"ram":               "Ram Puja",
	"ganesha_chaturthi": "Ganesha Chaturthi celebration",
	"diwali":            "Diwali Puja and celebration",
	"navratri":          "Navratri Puja and celebration",
	"holi":              "Holi celebration and rituals",
	"janmashtami":       "Janmashtami celebration",
	"general_home_puja": "general daily home puja",
	"morning_prayers":   "morning prayers and worship",
	"evening_aarti":     "evening aarti",
	"satyanarayan":      "Satyanarayan Puja",
	"griha_pravesh":     "Griha Pravesh (housewarming) ceremony",
}

// Preset is one entry of the preset table as shown to the boundary.
type Preset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Question string `json:"question"`
}

// Presets lists the preset table sorted by id.
func Presets() []Preset {
	presets := make([]Preset, 0, len(presetSubjects))
	for id, subject := range presetSubjects {
		presets = append(presets, Preset{
			ID:       id,
			Name:     displayName(id),
			Question: fmt.Sprintf(presetTemplate, subject),
		})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets
}

// displayName turns "ganesha_chaturthi" into "Ganesha Chaturthi".
func displayName(id string) string {
	words := strings.Split(id, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
