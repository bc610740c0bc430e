package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimestampLayout is the fixed-width layout of CreatedAt and history timestamps.
// Lexicographic order of strings in this layout equals chronological order.
const TimestampLayout = "2006-01-02 15:04:05"

// IDLayout is the layout of recipe ids: an ISO-8601 timestamp with microseconds.
const IDLayout = "2006-01-02T15:04:05.000000"

// Recipe represents a generated recipe.
type Recipe struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Cuisine         string          `json:"cuisine"`
	Difficulty      Difficulty      `json:"difficulty"`
	PrepTime        int             `json:"prep_time"`
	Servings        int             `json:"servings"`
	Ingredients     []string        `json:"ingredients"`
	Instructions    []string        `json:"instructions"`
	NutritionalInfo NutritionalInfo `json:"nutritional_info"`
	CreatedAt       string          `json:"created_at"`
}

// NutritionalInfo is the per-serving estimate attached to a recipe.
type NutritionalInfo struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

// HistoryEntry records one recipe generation. Entries are append-only.
type HistoryEntry struct {
	RecipeName  string   `json:"recipe_name"`
	Timestamp   string   `json:"timestamp"`
	Ingredients []string `json:"ingredients"`
}

// Difficulty is an ordered preparation tier.
type Difficulty int

const (
	VeryEasy Difficulty = iota + 1
	Easy
	Medium
	Hard
	VeryHard
)

// Difficulties lists every tier from easiest to hardest.
var Difficulties = []Difficulty{VeryEasy, Easy, Medium, Hard, VeryHard}

var difficultyLabels = map[Difficulty]string{
	VeryEasy: "Very Easy",
	Easy:     "Easy",
	Medium:   "Medium",
	Hard:     "Hard",
	VeryHard: "Very Hard",
}

// legacyDifficultyLabels are the labels written by the first release of the app.
var legacyDifficultyLabels = map[string]Difficulty{
	"muito fácil":   VeryEasy,
	"fácil":         Easy,
	"médio":         Medium,
	"difícil":       Hard,
	"muito difícil": VeryHard,
}

// String returns the display label of the tier.
func (d Difficulty) String() string {
	if label, ok := difficultyLabels[d]; ok {
		return label
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// Valid reports whether d is one of the five known tiers.
func (d Difficulty) Valid() bool {
	_, ok := difficultyLabels[d]
	return ok
}

// Gentle reports whether the tier cooks on low heat.
func (d Difficulty) Gentle() bool {
	return d == VeryEasy || d == Easy
}

// ParseDifficulty accepts a label in any case, with or without the space
// ("very easy", "VeryEasy", "very-easy") as well as the legacy labels.
func ParseDifficulty(s string) (Difficulty, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := legacyDifficultyLabels[key]; ok {
		return d, nil
	}
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	for d, label := range difficultyLabels {
		if strings.ToLower(strings.ReplaceAll(label, " ", "")) == compact {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// MarshalJSON implements the json.Marshaler interface for Difficulty.
func (d Difficulty) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Difficulty.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("difficulty must be a string: %w", err)
	}
	parsed, err := ParseDifficulty(label)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText lets Difficulty be used in yaml and query strings.
func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// History returns the history entry recorded when r is added.
func (r *Recipe) History() HistoryEntry {
	name := r.Name
	if name == "" {
		name = UnnamedRecipe
	}
	ingredients := make([]string, len(r.Ingredients))
	copy(ingredients, r.Ingredients)
	return HistoryEntry{
		RecipeName:  name,
		Timestamp:   r.CreatedAt,
		Ingredients: ingredients,
	}
}

// IngredientPreview joins the first n ingredients, appending "+k more" when
// the list is longer.
func IngredientPreview(ingredients []string, n int, sep string) string {
	if len(ingredients) == 0 {
		return "N/A"
	}
	if len(ingredients) <= n {
		return strings.Join(ingredients, sep)
	}
	return fmt.Sprintf("%s%s+%d more", strings.Join(ingredients[:n], sep), sep, len(ingredients)-n)
}
