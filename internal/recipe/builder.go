package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// UnnamedRecipe is recorded in history when a recipe carries no name.
const UnnamedRecipe = "Unnamed recipe"

// Bounds and defaults offered to the user when collecting preferences.
const (
	MinServings     = 1
	MaxServings     = 12
	DefaultServings = 4

	MinPrepTime     = 5
	MaxPrepTime     = 180
	PrepTimeStep    = 5
	DefaultPrepTime = 30

	DefaultDifficulty = Medium
)

// Cuisines is the catalog of cuisines offered to the user. Build accepts any
// cuisine string.
var Cuisines = []string{"Brazilian", "Italian", "Asian", "Mediterranean", "Mexican", "Vegetarian"}

// Fixed nutrition estimate: calories grow with the ingredient count, the
// macro values never change.
const (
	baseCalories          = 250
	caloriesPerIngredient = 50
	fixedProteinG         = 15
	fixedCarbsG           = 35
	fixedFatG             = 8
	fixedFiberG           = 5
)

var (
	// ErrNoIngredients is returned by Build when no ingredient was provided.
	ErrNoIngredients = errors.New("please add at least one ingredient")
	// ErrInvalidServings is returned when servings fall outside MinServings..MaxServings.
	ErrInvalidServings = fmt.Errorf("servings must be between %d and %d", MinServings, MaxServings)
	// ErrInvalidPrepTime is returned for a non-positive preparation time.
	ErrInvalidPrepTime = errors.New("prep time must be a positive number of minutes")
	// ErrInvalidDifficulty is returned for a difficulty outside the five tiers.
	ErrInvalidDifficulty = errors.New("unknown difficulty")
)

// Request holds the user's ingredients and preferences.
type Request struct {
	Ingredients []string   `json:"ingredients"`
	Cuisine     string     `json:"cuisine"`
	Difficulty  Difficulty `json:"difficulty"`
	PrepTime    int        `json:"prep_time"`
	Servings    int        `json:"servings"`
}

// DefaultRequest returns a request preloaded with the default preferences.
func DefaultRequest(ingredients []string) Request {
	return Request{
		Ingredients: ingredients,
		Cuisine:     Cuisines[0],
		Difficulty:  DefaultDifficulty,
		PrepTime:    DefaultPrepTime,
		Servings:    DefaultServings,
	}
}

// IsValidationError reports whether err was caused by bad user input to Build.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoIngredients) ||
		errors.Is(err, ErrInvalidServings) ||
		errors.Is(err, ErrInvalidPrepTime) ||
		errors.Is(err, ErrInvalidDifficulty)
}

// ParseIngredients splits free text into one ingredient per line, trimming
// whitespace and dropping blank lines.
func ParseIngredients(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if ing := strings.TrimSpace(line); ing != "" {
			out = append(out, ing)
		}
	}
	return out
}

// Build synthesizes a recipe from req. The result has no ID or CreatedAt;
// those are assigned when the recipe is added to a cookbook. Build is pure:
// equal requests yield equal recipes.
func Build(req Request) (*Recipe, error) {
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			ingredients = append(ingredients, ing)
		}
	}
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	if !req.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, int(req.Difficulty))
	}
	if req.PrepTime <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPrepTime, req.PrepTime)
	}
	if req.Servings < MinServings || req.Servings > MaxServings {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidServings, req.Servings)
	}

	return &Recipe{
		Name:            recipeName(ingredients),
		Cuisine:         strings.TrimSpace(req.Cuisine),
		Difficulty:      req.Difficulty,
		PrepTime:        req.PrepTime,
		Servings:        req.Servings,
		Ingredients:     ingredients,
		Instructions:    instructions(ingredients, req.Difficulty, req.PrepTime, req.Servings),
		NutritionalInfo: estimateNutrition(ingredients),
	}, nil
}

func recipeName(ingredients []string) string {
	n := min(2, len(ingredients))
	return "Recipe with " + strings.Join(ingredients[:n], ", ")
}

func instructions(ingredients []string, d Difficulty, prepTime, servings int) []string {
	heat := "medium/high"
	if d.Gentle() {
		heat = "low"
	}
	return []string{
		fmt.Sprintf("1. Prepare all the ingredients: %s", strings.Join(ingredients, ", ")),
		fmt.Sprintf("2. Cook over %s heat for about %d minutes", heat, prepTime/2),
		"3. Season to taste and set aside",
		fmt.Sprintf("4. Serves %d people", servings),
	}
}

func estimateNutrition(ingredients []string) NutritionalInfo {
	return NutritionalInfo{
		Calories: float64(baseCalories + caloriesPerIngredient*len(ingredients)),
		ProteinG: fixedProteinG,
		CarbsG:   fixedCarbsG,
		FatG:     fixedFatG,
		FiberG:   fixedFiberG,
	}
}
