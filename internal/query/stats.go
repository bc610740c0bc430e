package query

import (
	"cmp"
	"slices"
	"time"

	"nutrichef/internal/recipe"
)

// DefaultTopIngredients is how many ingredients the dashboard ranks.
const DefaultTopIngredients = 10

// DayCount is the number of history entries created on one date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// IngredientCount is how often an ingredient appears across history.
type IngredientCount struct {
	Ingredient string `json:"ingredient"`
	Count      int    `json:"count"`
}

// Summary holds the dashboard headline numbers.
type Summary struct {
	Recipes   int `json:"recipes"`
	Favorites int `json:"favorites"`
	History   int `json:"history"`
	Today     int `json:"today"`
}

// entryDate returns the YYYY-MM-DD date of a history timestamp.
func entryDate(timestamp string) (string, bool) {
	t, err := time.Parse(recipe.TimestampLayout, timestamp)
	if err != nil {
		if len(timestamp) < 10 {
			return "", false
		}
		if t, err = time.Parse(time.DateOnly, timestamp[:10]); err != nil {
			return "", false
		}
	}
	return t.Format(time.DateOnly), true
}

// DailyCounts groups history by calendar date, oldest date first. Entries
// with an unparseable timestamp are skipped.
func DailyCounts(history []recipe.HistoryEntry) []DayCount {
	counts := make(map[string]int)
	var dates []string
	for _, h := range history {
		date, ok := entryDate(h.Timestamp)
		if !ok {
			continue
		}
		if _, seen := counts[date]; !seen {
			dates = append(dates, date)
		}
		counts[date]++
	}

	slices.Sort(dates)
	out := make([]DayCount, 0, len(dates))
	for _, d := range dates {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

// TopIngredients ranks ingredients across history by descending count and
// returns at most limit of them. Ties keep the order in which the
// ingredients were first seen.
func TopIngredients(history []recipe.HistoryEntry, limit int) []IngredientCount {
	index := make(map[string]int)
	var ranked []IngredientCount
	for _, h := range history {
		for _, ing := range h.Ingredients {
			if i, ok := index[ing]; ok {
				ranked[i].Count++
				continue
			}
			index[ing] = len(ranked)
			ranked = append(ranked, IngredientCount{Ingredient: ing, Count: 1})
		}
	}

	slices.SortStableFunc(ranked, func(a, b IngredientCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		return []IngredientCount{}
	}
	return ranked
}

// TodayCount returns how many history entries were created on now's date.
func TodayCount(history []recipe.HistoryEntry, now time.Time) int {
	today := now.Format(time.DateOnly)
	n := 0
	for _, h := range history {
		if date, ok := entryDate(h.Timestamp); ok && date == today {
			n++
		}
	}
	return n
}

// Summarize builds the dashboard headline numbers.
func Summarize(recipes, favorites int, history []recipe.HistoryEntry, now time.Time) Summary {
	return Summary{
		Recipes:   recipes,
		Favorites: favorites,
		History:   len(history),
		Today:     TodayCount(history, now),
	}
}

// Tips are the nutrition tips shown on the dashboard.
var Tips = []string{
	"Eat a variety of colors in your meals: each color brings different nutrients",
	"Drink at least 2 liters of water a day",
	"Prepare meals ahead of time to keep a healthy diet",
	"Fill at least half of your plate with vegetables",
	"Chew slowly and enjoy your meals",
}
