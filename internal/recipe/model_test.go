package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipe_UnmarshalLegacyDifficulty(t *testing.T) {
	data := []byte(`{
		"id": "2025-12-18T10:00:00.000000",
		"name": "Receita com Frango, Tomate",
		"cuisine": "Brasileira",
		"difficulty": "Muito Fácil",
		"prep_time": 30,
		"servings": 4,
		"ingredients": ["Frango", "Tomate"],
		"instructions": [],
		"nutritional_info": {"calories": 350, "protein_g": 15, "carbs_g": 35, "fat_g": 8, "fiber_g": 5},
		"created_at": "2025-12-18 10:00:00"
	}`)

	var r Recipe
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, VeryEasy, r.Difficulty)
	assert.Equal(t, float64(350), r.NutritionalInfo.Calories)

	out, err := json.Marshal(r.Difficulty)
	require.NoError(t, err)
	assert.Equal(t, `"Very Easy"`, string(out))
}

func TestParseDifficulty(t *testing.T) {
	for _, in := range []string{"very hard", "VeryHard", "very-hard", " Very Hard ", "Muito Difícil"} {
		d, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, VeryHard, d, in)
	}

	_, err := ParseDifficulty("impossible")
	assert.Error(t, err)
}

func TestRecipe_History(t *testing.T) {
	r := &Recipe{Name: "Recipe with Rice", CreatedAt: "2025-01-02 03:04:05", Ingredients: []string{"Rice"}}
	h := r.History()

	r.Ingredients[0] = "Pasta"
	assert.Equal(t, "Recipe with Rice", h.RecipeName)
	assert.Equal(t, "2025-01-02 03:04:05", h.Timestamp)
	assert.Equal(t, []string{"Rice"}, h.Ingredients)

	assert.Equal(t, UnnamedRecipe, (&Recipe{}).History().RecipeName)
}

func TestIngredientPreview(t *testing.T) {
	assert.Equal(t, "N/A", IngredientPreview(nil, 3, ", "))
	assert.Equal(t, "a, b", IngredientPreview([]string{"a", "b"}, 3, ", "))
	assert.Equal(t, "a, b, c, +2 more", IngredientPreview([]string{"a", "b", "c", "d", "e"}, 3, ", "))
}
