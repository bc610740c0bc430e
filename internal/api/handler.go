package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrichef/internal/cookbook"
	"nutrichef/internal/logger"
	"nutrichef/internal/query"
	"nutrichef/internal/recipe"
)

// Cookbook defines the collection operations the HTTP surface needs.
type Cookbook interface {
	Generate(ctx context.Context, req recipe.Request) (*recipe.Recipe, error)
	Recipe(id string) (recipe.Recipe, bool)
	FilterRecipes(cuisine string, difficulty recipe.Difficulty) []recipe.Recipe
	AddToFavorites(ctx context.Context, id, name string) (cookbook.FavoriteOutcome, error)
	RemoveFromFavorites(ctx context.Context, id string) (bool, error)
	ResolveFavorites() []recipe.Recipe
	PruneFavorites(ctx context.Context) (int, error)
	IsFavorite(id string) bool
	History() []recipe.HistoryEntry
	Counts() (recipes, favorites, history int)
}

// Handler handles HTTP requests.
type Handler struct {
	Cookbook Cookbook
	// PageSize is used when a history request carries no page_size.
	PageSize int
	Now      func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(cb Cookbook, pageSize int) *Handler {
	return &Handler{Cookbook: cb, PageSize: pageSize, Now: time.Now}
}

// writeTimeout bounds the store writes made by a single request.
const writeTimeout = 5 * time.Second

type generateRequest struct {
	recipe.Request
	// IngredientsText is multi-line input, one ingredient per line. It is
	// appended to Ingredients.
	IngredientsText string `json:"ingredients_text"`
}

// favoriteView is a favorite recipe with its ingredient preview.
type favoriteView struct {
	recipe.Recipe
	Preview string `json:"preview"`
}

// historyView is a history entry with its ingredient preview.
type historyView struct {
	recipe.HistoryEntry
	Preview string `json:"preview"`
}

// Generate builds a recipe from the posted ingredients and preferences and
// adds it to the cookbook. Preferences missing from the body take their
// default values.
func (h *Handler) Generate(c *gin.Context) {
	req := generateRequest{Request: recipe.DefaultRequest(nil)}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %s", err.Error())})
		return
	}
	req.Ingredients = append(req.Ingredients, recipe.ParseIngredients(req.IngredientsText)...)

	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	r, err := h.Cookbook.Generate(ctx, req.Request)
	if err != nil {
		if recipe.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.storageError(c, "generate recipe", err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// GetRecipes lists recipes, optionally filtered by cuisine and difficulty.
func (h *Handler) GetRecipes(c *gin.Context) {
	var difficulty recipe.Difficulty
	if label := c.Query("difficulty"); label != "" {
		d, err := recipe.ParseDifficulty(label)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		difficulty = d
	}

	c.JSON(http.StatusOK, h.Cookbook.FilterRecipes(c.Query("cuisine"), difficulty))
}

// GetRecipe returns a single recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	r, ok := h.Cookbook.Recipe(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": r, "favorite": h.Cookbook.IsFavorite(r.ID)})
}

// GetFavorites returns the favorite recipes with a five-ingredient preview.
func (h *Handler) GetFavorites(c *gin.Context) {
	resolved := h.Cookbook.ResolveFavorites()
	out := make([]favoriteView, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, favoriteView{Recipe: r, Preview: recipe.IngredientPreview(r.Ingredients, 5, ", ")})
	}
	c.JSON(http.StatusOK, out)
}

// AddFavorite marks a recipe as favorite. Adding it twice is not an error.
func (h *Handler) AddFavorite(c *gin.Context) {
	r, ok := h.Cookbook.Recipe(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	outcome, err := h.Cookbook.AddToFavorites(ctx, r.ID, r.Name)
	if err != nil {
		h.storageError(c, "add favorite", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added":   outcome == cookbook.FavoriteAdded,
		"message": outcome.Message(r.Name),
	})
}

// RemoveFavorite unmarks a favorite. Removing an unknown id reports
// removed=false.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	removed, err := h.Cookbook.RemoveFromFavorites(ctx, c.Param("id"))
	if err != nil {
		h.storageError(c, "remove favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// PruneFavorites drops favorites whose recipe no longer exists.
func (h *Handler) PruneFavorites(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	pruned, err := h.Cookbook.PruneFavorites(ctx)
	if err != nil {
		h.storageError(c, "prune favorites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}

// GetHistory searches, sorts and paginates the generation history.
func (h *Handler) GetHistory(c *gin.Context) {
	dir, err := query.ParseDirection(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := intQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pageSize, err := intQuery(c, "page_size", h.PageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := query.HistoryView(h.Cookbook.History(), c.Query("q"), dir, pageSize, page)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]historyView, 0, len(view.Entries))
	for _, e := range view.Entries {
		entries = append(entries, historyView{HistoryEntry: e, Preview: recipe.IngredientPreview(e.Ingredients, 3, ", ")})
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":    entries,
		"page":       view.Page,
		"page_count": view.PageCount,
		"page_size":  view.PageSize,
		"total":      view.Total,
		"offset":     view.Offset,
	})
}

// GetDashboard returns the headline numbers, daily activity, the most used
// ingredients and the nutrition tips.
func (h *Handler) GetDashboard(c *gin.Context) {
	history := h.Cookbook.History()
	recipes, favorites, _ := h.Cookbook.Counts()

	c.JSON(http.StatusOK, gin.H{
		"summary":         query.Summarize(recipes, favorites, history, h.Now()),
		"daily_counts":    query.DailyCounts(history),
		"top_ingredients": query.TopIngredients(history, query.DefaultTopIngredients),
		"tips":            query.Tips,
	})
}

// GetOptions returns the preference catalogs and their defaults.
func (h *Handler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cuisines":     recipe.Cuisines,
		"difficulties": recipe.Difficulties,
		"prep_time": gin.H{
			"min": recipe.MinPrepTime, "max": recipe.MaxPrepTime,
			"step": recipe.PrepTimeStep, "default": recipe.DefaultPrepTime,
		},
		"servings": gin.H{
			"min": recipe.MinServings, "max": recipe.MaxServings, "default": recipe.DefaultServings,
		},
		"default_difficulty": recipe.DefaultDifficulty,
	})
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) storageError(c *gin.Context, op string, err error) {
	logger.Error(op+" failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": fmt.Sprintf("%s timed out", op)})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %s", op, err.Error())})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
