// Package cookbook holds the application state: recipes, favorites and
// history. State is loaded once by Open and written through to the store
// after every mutation.
package cookbook

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nutrichef/internal/logger"
	"nutrichef/internal/recipe"
	"nutrichef/internal/storage"
)

// FavoriteOutcome reports what AddToFavorites did.
type FavoriteOutcome int

const (
	FavoriteAdded FavoriteOutcome = iota
	AlreadyFavorite
)

// Message returns the user-facing feedback for the outcome.
func (o FavoriteOutcome) Message(name string) string {
	if o == AlreadyFavorite {
		return fmt.Sprintf("%s is already in your favorites", name)
	}
	return fmt.Sprintf("%s added to favorites!", name)
}

// Cookbook is the in-memory copy of the three collections. Ids are
// timestamps; the cookbook keeps them strictly increasing, so it must be the
// only writer to its store.
type Cookbook struct {
	mu    sync.RWMutex
	store storage.Store
	now   func() time.Time

	recipes   []recipe.Recipe
	favorites []string
	history   []recipe.HistoryEntry
	lastStamp time.Time
}

// Option configures a Cookbook.
type Option func(*Cookbook)

// WithClock replaces time.Now as the source of ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cookbook) { c.now = now }
}

// Open loads every collection from store.
func Open(ctx context.Context, store storage.Store, opts ...Option) (*Cookbook, error) {
	c := &Cookbook{
		store:     store,
		now:       time.Now,
		recipes:   []recipe.Recipe{},
		favorites: []string{},
		history:   []recipe.HistoryEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := store.Load(ctx, storage.Recipes, &c.recipes); err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	if err := store.Load(ctx, storage.Favorites, &c.favorites); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if err := store.Load(ctx, storage.History, &c.history); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	for _, r := range c.recipes {
		if !r.Difficulty.Valid() {
			return nil, fmt.Errorf("load recipes: %w %s: recipe %s has no valid difficulty", storage.ErrCorrupt, storage.Recipes, r.ID)
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", r.ID, time.Local); err == nil && t.After(c.lastStamp) {
			c.lastStamp = t
		}
	}

	if orphans := c.orphanFavorites(); orphans > 0 {
		logger.Warn("favorites reference missing recipes", zap.Int("count", orphans))
	}

	logger.Debug("cookbook loaded",
		zap.Int("recipes", len(c.recipes)),
		zap.Int("favorites", len(c.favorites)),
		zap.Int("history", len(c.history)))
	return c, nil
}

// Generate builds a recipe from req and adds it.
func (c *Cookbook) Generate(ctx context.Context, req recipe.Request) (*recipe.Recipe, error) {
	r, err := recipe.Build(req)
	if err != nil {
		return nil, err
	}
	if err := c.AddRecipe(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// AddRecipe assigns r its id and creation time, appends it and records a
// history entry. Stores implementing storage.BatchSaver write both
// collections together; otherwise recipes are written before history and a
// failed history write leaves the recipe persisted.
func (c *Cookbook) AddRecipe(ctx context.Context, r *recipe.Recipe) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := c.nextStamp()
	r.ID = stamp.Format(recipe.IDLayout)
	r.CreatedAt = stamp.Format(recipe.TimestampLayout)

	recipes := append(slices.Clip(c.recipes), cloneRecipe(*r))
	history := append(slices.Clip(c.history), r.History())

	if batch, ok := c.store.(storage.BatchSaver); ok {
		err := batch.SaveAll(ctx,
			storage.Write{Collection: storage.Recipes, Records: recipes},
			storage.Write{Collection: storage.History, Records: history},
		)
		if err != nil {
			return fmt.Errorf("save recipe: %w", err)
		}
		c.recipes, c.history = recipes, history
	} else {
		if err := c.store.Save(ctx, storage.Recipes, recipes); err != nil {
			return fmt.Errorf("save recipe: %w", err)
		}
		c.recipes = recipes
		if err := c.store.Save(ctx, storage.History, history); err != nil {
			return fmt.Errorf("save history: %w", err)
		}
		c.history = history
	}

	logger.Info("recipe added", zap.String("id", r.ID), zap.String("name", r.Name))
	return nil
}

// nextStamp returns the current time at microsecond precision, moved
// forward if needed so that it is later than every id handed out before.
func (c *Cookbook) nextStamp() time.Time {
	now := c.now().Truncate(time.Microsecond)
	if !now.After(c.lastStamp) {
		now = c.lastStamp.Add(time.Microsecond)
	}
	c.lastStamp = now
	return now
}

// AddToFavorites adds id to the favorites unless it is already there.
func (c *Cookbook) AddToFavorites(ctx context.Context, id, name string) (FavoriteOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.favorites, id) {
		logger.Debug("already favorite", zap.String("id", id))
		return AlreadyFavorite, nil
	}

	favorites := append(slices.Clip(c.favorites), id)
	if err := c.store.Save(ctx, storage.Favorites, favorites); err != nil {
		return FavoriteAdded, fmt.Errorf("save favorites: %w", err)
	}
	c.favorites = favorites

	logger.Info("favorite added", zap.String("id", id), zap.String("name", name))
	return FavoriteAdded, nil
}

// RemoveFromFavorites removes id and reports whether it was a favorite.
func (c *Cookbook) RemoveFromFavorites(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.Index(c.favorites, id)
	if i < 0 {
		return false, nil
	}

	favorites := slices.Delete(slices.Clone(c.favorites), i, i+1)
	if err := c.store.Save(ctx, storage.Favorites, favorites); err != nil {
		return false, fmt.Errorf("save favorites: %w", err)
	}
	c.favorites = favorites

	logger.Info("favorite removed", zap.String("id", id))
	return true, nil
}

// ResolveFavorites returns the favorite recipes in the order they were
// created. Favorite ids that match no recipe are skipped.
func (c *Cookbook) ResolveFavorites() []recipe.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []recipe.Recipe{}
	for _, r := range c.recipes {
		if slices.Contains(c.favorites, r.ID) {
			out = append(out, cloneRecipe(r))
		}
	}
	return out
}

// PruneFavorites drops favorite ids that match no recipe and returns how
// many were dropped.
func (c *Cookbook) PruneFavorites(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.liveFavorites()

	pruned := len(c.favorites) - len(kept)
	if pruned == 0 {
		return 0, nil
	}
	if err := c.store.Save(ctx, storage.Favorites, kept); err != nil {
		return 0, fmt.Errorf("save favorites: %w", err)
	}
	c.favorites = kept

	logger.Info("favorites pruned", zap.Int("count", pruned))
	return pruned, nil
}

// Recipe looks up a recipe by id.
func (c *Cookbook) Recipe(id string) (recipe.Recipe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.recipes {
		if r.ID == id {
			return cloneRecipe(r), true
		}
	}
	return recipe.Recipe{}, false
}

// FilterRecipes returns recipes matching cuisine (case-insensitive) and
// difficulty. Empty cuisine or zero difficulty match everything.
func (c *Cookbook) FilterRecipes(cuisine string, difficulty recipe.Difficulty) []recipe.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []recipe.Recipe{}
	for _, r := range c.recipes {
		if cuisine != "" && !strings.EqualFold(r.Cuisine, cuisine) {
			continue
		}
		if difficulty != 0 && r.Difficulty != difficulty {
			continue
		}
		out = append(out, cloneRecipe(r))
	}
	return out
}

// Recipes returns every recipe in creation order.
func (c *Cookbook) Recipes() []recipe.Recipe {
	return c.FilterRecipes("", 0)
}

// IsFavorite reports whether id is a favorite.
func (c *Cookbook) IsFavorite(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.favorites, id)
}

// Favorites returns the favorite ids in insertion order, including ids that
// match no recipe.
func (c *Cookbook) Favorites() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.favorites)
}

// History returns every history entry in insertion order.
func (c *Cookbook) History() []recipe.HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]recipe.HistoryEntry, len(c.history))
	for i, h := range c.history {
		h.Ingredients = slices.Clone(h.Ingredients)
		out[i] = h
	}
	return out
}

// Counts returns the sizes of the three collections.
func (c *Cookbook) Counts() (recipes, favorites, history int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recipes), len(c.favorites), len(c.history)
}

// Close closes the underlying store.
func (c *Cookbook) Close() error {
	return c.store.Close()
}

// liveFavorites returns the favorite ids that match a recipe.
func (c *Cookbook) liveFavorites() []string {
	live := make(map[string]struct{}, len(c.recipes))
	for _, r := range c.recipes {
		live[r.ID] = struct{}{}
	}

	kept := make([]string, 0, len(c.favorites))
	for _, id := range c.favorites {
		if _, ok := live[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept
}

func (c *Cookbook) orphanFavorites() int {
	return len(c.favorites) - len(c.liveFavorites())
}

func cloneRecipe(r recipe.Recipe) recipe.Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Instructions = slices.Clone(r.Instructions)
	return r
}
