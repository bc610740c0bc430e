package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrichef/internal/config"
	"nutrichef/internal/storage"
)

func run(t *testing.T, dataDir, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

var idPattern = regexp.MustCompile(`id: (\S+)`)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func TestGenerateAndFavorite(t *testing.T) {
	dir := t.TempDir()

	out := run(t, dir, "", "generate", "Chicken", "Tomato", "--difficulty", "very easy", "--favorite")
	assert.Contains(t, out, "Recipe with Chicken, Tomato")
	assert.Contains(t, out, "2. Cook over low heat for about 15 minutes")
	assert.Contains(t, out, "Recipe with Chicken, Tomato added to favorites!")

	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2)
	id := m[1]

	out = run(t, dir, "", "favorites")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Chicken, Tomato")

	out = run(t, dir, "", "favorites", "add", id)
	assert.Contains(t, out, "is already in your favorites")

	out = run(t, dir, "", "favorites", "remove", id)
	assert.Contains(t, out, "Removed from favorites.")
	out = run(t, dir, "", "favorites", "remove", id)
	assert.Contains(t, out, "Not a favorite.")

	out = run(t, dir, "", "show", id)
	assert.Contains(t, out, "Nutrition: 350 kcal")
}

func TestGenerateFromStdin(t *testing.T) {
	dir := t.TempDir()

	out := run(t, dir, "Rice\n\n Beans \n", "generate", "--cuisine", "Mexican")
	assert.Contains(t, out, "Recipe with Rice, Beans")
	assert.Contains(t, out, "Mexican | Medium | 30 min | serves 4")
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("\n  \n"))
	cmd.SetArgs([]string{"--data-dir", t.TempDir(), "generate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please add at least one ingredient")
}

func TestHistoryAndDashboard(t *testing.T) {
	fixClock(t, time.Date(2025, 12, 18, 23, 59, 59, 0, time.Local))
	dir := t.TempDir()
	run(t, dir, "", "generate", "Chicken", "Soup")
	run(t, dir, "", "generate", "Tomato", "Salad")

	out := run(t, dir, "", "history", "-q", "chick")
	assert.Contains(t, out, "Recipe with Chicken, Soup")
	assert.NotContains(t, out, "Tomato")
	assert.Contains(t, out, "Page 1 of 1 (1 entries)")

	out = run(t, dir, "", "history", "-q", "beef")
	assert.Contains(t, out, "No history entries found.")

	out = run(t, dir, "", "dashboard")
	assert.Contains(t, out, "Recipes: 2  Favorites: 0  History: 2  Today: 2")
	assert.Contains(t, out, "Top ingredients:")
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	out := run(t, dir, "", "list")
	assert.Contains(t, out, "No recipes yet.")

	run(t, dir, "", "generate", "Pasta", "--cuisine", "Italian")
	run(t, dir, "", "generate", "Taco", "--cuisine", "Mexican")

	out = run(t, dir, "", "list", "--cuisine", "italian")
	assert.Contains(t, out, "Recipe with Pasta (Italian, Medium)")
	assert.NotContains(t, out, "Taco")
}

func TestGenerate_StampsWithClock(t *testing.T) {
	fixClock(t, time.Date(2025, 12, 18, 10, 30, 0, 0, time.Local))
	dir := t.TempDir()

	out := run(t, dir, "", "generate", "Egg")
	assert.Contains(t, out, "id: 2025-12-18T10:30:00.000000  created: 2025-12-18 10:30:00")

	out = run(t, dir, "", "generate", "Egg")
	assert.Contains(t, out, "id: 2025-12-18T10:30:00.000001")
}

func TestDataDirFlagOverridesConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  data_dir: \"\"\n"), 0o644))
	dir := t.TempDir()

	out := run(t, dir, "", "--config", cfgPath, "list")
	assert.Contains(t, out, "No recipes yet.")
}

type closeCountingStore struct {
	storage.Store
	closed int
}

func (s *closeCountingStore) Close() error {
	s.closed++
	return s.Store.Close()
}

func TestServe_ClosesStoreWhenListenFails(t *testing.T) {
	var opened *closeCountingStore
	prev := openStore
	openStore = func(ctx context.Context, cfg config.Storage) (storage.Store, error) {
		s, err := prev(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opened = &closeCountingStore{Store: s}
		return opened, nil
	}
	t.Cleanup(func() { openStore = prev })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--data-dir", t.TempDir(), "--addr", "127.0.0.1:-1", "serve"})

	require.Error(t, cmd.Execute())
	require.NotNil(t, opened)
	assert.Equal(t, 1, opened.closed)
}
