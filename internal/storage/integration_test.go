//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	favorites := []string{}
	require.NoError(t, s.Load(ctx, Favorites, &favorites))
	assert.Empty(t, favorites)

	require.NoError(t, s.Save(ctx, Favorites, []string{"2025-12-18T10:00:00.000000"}))
	require.NoError(t, s.Load(ctx, Favorites, &favorites))
	assert.Equal(t, []string{"2025-12-18T10:00:00.000000"}, favorites)

	batch, ok := s.(BatchSaver)
	require.True(t, ok)
	require.NoError(t, batch.SaveAll(ctx,
		Write{Collection: Recipes, Records: []map[string]string{{"name": "Recipe with Maçã"}}},
		Write{Collection: History, Records: []map[string]string{{"recipe_name": "Recipe with Maçã"}}},
	))

	var history []map[string]string
	require.NoError(t, s.Load(ctx, History, &history))
	assert.Equal(t, "Recipe with Maçã", history[0]["recipe_name"])
}

func TestPostgresStore(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	}, "5432")

	s, err := NewSQLStore("postgres", fmt.Sprintf("postgres://test:test@%s/test?sslmode=disable", addr))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}, "6379")

	s, err := NewRedisStore(context.Background(), "redis://"+addr+"/0", "test")
	require.NoError(t, err)
	defer s.Close()

	logs := observeLogs(t)
	exerciseStore(t, s)

	got := messages(logs)
	assert.Contains(t, got, "collection key missing")
	assert.Contains(t, got, "collection saved")
	assert.Contains(t, got, "collections saved")
	assert.Contains(t, got, "collection loaded")
}
