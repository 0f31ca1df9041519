//go:build integration

package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/errors"
)

// setupMySQLStore starts a MySQL container and opens a migrated store on it
func setupMySQLStore(t *testing.T) *MySQLStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL container test in short mode")
	}

	ctx := context.Background()
	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("nutritive"),
		tcmysql.WithUsername("nutritive"),
		tcmysql.WithPassword("nutritive"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Output.MySQL = conf.MySQLSettings{
		Enabled:  true,
		Username: "nutritive",
		Password: "nutritive",
		Database: "nutritive",
		Host:     host,
		Port:     port.Port(),
	}

	store, ok := New(settings).(*MySQLStore)
	require.True(t, ok, "mysql settings should select MySQLStore")
	require.NoError(t, store.Open())
	store.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMySQLUserAndMealLifecycle(t *testing.T) {
	t.Attr("component", "datastore")
	t.Attr("backend", "mysql")

	store := setupMySQLStore(t)
	ctx := t.Context()

	user := testUser("Asha@Example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	assert.Equal(t, "asha@example.com", user.Email)

	err := store.CreateUser(ctx, testUser("asha@example.com"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	breakfast := testNow.Add(-4 * time.Hour)
	require.NoError(t, store.SaveMeal(ctx, testMeal(user.ID, MealBreakfast, breakfast, 350.3)))
	require.NoError(t, store.SaveMeal(ctx, testMeal(user.ID, MealLunch, testNow, 850)))

	meals, total, err := store.MealHistory(ctx, user.ID, MealFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, meals, 2)
	assert.Equal(t, MealLunch, meals[0].MealType)
	require.Len(t, meals[0].DetectedFoods, 1)
	assert.Equal(t, "dal", meals[0].DetectedFoods[0].FoodID)

	summary, err := store.DailySummary(ctx, user.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MealsCount)
	assert.InDelta(t, 1200.3, summary.TotalCalories, 1e-9)
	assert.InDelta(t, 350.3, summary.BreakfastCalories, 1e-9)

	require.NoError(t, store.DeleteUser(ctx, user.ID))
	has, err := store.HasMeals(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, has)
}
