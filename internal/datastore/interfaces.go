// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation and defines the interface for database operations.
type Interface interface {
	Open() error
	Close() error
	SetMetrics(recorder metrics.Recorder)

	// users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, upd *UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// meals
	SaveMeal(ctx context.Context, meal *Meal) error
	GetMeal(ctx context.Context, id string) (*Meal, error)
	DeleteMeal(ctx context.Context, id string) error
	MealHistory(ctx context.Context, userID string, filter MealFilter) ([]Meal, int64, error)
	MealsBetween(ctx context.Context, userID string, from, to time.Time) ([]Meal, error)
	HasMeals(ctx context.Context, userID string) (bool, error)
	DailySummary(ctx context.Context, userID string, day time.Time) (*DailySummary, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB // GORM database instance
	metrics metrics.Recorder
	now     func() time.Time
}

// New creates a new store based on the provided settings. It returns nil
// when no database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SetMetrics attaches a metrics recorder to the store
func (ds *DataStore) SetMetrics(recorder metrics.Recorder) {
	ds.metrics = recorder
}

func (ds *DataStore) clock() time.Time {
	if ds.now != nil {
		return ds.now()
	}
	return time.Now()
}

// ready returns the context-bound database handle
func (ds *DataStore) ready(ctx context.Context, operation string) (*gorm.DB, error) {
	if ds.DB == nil {
		return nil, dbError(errors.NewStd("database connection is not initialized"), operation)
	}
	return ds.DB.WithContext(ctx), nil
}

// track records duration and outcome of an operation. Not-found results
// count as successful lookups.
func (ds *DataStore) track(operation string, start time.Time, err *error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordDuration(operation, time.Since(start).Seconds())
	if *err != nil && !errors.IsNotFound(*err) {
		ds.metrics.RecordOperation(operation, metrics.StatusError)
		ds.metrics.RecordError(operation, categorizeError(*err))
		return
	}
	ds.metrics.RecordOperation(operation, metrics.StatusSuccess)
}
