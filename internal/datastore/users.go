package datastore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/observability/metrics"
	"github.com/tphakala/nutritive-go/internal/privacy"
)

// ErrEmailRegistered is the message of the conflict raised for a duplicate email
const ErrEmailRegistered = "Email already registered"

// CreateUser validates and stores a new user. The id and creation time are
// assigned when empty.
func (ds *DataStore) CreateUser(ctx context.Context, user *User) (err error) {
	defer ds.track(metrics.OpUserCreate, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpUserCreate)
	if err != nil {
		return err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := user.Validate(); err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
		return dbError(err, metrics.OpUserCreate)
	}
	if existing > 0 {
		return conflictError(ErrEmailRegistered, "email")
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ds.clock().UTC()
	}

	if err := db.Create(user).Error; err != nil {
		if isConstraintViolation(err) {
			return conflictError(ErrEmailRegistered, "email")
		}
		return dbError(err, metrics.OpUserCreate, "user_id", user.ID)
	}

	GetLogger().Info("user created",
		logger.String("user_id", user.ID),
		logger.String("email", privacy.MaskEmail(user.Email)))
	return nil
}

// GetUser returns the user with the given id
func (ds *DataStore) GetUser(ctx context.Context, id string) (user *User, err error) {
	defer ds.track(metrics.OpUserGet, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpUserGet)
	if err != nil {
		return nil, err
	}

	var u User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "User", id, metrics.OpUserGet)
	}
	return &u, nil
}

// UpdateUser applies upd to the stored user and returns the result
func (ds *DataStore) UpdateUser(ctx context.Context, id string, upd *UserUpdate) (user *User, err error) {
	defer ds.track(metrics.OpUserUpdate, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpUserUpdate)
	if err != nil {
		return nil, err
	}

	var u User
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return lookupError(err, "User", id, metrics.OpUserUpdate)
		}
		if upd != nil {
			upd.apply(&u)
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if err := tx.Save(&u).Error; err != nil {
			return dbError(err, metrics.OpUserUpdate, "user_id", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a user together with their meals
func (ds *DataStore) DeleteUser(ctx context.Context, id string) (err error) {
	defer ds.track(metrics.OpUserDelete, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpUserDelete)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&User{}, "id = ?", id)
		if res.Error != nil {
			return dbError(res.Error, metrics.OpUserDelete, "user_id", id)
		}
		if res.RowsAffected == 0 {
			return notFoundError("User", id)
		}
		if err := tx.Delete(&Meal{}, "user_id = ?", id).Error; err != nil {
			return dbError(err, metrics.OpUserDelete, "user_id", id)
		}
		return nil
	})
}

// ListUsers returns all users ordered by creation time
func (ds *DataStore) ListUsers(ctx context.Context) (users []User, err error) {
	defer ds.track(metrics.OpUserList, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpUserList)
	if err != nil {
		return nil, err
	}

	users = []User{}
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, dbError(err, metrics.OpUserList)
	}
	return users, nil
}
