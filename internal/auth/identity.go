// Package auth resolves caller identities for the tracking core. Token
// verification is a black box that yields a stable user id and role; the
// resolver functions walk the actor records to answer "is this caller a
// driver", "is this caller a parent" and "is this parent linked to that
// driver through a child".
package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vantrack/internal/faults"
	"vantrack/internal/middleware"
	"vantrack/internal/models"
)

// Authenticate validates a bearer token and returns the caller's stable
// user id and role.
func Authenticate(token string) (uint, string, error) {
	claims, err := middleware.ValidateToken(token)
	if err != nil {
		return 0, "", err
	}
	return claims.UserID, claims.Role, nil
}

// ResolveDriverID returns the driver record id for a user, or ErrNotFound
// when the user has no driver record.
func ResolveDriverID(db *gorm.DB, userID uint) (uint, error) {
	var driver models.Driver
	if err := db.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, faults.ErrNotFound
		}
		return 0, err
	}
	return driver.ID, nil
}

// ResolveParentID returns the parent record id for a user, or ErrNotFound
// when the user has no parent record.
func ResolveParentID(db *gorm.DB, userID uint) (uint, error) {
	var parent models.Parent
	if err := db.Where("user_id = ?", userID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, faults.ErrNotFound
		}
		return 0, err
	}
	return parent.ID, nil
}

// IsParentLinkedToDriver reports whether any of the parent's children is
// assigned to the given driver.
func IsParentLinkedToDriver(db *gorm.DB, parentID, driverID uint) (bool, error) {
	var n int64
	err := db.Model(&models.Child{}).
		Where("parent_id = ? AND driver_id = ?", parentID, driverID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Resolver answers the identity questions behind an interface seam, so
// consumers depend on the questions rather than on the database handle.
type Resolver struct {
	db *gorm.DB
}

// NewResolver wraps a gorm handle in a Resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) ResolveDriverID(ctx context.Context, userID uint) (uint, error) {
	return ResolveDriverID(r.db.WithContext(ctx), userID)
}

func (r *Resolver) ResolveParentID(ctx context.Context, userID uint) (uint, error) {
	return ResolveParentID(r.db.WithContext(ctx), userID)
}

func (r *Resolver) IsParentLinkedToDriver(ctx context.Context, parentID, driverID uint) (bool, error) {
	return IsParentLinkedToDriver(r.db.WithContext(ctx), parentID, driverID)
}
