package models

import "gorm.io/gorm"

// Driver is the actor record for a user who drives a van.
// Email, password and role live on the associated User.
type Driver struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"uniqueIndex"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}
