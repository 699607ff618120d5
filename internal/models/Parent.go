package models

import "gorm.io/gorm"

// Parent is the actor record for a user who follows a van carrying their child.
type Parent struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"uniqueIndex"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}
