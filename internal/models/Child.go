package models

import "gorm.io/gorm"

// Child links a parent to the driver who transports the child.
// Read and subscribe authorization for a trip walk this link:
// a parent may observe a trip only if one of their children is
// assigned to the trip's driver.
type Child struct {
	gorm.Model
	ParentID uint   `json:"parent_id" gorm:"index"`
	Parent   Parent `gorm:"foreignKey:ParentID" json:"-"`
	DriverID uint   `json:"driver_id" gorm:"index"`
	Driver   Driver `gorm:"foreignKey:DriverID" json:"-"`
	Name     string `json:"name"`
	School   string `json:"school"`
}
