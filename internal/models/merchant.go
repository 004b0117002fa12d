package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant is a pickup point in the merchant directory.
type Merchant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address   string         `json:"address,omitempty"`
	Lat       *float64       `json:"lat,omitempty"`
	Lon       *float64       `json:"lon,omitempty"`
	Active    bool           `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Merchant) TableName() string {
	return "merchants"
}
