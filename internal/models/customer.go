package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer is a repeat-customer directory entry used to prefill orders.
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `gorm:"type:varchar(32);index" json:"phone,omitempty"`
	Address   string         `json:"address,omitempty"`
	Note      string         `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Customer) TableName() string {
	return "customers"
}
