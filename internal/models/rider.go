package models

import (
	"time"

	"gorm.io/gorm"
)

// Rider is a courier account. CashOnHand is the "guaca": cash collected on
// delivered orders that the rider still owes the platform. It is mutated only
// through the cash ledger.
type Rider struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	AuthUID      string         `gorm:"uniqueIndex;not null" json:"auth_uid"` // external identity key
	Name         string         `gorm:"not null" json:"name"`
	Phone        string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	CashOnHand   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cash_on_hand"`
	Active       bool           `gorm:"not null;default:true;index" json:"active"`
	Verified     bool           `gorm:"not null;default:false" json:"verified"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Rider) TableName() string {
	return "riders"
}
