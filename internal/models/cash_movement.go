package models

import "time"

// CashMovement is one cash custody ledger entry. Exactly one row exists per
// successful credit; Reference carries the idempotency key.
type CashMovement struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	RiderID       uint      `gorm:"index;not null" json:"rider_id"`
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`
	Type          string    `gorm:"type:varchar(30);not null" json:"type"` // delivery_credit | settlement
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null" json:"balance_before"`
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	Reference     string    `gorm:"uniqueIndex;not null" json:"reference"`
	Remark        string    `gorm:"type:varchar(255)" json:"remark,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (CashMovement) TableName() string {
	return "cash_movements"
}
