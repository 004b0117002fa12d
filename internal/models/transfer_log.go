package models

import "time"

// TransferLog is an audit row written when a transfer receipt is validated.
type TransferLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	OrderID      uint      `gorm:"index;not null" json:"order_id"`
	DispatcherID uint      `gorm:"index;not null" json:"dispatcher_id"`
	Amount       Money     `gorm:"type:decimal(20,2);not null" json:"amount"`
	ReceiptURL   string    `gorm:"not null" json:"receipt_url"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (TransferLog) TableName() string {
	return "transfer_logs"
}
