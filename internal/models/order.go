package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a delivery order through its whole lifecycle.
type Order struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	OrderNo         string `gorm:"uniqueIndex;not null" json:"order_no"`        // sequential PED- number
	Type            string `gorm:"type:varchar(20);not null" json:"type"`       // purchase | pickup
	Status          string `gorm:"index;not null" json:"status"`                // fine-grained lifecycle state
	CustomerID      *uint  `gorm:"index" json:"customer_id,omitempty"`          // optional directory link
	CustomerName    string `gorm:"not null" json:"customer_name"`
	CustomerPhone   string `gorm:"type:varchar(32);not null" json:"customer_phone"`
	DeliveryAddress string `gorm:"not null" json:"delivery_address"`
	MerchantID      *uint  `gorm:"index" json:"merchant_id,omitempty"`
	RiderID         *uint  `gorm:"index" json:"rider_id,omitempty"` // null until assigned

	ShippingFee    Money  `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`
	PurchaseTotal  Money  `gorm:"type:decimal(20,2);not null;default:0" json:"purchase_total"`
	Tip            Money  `gorm:"type:decimal(20,2);not null;default:0" json:"tip"`
	PaymentMethod  string `gorm:"type:varchar(20);not null" json:"payment_method"` // cash | transfer
	RiderEarning   Money  `gorm:"type:decimal(20,2);not null;default:0" json:"rider_earning"`
	PlatformMargin Money  `gorm:"type:decimal(20,2);not null;default:0" json:"platform_margin"`
	AmountDue      Money  `gorm:"type:decimal(20,2);not null;default:0" json:"amount_due"` // cash the customer hands over

	ReceiptStatus      string     `gorm:"type:varchar(20);not null;default:none" json:"receipt_status"` // transfer proof state
	ReceiptURL         string     `json:"receipt_url,omitempty"`                                        // transfer proof blob
	ReceiptValidatedAt *time.Time `json:"receipt_validated_at,omitempty"`
	PurchaseReceiptURL string     `json:"purchase_receipt_url,omitempty"` // merchant purchase proof blob

	Note string `gorm:"type:varchar(500)" json:"note,omitempty"`

	AssignedAt   *time.Time     `json:"assigned_at,omitempty"`
	AtMerchantAt *time.Time     `json:"at_merchant_at,omitempty"`
	PickedUpAt   *time.Time     `json:"picked_up_at,omitempty"`
	EnRouteAt    *time.Time     `json:"en_route_at,omitempty"`
	ArrivedAt    *time.Time     `json:"arrived_at,omitempty"`
	DeliveredAt  *time.Time     `gorm:"index" json:"delivered_at,omitempty"`
	CanceledAt   *time.Time     `json:"canceled_at,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Merchant *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	Rider    *Rider    `gorm:"foreignKey:RiderID" json:"rider,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
