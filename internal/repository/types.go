package repository

import "time"

// OrderListFilter filters order list queries.
type OrderListFilter struct {
	Page        int
	PageSize    int
	Status      string
	Statuses    []string
	RiderID     uint
	MerchantID  uint
	Type        string
	Keyword     string
	Unassigned  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RiderListFilter filters rider list queries.
type RiderListFilter struct {
	Page       int
	PageSize   int
	OnlyActive bool
	Keyword    string
}

// CashMovementListFilter filters cash ledger queries.
type CashMovementListFilter struct {
	Page        int
	PageSize    int
	RiderID     uint
	OrderID     uint
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// MerchantListFilter filters merchant directory queries.
type MerchantListFilter struct {
	Page       int
	PageSize   int
	OnlyActive bool
	Keyword    string
}

// CustomerListFilter filters customer directory queries.
type CustomerListFilter struct {
	Page     int
	PageSize int
	Keyword  string
}
