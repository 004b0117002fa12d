package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/somar/dispatch/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the order data access interface.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	NextSequence() (uint, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	CountDeliveredByRider(riderID uint) (int64, error)
	DeliveredTotalsByRider(riderID uint, from *time.Time) (RiderDeliveredTotals, error)
	UpdateStatusFrom(id uint, from, to string, updates map[string]interface{}) (int64, error)
	Update(id uint, updates map[string]interface{}) error
	CreateTransferLog(log *models.TransferLog) error
	ListTransferLogs(orderID uint) ([]models.TransferLog, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository is the GORM implementation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create inserts an order row.
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID fetches one order, nil when absent.
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Merchant").Preload("Rider").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate fetches one order with a row lock.
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo fetches one order by its public number.
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// NextSequence returns the next order sequence number (max id + 1).
func (r *GormOrderRepository) NextSequence() (uint, error) {
	var maxID *uint
	if err := r.db.Model(&models.Order{}).Unscoped().
		Select("MAX(id)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	if maxID == nil {
		return 1, nil
	}
	return *maxID + 1, nil
}

// List queries orders with filters and pagination.
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.RiderID != 0 {
		query = query.Where("rider_id = ?", filter.RiderID)
	}
	if filter.Unassigned {
		query = query.Where("rider_id IS NULL")
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		op := likeOperator(r.db)
		query = query.Where(
			fmt.Sprintf("(order_no %s ? OR customer_name %s ? OR customer_phone %s ?)", op, op, op),
			like, like, like,
		)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("Merchant").Preload("Rider").
		Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountDeliveredByRider counts a rider's delivered orders.
func (r *GormOrderRepository) CountDeliveredByRider(riderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("rider_id = ? AND status = ?", riderID, "delivered").
		Count(&count).Error
	return count, err
}

// RiderDeliveredTotals aggregates a rider's delivered orders.
type RiderDeliveredTotals struct {
	Count         int64           `gorm:"column:order_count"`
	TotalEarnings decimal.Decimal `gorm:"column:total_earnings"`
	TotalTips     decimal.Decimal `gorm:"column:total_tips"`
}

// DeliveredTotalsByRider sums a rider's delivered earnings, optionally from a
// cutoff time.
func (r *GormOrderRepository) DeliveredTotalsByRider(riderID uint, from *time.Time) (RiderDeliveredTotals, error) {
	query := r.db.Model(&models.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(rider_earning), 0) AS total_earnings, COALESCE(SUM(tip), 0) AS total_tips").
		Where("rider_id = ? AND status = ?", riderID, "delivered")
	if from != nil {
		query = query.Where("delivered_at >= ?", *from)
	}
	var totals RiderDeliveredTotals
	if err := query.Scan(&totals).Error; err != nil {
		return RiderDeliveredTotals{}, err
	}
	return totals, nil
}

// UpdateStatusFrom flips status only when the current status still matches.
// Returns the number of rows touched so callers can detect lost races.
func (r *GormOrderRepository) UpdateStatusFrom(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Update applies column updates unconditionally.
func (r *GormOrderRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// CreateTransferLog inserts a transfer validation audit row.
func (r *GormOrderRepository) CreateTransferLog(log *models.TransferLog) error {
	return r.db.Create(log).Error
}

// ListTransferLogs lists validation audit rows for one order.
func (r *GormOrderRepository) ListTransferLogs(orderID uint) ([]models.TransferLog, error) {
	var logs []models.TransferLog
	if err := r.db.Where("order_id = ?", orderID).
		Order("id desc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
