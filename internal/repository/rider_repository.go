package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/somar/dispatch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RiderRepository is the rider + cash ledger data access interface.
type RiderRepository interface {
	GetByID(id uint) (*models.Rider, error)
	GetByIDForUpdate(id uint) (*models.Rider, error)
	GetByAuthUID(authUID string) (*models.Rider, error)
	GetByEmail(email string) (*models.Rider, error)
	Create(rider *models.Rider) error
	Update(rider *models.Rider) error
	List(filter RiderListFilter) ([]models.Rider, int64, error)
	CreateMovement(movement *models.CashMovement) error
	GetMovementByReference(reference string) (*models.CashMovement, error)
	ListMovements(filter CashMovementListFilter) ([]models.CashMovement, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormRiderRepository
}

// GormRiderRepository is the GORM implementation.
type GormRiderRepository struct {
	db *gorm.DB
}

// NewRiderRepository creates the rider repository.
func NewRiderRepository(db *gorm.DB) *GormRiderRepository {
	return &GormRiderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRiderRepository) WithTx(tx *gorm.DB) *GormRiderRepository {
	if tx == nil {
		return r
	}
	return &GormRiderRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormRiderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID fetches one rider, nil when absent.
func (r *GormRiderRepository) GetByID(id uint) (*models.Rider, error) {
	if id == 0 {
		return nil, nil
	}
	var rider models.Rider
	if err := r.db.First(&rider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rider, nil
}

// GetByIDForUpdate fetches one rider with a row lock.
func (r *GormRiderRepository) GetByIDForUpdate(id uint) (*models.Rider, error) {
	if id == 0 {
		return nil, nil
	}
	var rider models.Rider
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rider, nil
}

// GetByAuthUID fetches one rider by external identity key.
func (r *GormRiderRepository) GetByAuthUID(authUID string) (*models.Rider, error) {
	authUID = strings.TrimSpace(authUID)
	if authUID == "" {
		return nil, nil
	}
	var rider models.Rider
	if err := r.db.Where("auth_uid = ?", authUID).First(&rider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rider, nil
}

// GetByEmail fetches one rider by login email.
func (r *GormRiderRepository) GetByEmail(email string) (*models.Rider, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var rider models.Rider
	if err := r.db.Where("email = ?", email).First(&rider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rider, nil
}

// Create inserts a rider row.
func (r *GormRiderRepository) Create(rider *models.Rider) error {
	return r.db.Create(rider).Error
}

// Update saves a rider row.
func (r *GormRiderRepository) Update(rider *models.Rider) error {
	return r.db.Save(rider).Error
}

// List queries riders with filters and pagination.
func (r *GormRiderRepository) List(filter RiderListFilter) ([]models.Rider, int64, error) {
	query := r.db.Model(&models.Rider{})
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		op := likeOperator(r.db)
		query = query.Where(
			fmt.Sprintf("(name %s ? OR phone %s ? OR email %s ?)", op, op, op),
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var riders []models.Rider
	if err := query.Order("id asc").Find(&riders).Error; err != nil {
		return nil, 0, err
	}
	return riders, total, nil
}

// CreateMovement inserts a cash ledger row.
func (r *GormRiderRepository) CreateMovement(movement *models.CashMovement) error {
	return r.db.Create(movement).Error
}

// GetMovementByReference fetches a ledger row by idempotency reference.
func (r *GormRiderRepository) GetMovementByReference(reference string) (*models.CashMovement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var movement models.CashMovement
	if err := r.db.Where("reference = ?", reference).First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

// ListMovements queries cash ledger rows with filters and pagination.
func (r *GormRiderRepository) ListMovements(filter CashMovementListFilter) ([]models.CashMovement, int64, error) {
	query := r.db.Model(&models.CashMovement{})
	if filter.RiderID != 0 {
		query = query.Where("rider_id = ?", filter.RiderID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
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

	var movements []models.CashMovement
	if err := query.Order("id desc").Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
