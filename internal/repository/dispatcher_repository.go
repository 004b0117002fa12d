package repository

import (
	"errors"
	"strings"

	"github.com/somar/dispatch/internal/models"

	"gorm.io/gorm"
)

// DispatcherRepository is the dashboard account data access interface.
type DispatcherRepository interface {
	GetByID(id uint) (*models.Dispatcher, error)
	GetByUsername(username string) (*models.Dispatcher, error)
	Create(dispatcher *models.Dispatcher) error
	Update(dispatcher *models.Dispatcher) error
	WithTx(tx *gorm.DB) *GormDispatcherRepository
}

// GormDispatcherRepository is the GORM implementation.
type GormDispatcherRepository struct {
	db *gorm.DB
}

// NewDispatcherRepository creates the dispatcher repository.
func NewDispatcherRepository(db *gorm.DB) *GormDispatcherRepository {
	return &GormDispatcherRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormDispatcherRepository) WithTx(tx *gorm.DB) *GormDispatcherRepository {
	if tx == nil {
		return r
	}
	return &GormDispatcherRepository{db: tx}
}

// GetByID fetches one dispatcher, nil when absent.
func (r *GormDispatcherRepository) GetByID(id uint) (*models.Dispatcher, error) {
	if id == 0 {
		return nil, nil
	}
	var dispatcher models.Dispatcher
	if err := r.db.First(&dispatcher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dispatcher, nil
}

// GetByUsername fetches one dispatcher by login name.
func (r *GormDispatcherRepository) GetByUsername(username string) (*models.Dispatcher, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var dispatcher models.Dispatcher
	if err := r.db.Where("username = ?", username).First(&dispatcher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dispatcher, nil
}

// Create inserts a dispatcher row.
func (r *GormDispatcherRepository) Create(dispatcher *models.Dispatcher) error {
	return r.db.Create(dispatcher).Error
}

// Update saves a dispatcher row.
func (r *GormDispatcherRepository) Update(dispatcher *models.Dispatcher) error {
	return r.db.Save(dispatcher).Error
}
