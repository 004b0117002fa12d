package service

import (
	"time"

	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/shopspring/decimal"
)

// StatsService computes rider performance figures for the rider app.
type StatsService struct {
	orderRepo repository.OrderRepository
	riderRepo repository.RiderRepository
}

// NewStatsService creates the stats service.
func NewStatsService(orderRepo repository.OrderRepository, riderRepo repository.RiderRepository) *StatsService {
	return &StatsService{orderRepo: orderRepo, riderRepo: riderRepo}
}

// RiderStats is the rider app earnings summary.
type RiderStats struct {
	DeliveredTotal  int64        `json:"delivered_total"`
	DeliveredToday  int64        `json:"delivered_today"`
	TotalEarnings   models.Money `json:"total_earnings"`
	TodayEarnings   models.Money `json:"today_earnings"`
	TotalTips       models.Money `json:"total_tips"`
	AveragePerOrder models.Money `json:"average_per_order"`
	CashOnHand      models.Money `json:"cash_on_hand"`
	Level           string       `json:"level"`
	NextLevelAt     int64        `json:"next_level_at"` // deliveries to the next tier, 0 at the top
}

// RiderStats aggregates delivered orders for one rider.
func (s *StatsService) RiderStats(riderID uint) (*RiderStats, error) {
	rider, err := s.riderRepo.GetByID(riderID)
	if err != nil {
		return nil, err
	}
	if rider == nil {
		return nil, ErrRiderNotFound
	}

	allTime, err := s.orderRepo.DeliveredTotalsByRider(riderID, nil)
	if err != nil {
		return nil, err
	}
	startOfDay := startOfToday()
	today, err := s.orderRepo.DeliveredTotalsByRider(riderID, &startOfDay)
	if err != nil {
		return nil, err
	}

	average := decimal.Zero
	if allTime.Count > 0 {
		average = allTime.TotalEarnings.Div(decimal.NewFromInt(allTime.Count))
	}

	level, nextAt := riderLevel(allTime.Count)
	return &RiderStats{
		DeliveredTotal:  allTime.Count,
		DeliveredToday:  today.Count,
		TotalEarnings:   models.NewMoneyFromDecimal(allTime.TotalEarnings),
		TodayEarnings:   models.NewMoneyFromDecimal(today.TotalEarnings),
		TotalTips:       models.NewMoneyFromDecimal(allTime.TotalTips),
		AveragePerOrder: models.NewMoneyFromDecimal(average),
		CashOnHand:      rider.CashOnHand,
		Level:           level,
		NextLevelAt:     nextAt,
	}, nil
}

// riderLevel maps a delivered-order count onto the level tiers.
func riderLevel(delivered int64) (string, int64) {
	switch {
	case delivered >= constants.RiderLevelOroMin:
		return constants.RiderLevelOro, 0
	case delivered >= constants.RiderLevelPlataMin:
		return constants.RiderLevelPlata, constants.RiderLevelOroMin - delivered
	case delivered >= constants.RiderLevelBronceMin:
		return constants.RiderLevelBronce, constants.RiderLevelPlataMin - delivered
	default:
		return constants.RiderLevelNovato, constants.RiderLevelBronceMin - delivered
	}
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
