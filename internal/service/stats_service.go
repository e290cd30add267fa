package service

import (
	"context"
	"time"

	"stagepass/internal/cache"
	"stagepass/internal/domain"
	"stagepass/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const statsCacheKey = "stats:dashboard"

// DashboardStats is the admin back-office overview.
type DashboardStats struct {
	Events           int64 `json:"events"`
	TicketsSold      int64 `json:"tickets_sold"`
	AdmittedToday    int64 `json:"admitted_today"`
	DuplicatesToday  int64 `json:"duplicates_today"`
	RevenueKobo      int64 `json:"revenue_kobo"`
	CoinsOutstanding int64 `json:"coins_outstanding"`
	OpenWithdrawals  int64 `json:"open_withdrawals"`
	GeneratedAt      int64 `json:"generated_at"`
}

// StatsService serves dashboard reads through a shared TTL cache so a fleet
// of instances agrees on one staleness window instead of each holding its
// own in-process numbers.
type StatsService struct {
	db     *gorm.DB
	cache  *cache.StatsCache
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, statsCache *cache.StatsCache, logger *zap.Logger) *StatsService {
	return &StatsService{db: db, cache: statsCache, logger: logger}
}

func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.compute()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, statsCacheKey, stats); err != nil {
		s.logger.Warn("stats cache write", zap.Error(err))
	}
	return stats, nil
}

func (s *StatsService) compute() (*DashboardStats, error) {
	stats := &DashboardStats{GeneratedAt: time.Now().Unix()}
	midnight := time.Now().Truncate(24 * time.Hour)

	if err := s.db.Model(&models.Event{}).Count(&stats.Events).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Ticket{}).Count(&stats.TicketsSold).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.ScanLog{}).
		Where("result = ? AND created_at >= ?", domain.ScanAdmitted, midnight).
		Count(&stats.AdmittedToday).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.ScanLog{}).
		Where("result = ? AND created_at >= ?", domain.ScanDuplicate, midnight).
		Count(&stats.DuplicatesToday).Error; err != nil {
		return nil, err
	}

	var revenue *int64
	if err := s.db.Model(&models.Payment{}).
		Where("status = ?", domain.PaymentSuccess).
		Select("SUM(amount_kobo)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.RevenueKobo = *revenue
	}

	var coins *int64
	if err := s.db.Model(&models.Wallet{}).
		Select("SUM(balance_coins)").
		Scan(&coins).Error; err != nil {
		return nil, err
	}
	if coins != nil {
		stats.CoinsOutstanding = *coins
	}

	if err := s.db.Model(&models.WithdrawalRequest{}).
		Where("status IN ?", []string{domain.WithdrawalPending, domain.WithdrawalProcessing}).
		Count(&stats.OpenWithdrawals).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
