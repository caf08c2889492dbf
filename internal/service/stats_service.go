package service

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// mealCost 按每餐 ₹25 估算
	mealCost       = 25
	monthlyBuckets = 12
	topDonorsLimit = 10
)

// fundedStatuses 计入筹款总额的状态
var fundedStatuses = []model.DonationStatus{model.DonationStatusCompleted, "paid"}

// StatsService 只读统计，每次请求都从当前数据重新计算
type StatsService struct {
	userRepo     interfaces.UserRepository
	donationRepo interfaces.DonationRepository
	now          func() time.Time
}

func NewStatsService(userRepo interfaces.UserRepository, donationRepo interfaces.DonationRepository) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		donationRepo: donationRepo,
		now:          time.Now,
	}
}

// Dashboard 各项计数彼此独立，并发查询
func (s *StatsService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	startOfMonth, startOfLastMonth := monthBounds(s.now())

	var (
		stats      model.DashboardStats
		lastMonth  int
		totalFunds float64
	)
	g, ctx := errgroup.WithContext(ctx)
	countDonations := func(dst *int, filter interfaces.DonationFilter) {
		g.Go(func() error {
			n, err := s.donationRepo.Count(ctx, filter)
			*dst = n
			return err
		})
	}
	countUsers := func(dst *int, filter interfaces.UserFilter) {
		g.Go(func() error {
			n, err := s.userRepo.Count(ctx, filter)
			*dst = n
			return err
		})
	}

	countDonations(&stats.TotalDonations, interfaces.DonationFilter{})
	countUsers(&stats.TotalUsers, interfaces.UserFilter{})
	countUsers(&stats.ActiveUsers, interfaces.UserFilter{Status: model.UserStatusActive})
	countDonations(&stats.PendingDonations, interfaces.DonationFilter{
		Statuses: []model.DonationStatus{model.DonationStatusPending},
	})
	countDonations(&stats.CompletedDonations, interfaces.DonationFilter{
		Statuses: []model.DonationStatus{model.DonationStatusCompleted, model.DonationStatusDelivered},
	})
	countDonations(&stats.MonthlyDonations, interfaces.DonationFilter{CreatedFrom: &startOfMonth})
	countDonations(&lastMonth, interfaces.DonationFilter{CreatedFrom: &startOfLastMonth, CreatedBefore: &startOfMonth})
	g.Go(func() error {
		sum, err := s.donationRepo.SumMonetary(ctx, fundedStatuses)
		totalFunds = sum
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询统计数据失败", err)
	}

	stats.TotalFunds = totalFunds
	stats.EstimatedMeals = EstimatedMeals(totalFunds)
	stats.DonationChange = DonationChange(stats.MonthlyDonations, lastMonth)
	return &stats, nil
}

// Analytics 按类型、状态、月份分组以及捐赠排行
func (s *StatsService) Analytics(ctx context.Context) (*model.DonationAnalytics, error) {
	var a model.DonationAnalytics
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a.ByType, err = s.donationRepo.CountByType(ctx)
		return err
	})
	g.Go(func() (err error) {
		a.ByStatus, err = s.donationRepo.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		a.Monthly, err = s.donationRepo.CountByMonth(ctx, monthlyBuckets)
		return err
	})
	g.Go(func() (err error) {
		a.TopDonors, err = s.userRepo.TopDonors(ctx, topDonorsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐赠分析失败", err)
	}

	if a.ByType == nil {
		a.ByType = []model.GroupCount{}
	}
	if a.ByStatus == nil {
		a.ByStatus = []model.GroupCount{}
	}
	if a.Monthly == nil {
		a.Monthly = []model.MonthlyCount{}
	}
	if a.TopDonors == nil {
		a.TopDonors = []model.TopDonor{}
	}
	return &a, nil
}

func EstimatedMeals(totalFunds float64) int64 {
	return int64(math.Floor(totalFunds / mealCost))
}

// DonationChange 环比百分比，上月为 0 时记为 100
func DonationChange(thisMonth, lastMonth int) int {
	if lastMonth <= 0 {
		return 100
	}
	change := float64(thisMonth-lastMonth) / float64(lastMonth) * 100
	return int(math.Floor(change + 0.5))
}

// monthBounds 本月和上月第一天零点，上月区间为 [startOfLastMonth, startOfMonth)
func monthBounds(now time.Time) (startOfMonth, startOfLastMonth time.Time) {
	startOfMonth = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfLastMonth = startOfMonth.AddDate(0, -1, 0)
	return startOfMonth, startOfLastMonth
}

type StatsServiceInterface interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	Analytics(ctx context.Context) (*model.DonationAnalytics, error)
}

var _ StatsServiceInterface = (*StatsService)(nil)
