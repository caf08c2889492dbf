// Package jobs 后台定时任务
package jobs

import (
	"context"
	"donation-backend/internal/util"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

// OrderExpirer 将超时未支付的订单标记为失败
type OrderExpirer interface {
	ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	expirer OrderExpirer
	ttl     time.Duration
}

// NewScheduler spec 使用 cron 表达式或 "@every 10m"
func NewScheduler(expirer OrderExpirer, spec string, ttl time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		expirer: expirer,
		ttl:     ttl,
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	s.SweepOnce(ctx)
}

// SweepOnce 执行一次过期订单清理，失败只记录日志
func (s *Scheduler) SweepOnce(ctx context.Context) int64 {
	expired, err := s.expirer.ExpireStaleOrders(ctx, s.ttl)
	if err != nil {
		util.Logger.Error("清理过期订单失败", zap.Error(err))
		return 0
	}
	if expired > 0 {
		util.Logger.Info("已将过期订单标记为失败", zap.Int64("count", expired), zap.Duration("ttl", s.ttl))
	}
	return expired
}

func (s *Scheduler) Start() {
	s.cron.Start()
	util.Logger.Info("定时任务已启动", zap.Int("entries", len(s.cron.Entries())))
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		util.Logger.Warn("等待定时任务结束超时")
	}
}
