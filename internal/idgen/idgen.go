// Package idgen 生成对外展示的业务编号。
//
// 捐赠和工单编号使用按年递增的序列（DON-2024-00001），序列由 Sequence 提供，
// 存储后端需要保证自增是原子的。支付、订单、收据编号使用时间戳加随机后缀，
// 可以完全并发生成。
package idgen

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Sequence 原子递增计数器，每次返回新的值（从 1 开始）
type Sequence interface {
	Next(ctx context.Context, name string) (int64, error)
}

type Generator struct {
	seq Sequence
	now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(seq Sequence) *Generator {
	return NewWithSource(seq, time.Now, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource 测试时注入固定时钟和随机源
func NewWithSource(seq Sequence, now func() time.Time, src rand.Source) *Generator {
	return &Generator{
		seq: seq,
		now: now,
		rnd: rand.New(src),
	}
}

// DonationID DON-{year}-{seq:5}
func (g *Generator) DonationID(ctx context.Context) (string, error) {
	return g.yearlySequence(ctx, "DON", "donation")
}

// TicketID TKT-{year}-{seq:5}
func (g *Generator) TicketID(ctx context.Context) (string, error) {
	return g.yearlySequence(ctx, "TKT", "ticket")
}

func (g *Generator) yearlySequence(ctx context.Context, prefix, name string) (string, error) {
	year := g.now().Year()
	n, err := g.seq.Next(ctx, fmt.Sprintf("%s:%d", name, year))
	if err != nil {
		return "", fmt.Errorf("获取%s序列失败: %w", name, err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n), nil
}

// PaymentID PAY-{base36 毫秒时间戳}-{6 位随机}
func (g *Generator) PaymentID() string {
	return g.timestamped("PAY")
}

// OrderID ORD-{base36 毫秒时间戳}-{6 位随机}
func (g *Generator) OrderID() string {
	return g.timestamped("ORD")
}

func (g *Generator) timestamped(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", prefix, ts, g.random(6))
}

// ReceiptID RCPT-{year}-{8 位随机}
func (g *Generator) ReceiptID() string {
	return fmt.Sprintf("RCPT-%d-%s", g.now().Year(), g.random(8))
}

// TransactionRef 16 位随机的模拟交易流水号
func (g *Generator) TransactionRef() string {
	return g.random(16)
}

// CardLast4 1000-9999 之间的模拟卡号后四位
func (g *Generator) CardLast4() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strconv.Itoa(1000 + g.rnd.Intn(9000))
}

func (g *Generator) random(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(base36Alphabet[g.rnd.Intn(len(base36Alphabet))])
	}
	return sb.String()
}
