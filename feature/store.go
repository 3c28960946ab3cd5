package feature

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

// PriorProvider 是客户冷启动先验的外部来源（如 Feast 在线特征库）。
// 返回 core.IsNotFound 的错误表示该客户无先验，其余错误视为来源不可用。
type PriorProvider interface {
	// Name 返回来源名称（用于日志/监控）
	Name() string

	// CustomerPrior 获取客户的先验特征向量
	CustomerPrior(ctx context.Context, customerID string) (core.Vector, error)
}

// Store 是特征存储：加载商品/客户特征表并持有当前快照。
//
// 并发模型：
//   - 读多写少。读取走 atomic.Pointer，无锁
//   - Load 构建新快照后原子发布；读取方看到的要么是完整旧快照、
//     要么是完整新快照，绝无中间态
//   - 首次 Load 成功前 Snapshot() 返回 nil，上层据此拒绝服务
type Store struct {
	productsPath  string
	customersPath string
	prior         PriorProvider
	log           zerolog.Logger

	snap atomic.Pointer[Snapshot]
}

// Option 是 Store 的配置选项。
type Option func(*Store)

// WithLogger 设置日志器（默认丢弃日志）。
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithPriorProvider 设置远端先验来源；失败时回退到客户表的先验。
func WithPriorProvider(p PriorProvider) Option {
	return func(s *Store) { s.prior = p }
}

// NewStore 创建特征存储。customersPath 可为空（无客户先验表）。
func NewStore(productsPath, customersPath string, opts ...Option) *Store {
	s := &Store{
		productsPath:  productsPath,
		customersPath: customersPath,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 读取特征表、拟合归一化边界并原子发布新快照。
// 任一数据源缺列或不可读时返回 DATA_LOAD 错误，旧快照保持不变。
func (s *Store) Load(ctx context.Context) error {
	products, err := loadProducts(s.productsPath)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return dataLoadErrorf("feature: %s: empty product table", s.productsPath)
	}

	var priors map[string]core.Vector
	if s.customersPath != "" {
		if priors, err = loadCustomers(s.customersPath); err != nil {
			return err
		}
	}

	snap := buildSnapshot(products, priors)
	s.snap.Store(snap)
	s.log.Info().
		Int("products", snap.Len()).
		Int("customers", len(snap.priors)).
		Msg("feature snapshot published")
	return nil
}

// Snapshot 返回当前快照；首次成功 Load 之前返回 nil。
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Prior 返回客户的冷启动先验向量。
// 配置了远端来源时优先远端，失败记日志后回退到快照内的客户表；
// 两处都未知时返回零向量和 false。
func (s *Store) Prior(ctx context.Context, customerID string) (core.Vector, bool) {
	if s.prior != nil {
		v, err := s.prior.CustomerPrior(ctx, customerID)
		switch {
		case err == nil:
			return v, true
		case core.IsNotFound(err):
			// 远端无此客户，走快照回退
		default:
			s.log.Warn().Err(err).
				Str("provider", s.prior.Name()).
				Str("customer_id", customerID).
				Msg("prior provider unavailable, falling back to snapshot")
		}
	}

	snap := s.Snapshot()
	if snap == nil {
		return core.Vector{}, false
	}
	return snap.CustomerPrior(customerID)
}
