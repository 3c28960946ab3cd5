package feedback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

// CatalogFunc 返回当前目录快照；尚未加载时返回 nil。
type CatalogFunc func() core.Catalog

// Updater 是偏好更新器：把点击/曝光行为写回事件存储。
//
// 写入策略是 fire-and-forget：存储失败记日志后丢弃，绝不把
// 存储错误传导到请求链路。只有"商品不存在"会返回给调用方，
// 因为那是调用方的输入错误而非基础设施故障。
type Updater struct {
	catalog CatalogFunc
	events  core.EventStore
	step    float64
	log     zerolog.Logger
}

// Option 是 Updater 的配置选项。
type Option func(*Updater)

// WithLogger 设置日志器（默认丢弃日志）。
func WithLogger(log zerolog.Logger) Option {
	return func(u *Updater) { u.log = log }
}

// WithStep 设置每次点击的偏好分增量（默认 core.DefaultPreferenceStep）。
func WithStep(step float64) Option {
	return func(u *Updater) {
		if step > 0 {
			u.step = step
		}
	}
}

// NewUpdater 创建偏好更新器。
func NewUpdater(catalog CatalogFunc, events core.EventStore, opts ...Option) *Updater {
	u := &Updater{
		catalog: catalog,
		events:  events,
		step:    core.DefaultPreferenceStep,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// OnClick 处理一次点击：
//  1. 追加一条 click 行为事件
//  2. 商品所属 (类目, 子类目) 的偏好分 += step
//  3. 商品点击热度 +1
//
// 商品不在目录中时返回 NOT_FOUND；存储失败记日志后丢弃。
func (u *Updater) OnClick(ctx context.Context, customerID, productID string) error {
	catalog := u.snapshot()
	if catalog == nil {
		return core.ErrNotReady
	}
	p, ok := catalog.ProductByID(productID)
	if !ok {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			"feedback: unknown product "+productID)
	}

	if err := u.events.RecordInteraction(ctx, customerID, productID, core.InteractionClick); err != nil {
		u.logDrop(err, customerID, productID, "record interaction")
	}
	if err := u.events.BumpPreference(ctx, customerID, p.Category, p.Subcategory, u.step); err != nil {
		u.logDrop(err, customerID, productID, "bump preference")
	}
	if err := u.events.BumpPopularity(ctx, productID, core.InteractionClick); err != nil {
		u.logDrop(err, customerID, productID, "bump popularity")
	}
	return nil
}

// OnView 处理一次曝光（商品出现在推荐/搜索结果中）：
// 商品浏览热度 +1。存储失败记日志后丢弃。
func (u *Updater) OnView(ctx context.Context, productID string) {
	if err := u.events.BumpPopularity(ctx, productID, core.InteractionView); err != nil {
		u.logDrop(err, "", productID, "bump popularity")
	}
}

func (u *Updater) snapshot() core.Catalog {
	if u.catalog == nil {
		return nil
	}
	return u.catalog()
}

func (u *Updater) logDrop(err error, customerID, productID, op string) {
	u.log.Warn().Err(err).
		Str("store", u.events.Name()).
		Str("customer_id", customerID).
		Str("product_id", productID).
		Msgf("feedback: %s failed, event dropped", op)
}
