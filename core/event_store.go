package core

import (
	"context"
	"time"
)

// InteractionKind 是行为事件类型。
type InteractionKind string

const (
	InteractionView  InteractionKind = "view"  // 曝光/浏览
	InteractionClick InteractionKind = "click" // 点击
)

// InteractionCount 是按 (商品, 类型) 聚合后的行为计数。
type InteractionCount struct {
	ProductID string
	Kind      InteractionKind
	Count     int64
}

// PreferenceEntry 是按 (客户, 类目, 子类目) 唯一的偏好分记录。
// 分数只增不减，每次点击按固定步长递增，永不删除。
type PreferenceEntry struct {
	Category    string
	Subcategory string
	Score       float64
	UpdatedAt   time.Time
}

// Popularity 是单个商品的热度计数。
type Popularity struct {
	Views  int64
	Clicks int64
}

// PopularProduct 是热度榜中的一条记录。
type PopularProduct struct {
	ProductID string
	Views     int64
	Clicks    int64
}

// DefaultPreferenceStep 是每次点击的偏好分增量。
const DefaultPreferenceStep = 0.1

// EventStore 是行为事件与派生状态的存储接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（event）实现
//   - 所有增量操作必须按行原子：对同一 (客户, 类目, 子类目) 或
//     同一商品 ID 的并发递增不得丢失更新
//   - 事件为追加写，聚合读；读失败由调用方降级为空结果
//
// 实现：
//   - event.MemoryStore（测试/开发/原型）
//   - event.RedisStore（生产，HIncrBy/ZIncrBy 原子递增）
//   - event.SQLiteStore（嵌入式部署，ON CONFLICT DO UPDATE）
type EventStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// RecordInteraction 追加一条行为事件，只增不改
	RecordInteraction(ctx context.Context, customerID, productID string, kind InteractionKind) error

	// Interactions 返回客户按 (商品, 类型) 聚合的行为计数，顺序不保证
	Interactions(ctx context.Context, customerID string) ([]InteractionCount, error)

	// BumpPreference 原子 upsert：已有行 score += step，否则 score = step
	BumpPreference(ctx context.Context, customerID, category, subcategory string, step float64) error

	// Preferences 返回客户的偏好分记录，按分数降序
	Preferences(ctx context.Context, customerID string) ([]PreferenceEntry, error)

	// BumpPopularity 原子 upsert 商品热度计数，不存在则以 1 创建
	BumpPopularity(ctx context.Context, productID string, kind InteractionKind) error

	// PopularityAll 返回全部商品的热度计数
	PopularityAll(ctx context.Context) (map[string]Popularity, error)

	// TopPopular 按 (views + clicks) 降序返回前 n 个商品；n <= 0 时返回空
	TopPopular(ctx context.Context, n int) ([]PopularProduct, error)

	// Close 关闭连接/释放资源
	Close() error
}

// EventStore 错误定义（使用统一的 DomainError）
var (
	// ErrEventStoreUnavailable 表示事件存储读写失败
	ErrEventStoreUnavailable = NewDomainError(ModuleEvent, ErrorCodeUnavailable, "event: store unavailable")
)
