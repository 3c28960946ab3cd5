package event

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/shoprec/core"
)

// RedisStore 是 Redis 实现的 EventStore，生产环境常用。
//
// 键设计：
//   - {prefix}events:{customer}        List  追加写的原始事件 {product}|{kind}|{unix 毫秒}
//   - {prefix}interactions:{customer}  Hash  field {product}|{kind} -> count
//   - {prefix}prefs:{customer}         Hash  field {category}|{subcategory} -> score
//   - {prefix}prefs:updated:{customer} Hash  同 field -> unix 毫秒
//   - {prefix}pop:views / pop:clicks   Hash  field {product} -> count
//   - {prefix}pop:rank                 ZSet  member {product}，score = views+clicks
//
// 原子性依赖 Redis 的 HIncrBy / HIncrByFloat / ZIncrBy：
// 对同一 field 的并发递增不会丢失更新。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 连接 Redis 并返回存储实例。
func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("event: ping redis %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: "shoprec:"}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(parts ...string) string {
	return r.prefix + strings.Join(parts, ":")
}

const fieldSep = "|"

func (r *RedisStore) RecordInteraction(ctx context.Context, customerID, productID string, kind core.InteractionKind) error {
	field := productID + fieldSep + string(kind)
	// 原始事件追加写入 List 留档（含时间戳），聚合计数另存 Hash 供读路径使用
	entry := field + fieldSep + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := r.client.RPush(ctx, r.key("events", customerID), entry).Err(); err != nil {
		return err
	}
	return r.client.HIncrBy(ctx, r.key("interactions", customerID), field, 1).Err()
}

func (r *RedisStore) Interactions(ctx context.Context, customerID string) ([]core.InteractionCount, error) {
	vals, err := r.client.HGetAll(ctx, r.key("interactions", customerID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]core.InteractionCount, 0, len(vals))
	for field, raw := range vals {
		i := strings.LastIndex(field, fieldSep)
		if i < 0 {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, core.InteractionCount{
			ProductID: field[:i],
			Kind:      core.InteractionKind(field[i+1:]),
			Count:     n,
		})
	}
	return out, nil
}

func (r *RedisStore) BumpPreference(ctx context.Context, customerID, category, subcategory string, step float64) error {
	field := category + fieldSep + subcategory
	if err := r.client.HIncrByFloat(ctx, r.key("prefs", customerID), field, step).Err(); err != nil {
		return err
	}
	// 更新时间与分数分开存放，允许轻微错位（最终一致即可）
	ms := time.Now().UnixMilli()
	return r.client.HSet(ctx, r.key("prefs", "updated", customerID), field, ms).Err()
}

func (r *RedisStore) Preferences(ctx context.Context, customerID string) ([]core.PreferenceEntry, error) {
	vals, err := r.client.HGetAll(ctx, r.key("prefs", customerID)).Result()
	if err != nil {
		return nil, err
	}
	updated, err := r.client.HGetAll(ctx, r.key("prefs", "updated", customerID)).Result()
	if err != nil {
		updated = nil // 时间戳缺失不阻断读取
	}

	out := make([]core.PreferenceEntry, 0, len(vals))
	for field, raw := range vals {
		i := strings.Index(field, fieldSep)
		if i < 0 {
			continue
		}
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		e := core.PreferenceEntry{
			Category:    field[:i],
			Subcategory: field[i+1:],
			Score:       score,
		}
		if msRaw, ok := updated[field]; ok {
			if ms, err := strconv.ParseInt(msRaw, 10, 64); err == nil {
				e.UpdatedAt = time.UnixMilli(ms)
			}
		}
		out = append(out, e)
	}
	sortPreferences(out)
	return out, nil
}

func (r *RedisStore) BumpPopularity(ctx context.Context, productID string, kind core.InteractionKind) error {
	counter := "views"
	if kind == core.InteractionClick {
		counter = "clicks"
	}
	if err := r.client.HIncrBy(ctx, r.key("pop", counter), productID, 1).Err(); err != nil {
		return err
	}
	return r.client.ZIncrBy(ctx, r.key("pop", "rank"), 1, productID).Err()
}

func (r *RedisStore) PopularityAll(ctx context.Context) (map[string]core.Popularity, error) {
	views, err := r.client.HGetAll(ctx, r.key("pop", "views")).Result()
	if err != nil {
		return nil, err
	}
	clicks, err := r.client.HGetAll(ctx, r.key("pop", "clicks")).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]core.Popularity, len(views)+len(clicks))
	for id, raw := range views {
		n, _ := strconv.ParseInt(raw, 10, 64)
		p := out[id]
		p.Views = n
		out[id] = p
	}
	for id, raw := range clicks {
		n, _ := strconv.ParseInt(raw, 10, 64)
		p := out[id]
		p.Clicks = n
		out[id] = p
	}
	return out, nil
}

func (r *RedisStore) TopPopular(ctx context.Context, n int) ([]core.PopularProduct, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := r.client.ZRevRange(ctx, r.key("pop", "rank"), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	views, err := r.client.HMGet(ctx, r.key("pop", "views"), ids...).Result()
	if err != nil {
		return nil, err
	}
	clicks, err := r.client.HMGet(ctx, r.key("pop", "clicks"), ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]core.PopularProduct, 0, len(ids))
	for i, id := range ids {
		p := core.PopularProduct{ProductID: id}
		if s, ok := views[i].(string); ok {
			p.Views, _ = strconv.ParseInt(s, 10, 64)
		}
		if s, ok := clicks[i].(string); ok {
			p.Clicks, _ = strconv.ParseInt(s, 10, 64)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.EventStore = (*RedisStore)(nil)
