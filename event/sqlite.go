package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // 纯 Go 的 sqlite 驱动，注册为 "sqlite"

	"github.com/rushteam/shoprec/core"
)

// SQLiteStore 是嵌入式部署用的 EventStore，单文件即单存储。
//
// 行为事件为追加写（user_interactions），读取时 GROUP BY 聚合；
// 偏好分与热度计数用 INSERT ... ON CONFLICT DO UPDATE 原子 upsert。
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	interaction_type TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_interactions_customer ON user_interactions (customer_id);

CREATE TABLE IF NOT EXISTS user_preferences (
	customer_id TEXT NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT NOT NULL,
	preference_score REAL NOT NULL DEFAULT 0,
	last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (customer_id, category, subcategory)
);

CREATE TABLE IF NOT EXISTS product_popularity (
	product_id TEXT PRIMARY KEY,
	view_count INTEGER NOT NULL DEFAULT 0,
	click_count INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// NewSQLiteStore 打开（必要时创建）数据库文件并建表。
// path 可为 ":memory:"（测试用）。
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("event: open sqlite %s: %w", path, err)
	}
	// 单连接串行化写入，规避 SQLITE_BUSY；行级原子由 upsert 语句保证
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("event: init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) RecordInteraction(ctx context.Context, customerID, productID string, kind core.InteractionKind) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_interactions (customer_id, product_id, interaction_type) VALUES (?, ?, ?)`,
		customerID, productID, string(kind))
	return err
}

func (s *SQLiteStore) Interactions(ctx context.Context, customerID string) ([]core.InteractionCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, interaction_type, COUNT(*)
		 FROM user_interactions
		 WHERE customer_id = ?
		 GROUP BY product_id, interaction_type`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.InteractionCount
	for rows.Next() {
		var (
			ic   core.InteractionCount
			kind string
		)
		if err := rows.Scan(&ic.ProductID, &kind, &ic.Count); err != nil {
			return nil, err
		}
		ic.Kind = core.InteractionKind(kind)
		out = append(out, ic)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) BumpPreference(ctx context.Context, customerID, category, subcategory string, step float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (customer_id, category, subcategory, preference_score)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(customer_id, category, subcategory) DO UPDATE SET
		   preference_score = preference_score + excluded.preference_score,
		   last_updated = CURRENT_TIMESTAMP`,
		customerID, category, subcategory, step)
	return err
}

func (s *SQLiteStore) Preferences(ctx context.Context, customerID string) ([]core.PreferenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, subcategory, preference_score, last_updated
		 FROM user_preferences
		 WHERE customer_id = ?
		 ORDER BY preference_score DESC, category, subcategory`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.PreferenceEntry
	for rows.Next() {
		var (
			e       core.PreferenceEntry
			updated sql.NullString
		)
		if err := rows.Scan(&e.Category, &e.Subcategory, &e.Score, &updated); err != nil {
			return nil, err
		}
		if updated.Valid {
			e.UpdatedAt = parseSQLiteTime(updated.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// parseSQLiteTime 解析 CURRENT_TIMESTAMP 列的文本值。
// modernc.org/sqlite 驱动返回 RFC3339 文本（"2026-08-31T20:01:05Z"），
// 外部写入的库文件也可能是 SQLite 原生的 "YYYY-MM-DD HH:MM:SS" 格式。
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *SQLiteStore) BumpPopularity(ctx context.Context, productID string, kind core.InteractionKind) error {
	var stmt string
	if kind == core.InteractionClick {
		stmt = `INSERT INTO product_popularity (product_id, click_count) VALUES (?, 1)
		        ON CONFLICT(product_id) DO UPDATE SET
		          click_count = click_count + 1,
		          last_updated = CURRENT_TIMESTAMP`
	} else {
		stmt = `INSERT INTO product_popularity (product_id, view_count) VALUES (?, 1)
		        ON CONFLICT(product_id) DO UPDATE SET
		          view_count = view_count + 1,
		          last_updated = CURRENT_TIMESTAMP`
	}
	_, err := s.db.ExecContext(ctx, stmt, productID)
	return err
}

func (s *SQLiteStore) PopularityAll(ctx context.Context) (map[string]core.Popularity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, view_count, click_count FROM product_popularity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]core.Popularity)
	for rows.Next() {
		var (
			id string
			p  core.Popularity
		)
		if err := rows.Scan(&id, &p.Views, &p.Clicks); err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TopPopular(ctx context.Context, n int) ([]core.PopularProduct, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, view_count, click_count
		 FROM product_popularity
		 ORDER BY (view_count + click_count) DESC, product_id
		 LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.PopularProduct
	for rows.Next() {
		var p core.PopularProduct
		if err := rows.Scan(&p.ProductID, &p.Views, &p.Clicks); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ core.EventStore = (*SQLiteStore)(nil)
