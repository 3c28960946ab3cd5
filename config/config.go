package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/event"
	"github.com/rushteam/shoprec/feature"
)

// Config 是应用级配置（YAML）。
//
// 示例：
//
//	data:
//	  products: data/products.csv
//	  customers: data/customers.csv
//	events:
//	  backend: sqlite        # memory / redis / sqlite
//	  sqlite:
//	    path: data/events.db
//	engine:
//	  top_n: 5
//	  preference_step: 0.1
//	  filter_rules:
//	    - 'item.score >= 0.1'
type Config struct {
	Data struct {
		Products  string `yaml:"products"`
		Customers string `yaml:"customers"`
	} `yaml:"data"`

	Events struct {
		Backend string `yaml:"backend"` // memory / redis / sqlite
		Redis   struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"events"`

	Engine struct {
		TopN           int      `yaml:"top_n"`
		PreferenceStep float64  `yaml:"preference_step"`
		FilterRules    []string `yaml:"filter_rules"`
	} `yaml:"engine"`

	Feast struct {
		Enabled     bool                    `yaml:"enabled"`
		Host        string                  `yaml:"host"`
		Port        int                     `yaml:"port"`
		Project     string                  `yaml:"project"`
		EntityKey   string                  `yaml:"entity_key"`
		FeatureRefs [core.FeatureDim]string `yaml:"feature_refs"`
	} `yaml:"feast"`
}

// Load 从 YAML 文件加载应用配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Data.Products == "" {
		return nil, fmt.Errorf("config: data.products is required")
	}
	return &cfg, nil
}

// App 是按配置装配好的应用组件。
// 调用方负责 Features.Load 以及退出时 Close。
type App struct {
	Features *feature.Store
	Events   core.EventStore
	Engine   *engine.Engine
}

// Close 释放事件存储资源。
func (a *App) Close() error {
	return a.Events.Close()
}

// Build 按配置装配特征存储、事件存储与引擎。
func (c *Config) Build(log zerolog.Logger) (*App, error) {
	events, err := c.buildEventStore()
	if err != nil {
		return nil, err
	}

	fopts := []feature.Option{feature.WithLogger(log)}
	if c.Feast.Enabled {
		prior, err := feature.NewFeastPrior(c.Feast.Host, c.Feast.Port, c.Feast.Project, c.Feast.FeatureRefs)
		if err != nil {
			events.Close()
			return nil, err
		}
		if c.Feast.EntityKey != "" {
			prior.EntityKey = c.Feast.EntityKey
		}
		fopts = append(fopts, feature.WithPriorProvider(prior))
	}
	features := feature.NewStore(c.Data.Products, c.Data.Customers, fopts...)

	eopts := []engine.Option{
		engine.WithLogger(log),
		engine.WithTopN(c.Engine.TopN),
		engine.WithFilterRules(c.Engine.FilterRules...),
	}
	if c.Engine.PreferenceStep > 0 {
		eopts = append(eopts, engine.WithPreferenceStep(c.Engine.PreferenceStep))
	}

	return &App{
		Features: features,
		Events:   events,
		Engine:   engine.New(features, events, eopts...),
	}, nil
}

func (c *Config) buildEventStore() (core.EventStore, error) {
	switch c.Events.Backend {
	case "", "memory":
		return event.NewMemoryStore(), nil
	case "redis":
		return event.NewRedisStore(c.Events.Redis.Addr, c.Events.Redis.DB)
	case "sqlite":
		if c.Events.SQLite.Path == "" {
			return nil, fmt.Errorf("config: events.sqlite.path is required for sqlite backend")
		}
		return event.NewSQLiteStore(c.Events.SQLite.Path)
	default:
		return nil, fmt.Errorf("config: unknown events backend %q", c.Events.Backend)
	}
}
