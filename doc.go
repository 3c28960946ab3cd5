// Package shoprec 是一个电商推荐评分引擎（Shop Recommendation Engine）。
//
// 设计要点：
// - Pipeline-first: 评分逻辑通过 Node 串联（Recall → Rank → Filter → ReRank）
// - Snapshot-first: 特征表加载为不可变快照，原子指针发布，读取无锁
// - 反馈闭环: 点击/曝光写回事件存储，偏好分与热度参与下一轮打分
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
