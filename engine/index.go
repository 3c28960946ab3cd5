package engine

import (
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/textindex"
)

// indexFor 返回与给定快照配套的文本索引。
// 同一快照只拟合一次；快照重载（指针变化）时按新语料重建。
func (e *Engine) indexFor(snap *feature.Snapshot) *textindex.Index {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idxSnap == snap && e.idxCache != nil {
		return e.idxCache
	}

	ix := textindex.Fit(snap.Corpus())
	e.idxSnap = snap
	e.idxCache = ix
	e.log.Info().
		Int("docs", ix.Len()).
		Int("vocab", ix.VocabSize()).
		Msg("engine: text index fitted")
	return ix
}
