// Package textindex 提供商品文本的 TF-IDF 稀疏索引与查询相似度计算。
package textindex

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Index 是对一批商品文本拟合后的 TF-IDF 索引。
//
// 权重方案（经典 tf-idf，平滑 idf）：
//   - 分词：小写化后取长度 >= 2 的字母/数字连续段，剔除英文停用词
//   - idf(t) = ln((1+N)/(1+df(t))) + 1
//   - 文档向量 = tf * idf，按 L2 归一化
//
// Fit 之后不可变，可并发 Query；查询期出现的词表外词项被忽略，不重新拟合。
type Index struct {
	vocab map[string]int
	idf   []float64
	docs  []sparseVec // 每篇文档的 L2 归一化稀疏权重
}

// sparseVec 是按词表下标升序存放的稀疏向量。
type sparseVec struct {
	terms   []int
	weights []float64
}

// Fit 对语料拟合词表与 idf，并构建每篇文档的归一化权重向量。
// 空语料返回可用但查询恒为零分的索引。
func Fit(corpus []string) *Index {
	ix := &Index{
		vocab: make(map[string]int),
		docs:  make([]sparseVec, len(corpus)),
	}
	if len(corpus) == 0 {
		return ix
	}

	// 统计词频与文档频次
	counts := make([]map[string]float64, len(corpus))
	df := make(map[string]int)
	for i, text := range corpus {
		tf := make(map[string]float64)
		for _, term := range Tokenize(text) {
			tf[term]++
		}
		counts[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	// 词表按字典序固定，保证同一语料多次拟合结果一致
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	ix.idf = make([]float64, len(terms))
	for j, term := range terms {
		ix.vocab[term] = j
		ix.idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	for i, tf := range counts {
		ix.docs[i] = ix.weigh(tf)
	}
	return ix
}

// Len 返回已索引的文档数量。
func (ix *Index) Len() int { return len(ix.docs) }

// VocabSize 返回词表大小。
func (ix *Index) VocabSize() int { return len(ix.vocab) }

// Query 返回查询文本对每篇文档的余弦相似度，与语料同序。
// 词表外词项贡献为零；空查询或空语料返回全零。
func (ix *Index) Query(text string) []float64 {
	sims := make([]float64, len(ix.docs))
	if len(ix.docs) == 0 || len(ix.vocab) == 0 {
		return sims
	}

	tf := make(map[string]float64)
	for _, term := range Tokenize(text) {
		if _, ok := ix.vocab[term]; ok {
			tf[term]++
		}
	}
	if len(tf) == 0 {
		return sims
	}
	q := ix.weigh(tf)

	// 双方均已 L2 归一化，点积即余弦相似度
	for i, doc := range ix.docs {
		sims[i] = dot(q, doc)
	}
	return sims
}

// weigh 将词频 map 转为 L2 归一化的稀疏 tf-idf 向量。
func (ix *Index) weigh(tf map[string]float64) sparseVec {
	type termWeight struct {
		term   int
		weight float64
	}
	pairs := make([]termWeight, 0, len(tf))
	for term, cnt := range tf {
		if j, ok := ix.vocab[term]; ok {
			pairs = append(pairs, termWeight{term: j, weight: cnt * ix.idf[j]})
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].term < pairs[b].term })

	v := sparseVec{
		terms:   make([]int, 0, len(pairs)),
		weights: make([]float64, 0, len(pairs)),
	}
	var norm float64
	for _, p := range pairs {
		v.terms = append(v.terms, p.term)
		v.weights = append(v.weights, p.weight)
		norm += p.weight * p.weight
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range v.weights {
			v.weights[k] /= norm
		}
	}
	return v
}

func dot(a, b sparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i] == b.terms[j]:
			sum += a.weights[i] * b.weights[j]
			i++
			j++
		case a.terms[i] < b.terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Tokenize 小写化并切分文本：连续的字母/数字段为一个词项，
// 丢弃单字符词项与英文停用词。
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		term := b.String()
		b.Reset()
		if len([]rune(term)) < 2 {
			return
		}
		if stopWords[term] {
			return
		}
		out = append(out, term)
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
