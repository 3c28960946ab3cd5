package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rushteam/shoprec/core"
)

// 数据集列名，与原始 CSV 保持一致。
const (
	colProductID   = "Product_ID"
	colCustomerID  = "Customer_ID"
	colBrand       = "Brand"
	colCategory    = "Category"
	colSubcategory = "Subcategory"
	colPrice       = "Price"
	colDescription = "Description"

	colRating    = "Product_Rating"
	colSentiment = "Customer_Review_Sentiment_Score"
	colRecProb   = "Probability_of_Recommendation"
)

// featureCols 是参与归一化的三个数值列，顺序与 core.Vector 的分量对应。
var featureCols = [core.FeatureDim]string{colRating, colSentiment, colRecProb}

func dataLoadErrorf(format string, args ...any) error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeDataLoad, fmt.Sprintf(format, args...))
}

// csvTable 是一份解析后的 CSV：列名 -> 下标，外加全部数据行。
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataLoadErrorf("feature: open %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // 行宽以表头为准，下方逐行校验

	header, err := r.Read()
	if err != nil {
		return nil, dataLoadErrorf("feature: read header of %s: %v", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dataLoadErrorf("feature: read %s: %v", path, err)
		}
		rows = append(rows, rec)
	}
	return &csvTable{cols: cols, rows: rows}, nil
}

func (t *csvTable) require(path string, names ...string) error {
	for _, name := range names {
		if _, ok := t.cols[name]; !ok {
			return dataLoadErrorf("feature: %s: missing required column %q", path, name)
		}
	}
	return nil
}

// get 返回某行某列的值；列不存在或行过短时返回空串。
func (t *csvTable) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *csvTable) getFloat(row []string, name string, path string, line int) (float64, error) {
	raw := t.get(row, name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dataLoadErrorf("feature: %s line %d: column %q: invalid number %q", path, line, name, raw)
	}
	return v, nil
}

func loadProducts(path string) ([]core.Product, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	required := append([]string{colProductID, colBrand, colCategory, colSubcategory}, featureCols[:]...)
	if err := t.require(path, required...); err != nil {
		return nil, err
	}

	products := make([]core.Product, 0, len(t.rows))
	seen := make(map[string]bool, len(t.rows))
	for i, row := range t.rows {
		line := i + 2 // 表头占第 1 行
		id := t.get(row, colProductID)
		if id == "" {
			return nil, dataLoadErrorf("feature: %s line %d: empty %s", path, line, colProductID)
		}
		if seen[id] {
			return nil, dataLoadErrorf("feature: %s line %d: duplicate %s %q", path, line, colProductID, id)
		}
		seen[id] = true

		p := core.Product{
			ID:          id,
			Brand:       t.get(row, colBrand),
			Category:    t.get(row, colCategory),
			Subcategory: t.get(row, colSubcategory),
			Description: t.get(row, colDescription),
		}
		if p.Price, err = t.getFloat(row, colPrice, path, line); err != nil {
			return nil, err
		}
		if p.Rating, err = t.getFloat(row, colRating, path, line); err != nil {
			return nil, err
		}
		if p.Sentiment, err = t.getFloat(row, colSentiment, path, line); err != nil {
			return nil, err
		}
		if p.RecProbability, err = t.getFloat(row, colRecProb, path, line); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// loadCustomers 读取客户表。三个特征列可缺省；存在时按原始值作为冷启动先验。
func loadCustomers(path string) (map[string]core.Vector, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, colCustomerID); err != nil {
		return nil, err
	}

	priors := make(map[string]core.Vector, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		id := t.get(row, colCustomerID)
		if id == "" {
			return nil, dataLoadErrorf("feature: %s line %d: empty %s", path, line, colCustomerID)
		}
		var v core.Vector
		for j, col := range featureCols {
			if _, ok := t.cols[col]; !ok {
				continue
			}
			if v[j], err = t.getFloat(row, col, path, line); err != nil {
				return nil, err
			}
		}
		priors[id] = v
	}
	return priors, nil
}

// rawVector 取商品的原始特征三元组。
func rawVector(p core.Product) core.Vector {
	return core.Vector{p.Rating, p.Sentiment, p.RecProbability}
}

// buildSnapshot 拟合 min-max 边界、归一化特征并构建不可变快照。
func buildSnapshot(products []core.Product, priors map[string]core.Vector) *Snapshot {
	s := &Snapshot{
		products:   products,
		index:      make(map[string]int, len(products)),
		vectors:    make([]core.Vector, len(products)),
		corpus:     make([]string, len(products)),
		groups:     make(map[groupKey][]int),
		groupMeans: make(map[groupKey]core.Vector),
		priors:     priors,
	}
	if priors == nil {
		s.priors = make(map[string]core.Vector)
	}

	// 拟合边界：逐特征取全量商品的 min/max
	for j := range s.bounds {
		s.bounds[j][0], s.bounds[j][1] = 0, 0
	}
	for i, p := range products {
		raw := rawVector(p)
		for j := range raw {
			if i == 0 || raw[j] < s.bounds[j][0] {
				s.bounds[j][0] = raw[j]
			}
			if i == 0 || raw[j] > s.bounds[j][1] {
				s.bounds[j][1] = raw[j]
			}
		}
	}

	for i, p := range products {
		s.index[p.ID] = i
		s.corpus[i] = p.Brand + " " + p.Category + " " + p.Subcategory

		raw := rawVector(p)
		var v core.Vector
		for j := range raw {
			min, max := s.bounds[j][0], s.bounds[j][1]
			span := max - min
			if span == 0 {
				// 常量列统一映射为 0
				v[j] = 0
				continue
			}
			v[j] = (raw[j] - min) / span
		}
		s.vectors[i] = v

		gk := groupKey{p.Category, p.Subcategory}
		s.groups[gk] = append(s.groups[gk], i)
	}

	for gk, idxs := range s.groups {
		var sum core.Vector
		for _, i := range idxs {
			sum = sum.Add(s.vectors[i])
		}
		s.groupMeans[gk] = sum.Scale(1 / float64(len(idxs)))
	}

	return s
}
