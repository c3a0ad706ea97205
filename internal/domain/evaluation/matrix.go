package evaluation

import (
	"maps"
	"slices"
)

// Matrix maps criterion id to data type id to value. The value is a raw score
// for a single evaluation and a period sum for results.
type Matrix map[int64]map[int64]int64

// BuildMatrix pivots flat facts into a Matrix in one pass. When two facts
// share a (criterion, data type) pair the later one wins.
func BuildMatrix(facts []ScoreFact) Matrix {
	out := make(Matrix)
	for _, fact := range facts {
		inner, ok := out[fact.CriteriaID]
		if !ok {
			inner = make(map[int64]int64)
			out[fact.CriteriaID] = inner
		}
		inner[fact.DataTypeID] = fact.Value
	}
	return out
}

// Facts scatters the matrix back into facts ordered by criterion then data
// type, which keeps submission batches deterministic.
func (m Matrix) Facts() []ScoreFact {
	facts := make([]ScoreFact, 0, m.Len())
	for _, criteriaID := range slices.Sorted(maps.Keys(m)) {
		inner := m[criteriaID]
		for _, dataTypeID := range slices.Sorted(maps.Keys(inner)) {
			facts = append(facts, ScoreFact{DataTypeID: dataTypeID, CriteriaID: criteriaID, Value: inner[dataTypeID]})
		}
	}
	return facts
}

// Len counts the cells of the matrix.
func (m Matrix) Len() int {
	n := 0
	for _, inner := range m {
		n += len(inner)
	}
	return n
}
