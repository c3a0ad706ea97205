package evaluation

import (
	"cmp"
	"slices"
)

type groupKey func(PeriodScore) (int64, string)

func byDataType(s PeriodScore) (int64, string) { return s.DataTypeID, s.DataTypeName }

func byCriteria(s PeriodScore) (int64, string) { return s.CriteriaID, s.CriteriaName }

// summarize folds completed-period score rows into ranked summaries: priority
// is the number of contributing rows, ties are broken by ascending id.
func summarize(scores []PeriodScore, key groupKey) []Summary {
	index := make(map[int64]int)
	out := make([]Summary, 0)
	for _, score := range scores {
		id, name := key(score)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, Summary{ID: id, Name: name})
		}
		out[i].Priority++
		out[i].TotalScore += score.Value
	}
	for i := range out {
		if avg, err := average(out[i].TotalScore, out[i].Priority); err == nil {
			out[i].AverageScore = &avg
		}
	}
	rankSummaries(out)
	return out
}

func rankSummaries(summaries []Summary) {
	slices.SortStableFunc(summaries, func(a, b Summary) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func average(total, priority int64) (float64, error) {
	if priority <= 0 {
		return 0, ErrDivisionUndefined
	}
	return float64(total) / float64(priority), nil
}

// periodSums adds values per (criterion, data type) and pivots the sums.
func periodSums(scores []PeriodScore) Matrix {
	type cell struct{ criteriaID, dataTypeID int64 }
	sums := make(map[cell]int64)
	order := make([]cell, 0)
	for _, score := range scores {
		c := cell{criteriaID: score.CriteriaID, dataTypeID: score.DataTypeID}
		if _, ok := sums[c]; !ok {
			order = append(order, c)
		}
		sums[c] += score.Value
	}
	facts := make([]ScoreFact, 0, len(order))
	for _, c := range order {
		facts = append(facts, ScoreFact{DataTypeID: c.dataTypeID, CriteriaID: c.criteriaID, Value: sums[c]})
	}
	return BuildMatrix(facts)
}
