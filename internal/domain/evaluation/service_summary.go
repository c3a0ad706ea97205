package evaluation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// AggregateByDataType ranks data types across every completed evaluation in
// the reference evaluation's period.
func (s *Service) AggregateByDataType(ctx context.Context, evaluationID int64) ([]Summary, error) {
	return s.aggregate(ctx, evaluationID, AggregationDataType, byDataType)
}

// AggregateByCriteria ranks quality criteria the same way.
func (s *Service) AggregateByCriteria(ctx context.Context, evaluationID int64) ([]Summary, error) {
	return s.aggregate(ctx, evaluationID, AggregationCriteria, byCriteria)
}

func (s *Service) aggregate(ctx context.Context, evaluationID int64, kind string, key groupKey) (out []Summary, err error) {
	ctx, span := s.startSpan(ctx, "evaluation.Aggregate", evaluationID)
	span.SetAttributes(attribute.String("aggregation.kind", kind))
	start := time.Now()
	defer func() {
		s.observer.ObserveAggregation(kind, time.Since(start))
		endSpan(span, err)
	}()

	scores, err := s.completedScores(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return summarize(scores, key), nil
}

// PeriodResults sums scores per criterion and data type over the completed
// evaluations of the period.
func (s *Service) PeriodResults(ctx context.Context, evaluationID int64) (Matrix, error) {
	start := time.Now()
	defer func() { s.observer.ObserveAggregation(AggregationResults, time.Since(start)) }()

	scores, err := s.completedScores(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return periodSums(scores), nil
}

func (s *Service) completedScores(ctx context.Context, evaluationID int64) ([]PeriodScore, error) {
	periodID, err := s.periodOf(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.CompletedPeriodScores(ctx, periodID)
	if err != nil {
		return nil, storeFailure("completed period scores", err)
	}
	return scores, nil
}

// TopScopedDataTypes lists the data types most often put in scope across the
// period's evaluations.
func (s *Service) TopScopedDataTypes(ctx context.Context, evaluationID int64, limit int) ([]ScopedDataTypeCount, error) {
	if limit <= 0 {
		limit = DefaultTopDataTypes
	}
	periodID, err := s.periodOf(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.ScopedDataTypeCounts(ctx, periodID, limit)
	if err != nil {
		return nil, storeFailure("scoped data type counts", err)
	}
	return counts, nil
}

// PeriodReport gathers both rankings, the period sums and the completed count
// from one read of the period's scores.
func (s *Service) PeriodReport(ctx context.Context, evaluationID int64) (report PeriodReport, err error) {
	ctx, span := s.startSpan(ctx, "evaluation.PeriodReport", evaluationID)
	defer func() { endSpan(span, err) }()

	periodID, err := s.periodOf(ctx, evaluationID)
	if err != nil {
		return PeriodReport{}, err
	}

	var scores []PeriodScore
	var completed int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.CompletedPeriodScores(gctx, periodID)
		if err != nil {
			return storeFailure("completed period scores", err)
		}
		scores = rows
		return nil
	})
	g.Go(func() error {
		total, err := s.countCompleted(gctx, periodID)
		if err != nil {
			return err
		}
		completed = total
		return nil
	})
	if err := g.Wait(); err != nil {
		return PeriodReport{}, err
	}

	return PeriodReport{
		EvaluationID: evaluationID,
		PeriodID:     periodID,
		Completed:    completed,
		DataTypes:    summarize(scores, byDataType),
		Criteria:     summarize(scores, byCriteria),
		Results:      periodSums(scores),
	}, nil
}
