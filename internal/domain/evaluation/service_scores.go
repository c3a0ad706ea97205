package evaluation

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
)

// SubmitScores stores the full score set of an evaluation and marks it
// completed in one transaction. Nothing is persisted when any step fails.
// Resubmission is not special-cased: the stored triples reject it as
// ErrDuplicateScore.
func (s *Service) SubmitScores(ctx context.Context, evaluationID int64, facts []ScoreFact) (err error) {
	ctx, span := s.startSpan(ctx, "evaluation.SubmitScores", evaluationID)
	span.SetAttributes(attribute.Int("scores.count", len(facts)))
	defer func() {
		persisted := 0
		if err == nil {
			persisted = len(facts)
		}
		s.observer.ObserveSubmission(submissionOutcome(err), persisted)
		endSpan(span, err)
	}()

	if len(facts) == 0 {
		return ErrEmptySubmission
	}
	if err := rejectDuplicates(evaluationID, facts); err != nil {
		return err
	}

	return storeFailure("submit scores", s.store.WithTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.LockEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		if err := checkScope(ctx, tx, evaluationID, facts); err != nil {
			return err
		}
		if err := tx.InsertScores(ctx, evaluationID, facts); err != nil {
			return err
		}
		return tx.MarkCompleted(ctx, evaluationID)
	}))
}

func rejectDuplicates(evaluationID int64, facts []ScoreFact) error {
	type triple struct{ dataTypeID, criteriaID int64 }
	seen := make(map[triple]struct{}, len(facts))
	for _, f := range facts {
		key := triple{dataTypeID: f.DataTypeID, criteriaID: f.CriteriaID}
		if _, dup := seen[key]; dup {
			return &ScoreError{Kind: ErrDuplicateScore, EvaluationID: evaluationID, DataTypeID: f.DataTypeID, CriteriaID: f.CriteriaID}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// checkScope requires every data type to be reachable through the
// evaluation's processes and every criterion to exist in the catalog.
func checkScope(ctx context.Context, tx StoreAPI, evaluationID int64, facts []ScoreFact) error {
	scoped, err := tx.EvaluationDataTypes(ctx, evaluationID)
	if err != nil {
		return err
	}
	dataTypes := make(map[int64]bool, len(scoped))
	for _, sd := range scoped {
		dataTypes[sd.DataTypeID] = true
	}
	criteriaIDs, err := tx.CriteriaIDs(ctx)
	if err != nil {
		return err
	}
	criteria := make(map[int64]bool, len(criteriaIDs))
	for _, id := range criteriaIDs {
		criteria[id] = true
	}
	for _, f := range facts {
		if !dataTypes[f.DataTypeID] || !criteria[f.CriteriaID] {
			return &ScoreError{Kind: ErrScopeViolation, EvaluationID: evaluationID, DataTypeID: f.DataTypeID, CriteriaID: f.CriteriaID}
		}
	}
	return nil
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return SubmissionOutcomeCompleted
	case errors.Is(err, ErrStoreUnavailable):
		return SubmissionOutcomeFailed
	default:
		return SubmissionOutcomeRejected
	}
}

// EvaluationMatrix rebuilds what a single evaluation submitted.
func (s *Service) EvaluationMatrix(ctx context.Context, evaluationID int64) (Matrix, error) {
	if _, err := s.periodOf(ctx, evaluationID); err != nil {
		return nil, err
	}
	facts, err := s.store.EvaluationScores(ctx, evaluationID)
	if err != nil {
		return nil, storeFailure("evaluation scores", err)
	}
	return BuildMatrix(facts), nil
}

// CountCompleted reports finished evaluations in a period, never less than one.
func (s *Service) CountCompleted(ctx context.Context, periodID int64) (int, error) {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return 0, storeFailure("get period", err)
	}
	return s.countCompleted(ctx, periodID)
}

func (s *Service) CountCompletedForEvaluation(ctx context.Context, evaluationID int64) (int, error) {
	periodID, err := s.periodOf(ctx, evaluationID)
	if err != nil {
		return 0, err
	}
	return s.countCompleted(ctx, periodID)
}

func (s *Service) countCompleted(ctx context.Context, periodID int64) (int, error) {
	total, err := s.store.CountCompleted(ctx, periodID)
	if err != nil {
		return 0, storeFailure("count completed", err)
	}
	return max(total, 1), nil
}
