package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrPeriodNotFound     = errors.New("evaluation period not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoCurrentPeriod    = errors.New("no current evaluation period")
	ErrScopeViolation     = errors.New("score outside evaluation scope")
	ErrDuplicateScore     = errors.New("duplicate score for data type and criterion")
	ErrDivisionUndefined  = errors.New("average undefined without contributing scores")
	ErrEmptySubmission    = errors.New("score submission is empty")
	ErrStoreUnavailable   = errors.New("evaluation store unavailable")
)

// ScoreError pins a scope or duplicate failure to the offending triple.
type ScoreError struct {
	Kind         error
	EvaluationID int64
	DataTypeID   int64
	CriteriaID   int64
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("%s: evaluation %d, data type %d, criterion %d", e.Kind, e.EvaluationID, e.DataTypeID, e.CriteriaID)
}

func (e *ScoreError) Unwrap() error {
	return e.Kind
}

// StoreError hides storage detail behind the failing operation name. The
// cause stays reachable through errors.Unwrap for logging.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return ErrStoreUnavailable.Error() + ": " + e.Op
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

var domainErrors = []error{
	ErrEvaluationNotFound,
	ErrPeriodNotFound,
	ErrUserNotFound,
	ErrNoCurrentPeriod,
	ErrScopeViolation,
	ErrDuplicateScore,
	ErrEmptySubmission,
	ErrStoreUnavailable,
}

func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
