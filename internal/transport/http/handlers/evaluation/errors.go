package evaluationhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"dqeval/internal/domain/evaluation"
	"dqeval/internal/transport/http/api"
	"dqeval/internal/transport/http/middleware"
)

type failure struct {
	status  int
	code    string
	message string
}

var failures = []struct {
	target error
	failure
}{
	{evaluation.ErrEvaluationNotFound, failure{http.StatusNotFound, "evaluation_not_found", "evaluation not found"}},
	{evaluation.ErrPeriodNotFound, failure{http.StatusNotFound, "period_not_found", "evaluation period not found"}},
	{evaluation.ErrUserNotFound, failure{http.StatusNotFound, "user_not_found", "user not found"}},
	{evaluation.ErrNoCurrentPeriod, failure{http.StatusConflict, "no_current_period", "no evaluation period is open"}},
	{evaluation.ErrEmptySubmission, failure{http.StatusBadRequest, "empty_submission", "score submission is empty"}},
	{evaluation.ErrDuplicateScore, failure{http.StatusConflict, "duplicate_score", "score already recorded"}},
	{evaluation.ErrScopeViolation, failure{http.StatusUnprocessableEntity, "scope_violation", "score outside evaluation scope"}},
	{evaluation.ErrStoreUnavailable, failure{http.StatusServiceUnavailable, "store_unavailable", "evaluation store unavailable"}},
}

// writeError maps domain errors onto the response envelope. Score errors
// carry the offending triple as details.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	f := failure{http.StatusInternalServerError, "internal_error", "internal server error"}
	for _, candidate := range failures {
		if errors.Is(err, candidate.target) {
			f = candidate.failure
			break
		}
	}

	if f.status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "err", err, "requestId", requestID)
	} else {
		slog.Warn(op+" rejected", "err", err, "requestId", requestID)
	}

	var scoreErr *evaluation.ScoreError
	if errors.As(err, &scoreErr) {
		api.FailWithDetails(w, f.status, f.code, f.message, map[string]int64{
			"evaluationId": scoreErr.EvaluationID,
			"dataTypeId":   scoreErr.DataTypeID,
			"criteriaId":   scoreErr.CriteriaID,
		}, requestID)
		return
	}
	api.Fail(w, f.status, f.code, f.message, requestID)
}
