package evaluation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dqeval/evaluation"

type Service struct {
	store          StoreAPI
	identities     IdentityGenerator
	pickDepartment func(n int) int
	hashSecret     func(string) (string, error)
	observer       Observer
	tracer         trace.Tracer
}

func NewService(store StoreAPI, opts ...Option) *Service {
	s := &Service{
		store:          store,
		identities:     UUIDIdentities{},
		pickDepartment: defaultDepartmentPicker,
		hashSecret:     hashSecret,
		observer:       noopObserver{},
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, evaluationID int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("evaluation.id", evaluationID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// periodOf resolves the period of a reference evaluation.
func (s *Service) periodOf(ctx context.Context, evaluationID int64) (int64, error) {
	eval, err := s.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return 0, storeFailure("get evaluation", err)
	}
	return eval.PeriodID, nil
}
