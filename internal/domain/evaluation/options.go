package evaluation

import (
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Observer receives submission and aggregation outcomes, typically the
// prometheus collector. persisted is the number of score rows committed,
// zero for any submission that did not complete.
type Observer interface {
	ObserveSubmission(outcome string, persisted int)
	ObserveAggregation(kind string, elapsed time.Duration)
}

type Option func(*Service)

func WithIdentityGenerator(g IdentityGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.identities = g
		}
	}
}

// WithDepartmentPicker replaces the pseudo-random department choice. pick
// receives the number of departments and returns an index into them.
func WithDepartmentPicker(pick func(n int) int) Option {
	return func(s *Service) {
		if pick != nil {
			s.pickDepartment = pick
		}
	}
}

func WithSecretHasher(hash func(string) (string, error)) Option {
	return func(s *Service) {
		if hash != nil {
			s.hashSecret = hash
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

type noopObserver struct{}

func (noopObserver) ObserveSubmission(string, int)             {}
func (noopObserver) ObserveAggregation(string, time.Duration) {}

func defaultDepartmentPicker(n int) int {
	return rand.IntN(n)
}
