package catalog

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("catalog unavailable")

// Service exposes the read-only reference data participants choose from.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return wrap("list users", s.store.ListUsers)(ctx)
}

func (s *Service) ListStakeholderGroups(ctx context.Context) ([]StakeholderGroup, error) {
	groups, err := wrap("list stakeholder groups", s.store.ListStakeholderGroups)(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Users == nil {
			groups[i].Users = []User{}
		}
	}
	return groups, nil
}

func (s *Service) ListProcesses(ctx context.Context) ([]Process, error) {
	return wrap("list processes", s.store.ListProcesses)(ctx)
}

func (s *Service) ListDataTypes(ctx context.Context) ([]DataType, error) {
	return wrap("list data types", s.store.ListDataTypes)(ctx)
}

func (s *Service) ListQualityCriteria(ctx context.Context) ([]QualityCriterion, error) {
	return wrap("list quality criteria", s.store.ListQualityCriteria)(ctx)
}

func wrap[T any](op string, list func(context.Context) ([]T, error)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
}
