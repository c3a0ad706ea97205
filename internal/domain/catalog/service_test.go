package catalog

import (
	"context"
	"errors"
	"testing"
)

type stubStore struct {
	users  []User
	groups []StakeholderGroup
	err    error
}

func (s stubStore) ListUsers(context.Context) ([]User, error) { return s.users, s.err }

func (s stubStore) ListStakeholderGroups(context.Context) ([]StakeholderGroup, error) {
	return s.groups, s.err
}

func (s stubStore) ListProcesses(context.Context) ([]Process, error) { return nil, s.err }

func (s stubStore) ListDataTypes(context.Context) ([]DataType, error) {
	return []DataType{{ID: 1, Name: "Customer records"}}, s.err
}

func (s stubStore) ListQualityCriteria(context.Context) ([]QualityCriterion, error) {
	return nil, s.err
}

func TestListReturnsEmptySlices(t *testing.T) {
	svc := NewService(stubStore{groups: []StakeholderGroup{{ID: 1, Name: "Finance"}}})

	processes, err := svc.ListProcesses(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processes == nil {
		t.Fatal("expected non-nil processes")
	}

	groups, err := svc.ListStakeholderGroups(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Users == nil {
		t.Fatal("expected non-nil member list")
	}
}

func TestListWrapsStoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	svc := NewService(stubStore{err: cause})

	_, err := svc.ListDataTypes(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
}
