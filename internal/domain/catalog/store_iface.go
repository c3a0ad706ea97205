package catalog

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListStakeholderGroups(ctx context.Context) ([]StakeholderGroup, error)
	ListProcesses(ctx context.Context) ([]Process, error)
	ListDataTypes(ctx context.Context) ([]DataType, error)
	ListQualityCriteria(ctx context.Context) ([]QualityCriterion, error)
}
