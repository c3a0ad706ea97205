package evaluation

import "context"

type StoreAPI interface {
	// WithTx runs fn against a store bound to one transaction. An error from fn
	// rolls the transaction back.
	WithTx(ctx context.Context, fn func(StoreAPI) error) error

	CreatePeriod(ctx context.Context, name string) (Period, error)
	MarkCurrentPeriod(ctx context.Context, periodID int64) error
	CurrentPeriod(ctx context.Context) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	GetPeriod(ctx context.Context, periodID int64) (Period, error)

	CreateParticipant(ctx context.Context, participant Participant, passwordHash string) (int64, error)
	DepartmentIDs(ctx context.Context) ([]int64, error)
	AddUserDepartment(ctx context.Context, userID, departmentID int64) error
	CreateEvaluation(ctx context.Context, periodID, userID int64) (int64, error)
	GetEvaluation(ctx context.Context, evaluationID int64) (Evaluation, error)
	LockEvaluation(ctx context.Context, evaluationID int64) (Evaluation, error)
	EvaluationParticipant(ctx context.Context, evaluationID int64) (Participant, error)
	PeriodUserIDs(ctx context.Context, periodID int64) ([]int64, error)

	CreateProcess(ctx context.Context, name string) (int64, error)
	AddEvaluationProcesses(ctx context.Context, evaluationID int64, processIDs []int64) error
	EvaluationProcesses(ctx context.Context, evaluationID int64) ([]EvaluationProcess, error)
	EvaluationProcessOwner(ctx context.Context, evaluationProcessID int64) (int64, error)
	AddEvaluationDataTypes(ctx context.Context, bindings []DataTypeBinding) error
	EvaluationDataTypes(ctx context.Context, evaluationID int64) ([]ScopedDataType, error)
	CriteriaIDs(ctx context.Context) ([]int64, error)

	InsertScores(ctx context.Context, evaluationID int64, facts []ScoreFact) error
	MarkCompleted(ctx context.Context, evaluationID int64) error
	EvaluationScores(ctx context.Context, evaluationID int64) ([]ScoreFact, error)
	CompletedPeriodScores(ctx context.Context, periodID int64) ([]PeriodScore, error)
	CountCompleted(ctx context.Context, periodID int64) (int, error)
	ScopedDataTypeCounts(ctx context.Context, periodID int64, limit int) ([]ScopedDataTypeCount, error)

	ListActions(ctx context.Context, periodID int64) ([]Action, error)
	CreateActions(ctx context.Context, periodID int64, actions []Action) error
}
