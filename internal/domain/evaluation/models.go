package evaluation

import "time"

type Period struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"createdAt"`
}

type Evaluation struct {
	ID        int64 `json:"id"`
	PeriodID  int64 `json:"periodId"`
	UserID    int64 `json:"userId"`
	Completed bool  `json:"completed"`
}

type Participant struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ScoreFact is one (data type, criterion, value) entry of a single evaluation.
type ScoreFact struct {
	DataTypeID int64 `json:"dataTypeId"`
	CriteriaID int64 `json:"criteriaId"`
	Value      int64 `json:"value"`
}

// PeriodScore is a score row of a completed evaluation joined with the names
// the summaries report.
type PeriodScore struct {
	EvaluationID int64
	DataTypeID   int64
	DataTypeName string
	CriteriaID   int64
	CriteriaName string
	Value        int64
}

// Summary is one ranked row of a period summary. AverageScore is nil when no
// score contributed to the entity.
type Summary struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Priority     int64    `json:"priority"`
	TotalScore   int64    `json:"totalScore"`
	AverageScore *float64 `json:"averageScore,omitempty"`
}

type EvaluationProcess struct {
	ProcessID           int64  `json:"id"`
	Name                string `json:"name"`
	EvaluationProcessID int64  `json:"evaluationProcessId"`
}

type DataTypeBinding struct {
	EvaluationProcessID int64 `json:"evaluationProcessId" validate:"required,gt=0"`
	DataTypeID          int64 `json:"dataTypeId" validate:"required,gt=0"`
}

type ScopedDataType struct {
	ProcessID  int64 `json:"processId"`
	DataTypeID int64 `json:"dataTypeId"`
}

type ScopedDataTypeCount struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int64  `json:"count"`
}

type Action struct {
	ID       int64  `json:"id"`
	Activity string `json:"activity" validate:"required"`
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	Status   string `json:"status" validate:"omitempty,oneof=open done"`
}

type PeriodReport struct {
	EvaluationID int64     `json:"evaluationId"`
	PeriodID     int64     `json:"periodId"`
	Completed    int       `json:"completed"`
	DataTypes    []Summary `json:"dataTypes"`
	Criteria     []Summary `json:"criteria"`
	Results      Matrix    `json:"results"`
}
