package evaluation

const (
	ActionStatusOpen = "open"
	ActionStatusDone = "done"

	SubmissionOutcomeCompleted = "completed"
	SubmissionOutcomeRejected  = "rejected"
	SubmissionOutcomeFailed    = "failed"

	AggregationDataType = "data_type"
	AggregationCriteria = "criteria"
	AggregationResults  = "results"

	DefaultTopDataTypes = 5
)
