package evaluationhandler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dqeval/internal/domain/evaluation"
	"dqeval/internal/transport/http/api"
	"dqeval/internal/transport/http/middleware"
	"dqeval/internal/transport/http/shared"
)

const maxTopDataTypes = 50

// Service is the slice of evaluation.Service the handlers call.
type Service interface {
	CreatePeriod(ctx context.Context, name string) (evaluation.Period, error)
	SetCurrentPeriod(ctx context.Context, periodID int64) error
	CurrentPeriod(ctx context.Context) (evaluation.Period, error)
	ListPeriods(ctx context.Context) ([]evaluation.Period, error)
	EvaluationPeriod(ctx context.Context, evaluationID int64) (evaluation.Period, error)
	CreateEvaluation(ctx context.Context) (evaluation.Evaluation, error)
	Participant(ctx context.Context, evaluationID int64) (evaluation.Participant, error)
	AssignStakeholders(ctx context.Context, periodID int64, userIDs []int64) ([]int64, error)
	ListStakeholders(ctx context.Context, periodID int64) ([]int64, error)
	AssignProcesses(ctx context.Context, evaluationID int64, processIDs []int64, newProcesses []string) error
	ListProcesses(ctx context.Context, evaluationID int64) ([]evaluation.EvaluationProcess, error)
	AssignDataTypes(ctx context.Context, evaluationID int64, bindings []evaluation.DataTypeBinding) error
	ListDataTypes(ctx context.Context, evaluationID int64) ([]evaluation.ScopedDataType, error)
	ListActions(ctx context.Context, periodID int64) ([]evaluation.Action, error)
	CreateActions(ctx context.Context, periodID int64, actions []evaluation.Action) error
	SubmitScores(ctx context.Context, evaluationID int64, facts []evaluation.ScoreFact) error
	EvaluationMatrix(ctx context.Context, evaluationID int64) (evaluation.Matrix, error)
	CountCompleted(ctx context.Context, periodID int64) (int, error)
	CountCompletedForEvaluation(ctx context.Context, evaluationID int64) (int, error)
	AggregateByDataType(ctx context.Context, evaluationID int64) ([]evaluation.Summary, error)
	AggregateByCriteria(ctx context.Context, evaluationID int64) ([]evaluation.Summary, error)
	PeriodResults(ctx context.Context, evaluationID int64) (evaluation.Matrix, error)
	TopScopedDataTypes(ctx context.Context, evaluationID int64, limit int) ([]evaluation.ScopedDataTypeCount, error)
	PeriodReport(ctx context.Context, evaluationID int64) (evaluation.PeriodReport, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.Post("/", h.handleCreateEvaluation)
		r.Route("/{evaluationID}", func(r chi.Router) {
			r.Get("/period", h.handleEvaluationPeriod)
			r.Get("/participant", h.handleParticipant)
			r.Get("/processes", h.handleListProcesses)
			r.Post("/processes", h.handleAssignProcesses)
			r.Get("/data-types", h.handleListDataTypes)
			r.Post("/data-types", h.handleAssignDataTypes)
			r.Get("/scores", h.handleGetScores)
			r.Post("/scores", h.handleSubmitScores)
			r.Get("/scores/data-types", h.handleTopDataTypes)
			r.Get("/results", h.handleResults)
			r.Get("/total-evaluations", h.handleTotalEvaluations)
			r.Get("/summary/data-types", h.handleSummaryDataTypes)
			r.Get("/summary/quality-criteria", h.handleSummaryCriteria)
			r.Get("/report", h.handleReport)
			r.Get("/report.pdf", h.handleReportPDF)
		})
	})

	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.handleListPeriods)
		r.Post("/", h.handleCreatePeriod)
		r.Get("/current", h.handleCurrentPeriod)
		r.Put("/current", h.handleSetCurrentPeriod)
		r.Route("/{periodID}", func(r chi.Router) {
			r.Get("/stakeholders", h.handleListStakeholders)
			r.Post("/stakeholders", h.handleAssignStakeholders)
			r.Get("/completed", h.handleCompleted)
			r.Get("/actions", h.handleListActions)
			r.Post("/actions", h.handleCreateActions)
		})
	})
}

type createPeriodRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type setCurrentPeriodRequest struct {
	PeriodID int64 `json:"periodId" validate:"required,gt=0"`
}

type assignProcessesRequest struct {
	ProcessIDs   []int64  `json:"processIds" validate:"dive,gt=0"`
	NewProcesses []string `json:"newProcesses" validate:"dive,max=200"`
}

type assignDataTypesRequest struct {
	Bindings []evaluation.DataTypeBinding `json:"bindings" validate:"required,min=1,dive"`
}

type assignStakeholdersRequest struct {
	UserIDs []int64 `json:"userIds" validate:"required,min=1,dive,gt=0"`
}

type createActionsRequest struct {
	Actions []evaluation.Action `json:"actions" validate:"required,min=1,dive"`
}

type scoreInput struct {
	DataTypeID int64 `json:"dataTypeId" validate:"required,gt=0"`
	CriteriaID int64 `json:"criteriaId" validate:"required,gt=0"`
	Value      int64 `json:"value"`
}

// submitScoresRequest accepts exactly one of the flat list or the nested
// matrix criterion -> data type -> value.
type submitScoresRequest struct {
	Scores []scoreInput      `json:"scores" validate:"required_without=Matrix,excluded_with=Matrix,dive"`
	Matrix evaluation.Matrix `json:"matrix" validate:"required_without=Scores,excluded_with=Scores"`
}

func (p submitScoresRequest) facts() []evaluation.ScoreFact {
	if len(p.Scores) == 0 {
		return p.Matrix.Facts()
	}
	facts := make([]evaluation.ScoreFact, 0, len(p.Scores))
	for _, s := range p.Scores {
		facts = append(facts, evaluation.ScoreFact{DataTypeID: s.DataTypeID, CriteriaID: s.CriteriaID, Value: s.Value})
	}
	return facts
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := shared.PathID(r, name)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	eval, err := h.Service.CreateEvaluation(r.Context())
	if err != nil {
		writeError(w, r, "create evaluation", err)
		return
	}
	api.Created(w, eval, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEvaluationPeriod(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	period, err := h.Service.EvaluationPeriod(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "evaluation period", err)
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleParticipant(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	participant, err := h.Service.Participant(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "evaluation participant", err)
		return
	}
	api.Success(w, participant, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	processes, err := h.Service.ListProcesses(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "list evaluation processes", err)
		return
	}
	api.Success(w, processes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignProcesses(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	var payload assignProcessesRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	if len(payload.ProcessIDs) == 0 && len(payload.NewProcesses) == 0 {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "processIds", Reason: "is required without newProcesses"}})
		return
	}
	if err := h.Service.AssignProcesses(r.Context(), evaluationID, payload.ProcessIDs, payload.NewProcesses); err != nil {
		writeError(w, r, "assign processes", err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListDataTypes(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	scoped, err := h.Service.ListDataTypes(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "list evaluation data types", err)
		return
	}
	api.Success(w, scoped, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignDataTypes(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	var payload assignDataTypesRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.AssignDataTypes(r.Context(), evaluationID, payload.Bindings); err != nil {
		writeError(w, r, "assign data types", err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleGetScores(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	matrix, err := h.Service.EvaluationMatrix(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "evaluation scores", err)
		return
	}
	api.Success(w, matrix, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitScores(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	var payload submitScoresRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	facts := payload.facts()
	if err := h.Service.SubmitScores(r.Context(), evaluationID, facts); err != nil {
		writeError(w, r, "submit scores", err)
		return
	}
	api.Created(w, map[string]any{"evaluationId": evaluationID, "scores": len(facts), "completed": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTopDataTypes(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	limit := shared.ParseLimit(r, evaluation.DefaultTopDataTypes, maxTopDataTypes)
	counts, err := h.Service.TopScopedDataTypes(r.Context(), evaluationID, limit)
	if err != nil {
		writeError(w, r, "top scoped data types", err)
		return
	}
	api.Success(w, counts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	results, err := h.Service.PeriodResults(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "period results", err)
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTotalEvaluations(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	total, err := h.Service.CountCompletedForEvaluation(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "count completed", err)
		return
	}
	api.Success(w, map[string]int{"total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaryDataTypes(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	summaries, err := h.Service.AggregateByDataType(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "data type summary", err)
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaryCriteria(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	summaries, err := h.Service.AggregateByCriteria(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "quality criteria summary", err)
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	report, err := h.Service.PeriodReport(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "period report", err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	evaluationID, ok := pathID(w, r, "evaluationID")
	if !ok {
		return
	}
	report, err := h.Service.PeriodReport(r.Context(), evaluationID)
	if err != nil {
		writeError(w, r, "period report", err)
		return
	}

	// Render fully before writing so a failure can still produce an envelope.
	var buf bytes.Buffer
	if err := evaluation.WritePeriodReportPDF(&buf, report); err != nil {
		writeError(w, r, "render period report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="period-`+strconv.FormatInt(report.PeriodID, 10)+`-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		writeError(w, r, "list periods", err)
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var payload createPeriodRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	period, err := h.Service.CreatePeriod(r.Context(), payload.Name)
	if err != nil {
		writeError(w, r, "create period", err)
		return
	}
	api.Created(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.CurrentPeriod(r.Context())
	if err != nil {
		writeError(w, r, "current period", err)
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	var payload setCurrentPeriodRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.SetCurrentPeriod(r.Context(), payload.PeriodID); err != nil {
		writeError(w, r, "set current period", err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListStakeholders(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodID")
	if !ok {
		return
	}
	userIDs, err := h.Service.ListStakeholders(r.Context(), periodID)
	if err != nil {
		writeError(w, r, "list stakeholders", err)
		return
	}
	api.Success(w, map[string][]int64{"userIds": userIDs}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignStakeholders(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodID")
	if !ok {
		return
	}
	var payload assignStakeholdersRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	ids, err := h.Service.AssignStakeholders(r.Context(), periodID, payload.UserIDs)
	if err != nil {
		writeError(w, r, "assign stakeholders", err)
		return
	}
	api.Created(w, map[string][]int64{"evaluationIds": ids}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompleted(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodID")
	if !ok {
		return
	}
	total, err := h.Service.CountCompleted(r.Context(), periodID)
	if err != nil {
		writeError(w, r, "count completed", err)
		return
	}
	api.Success(w, map[string]int{"total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodID")
	if !ok {
		return
	}
	actions, err := h.Service.ListActions(r.Context(), periodID)
	if err != nil {
		writeError(w, r, "list actions", err)
		return
	}
	api.Success(w, actions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateActions(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodID")
	if !ok {
		return
	}
	var payload createActionsRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.CreateActions(r.Context(), periodID, payload.Actions); err != nil {
		writeError(w, r, "create actions", err)
		return
	}
	api.NoContent(w)
}
