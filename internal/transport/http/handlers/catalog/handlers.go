package cataloghandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dqeval/internal/domain/catalog"
	"dqeval/internal/transport/http/api"
	"dqeval/internal/transport/http/middleware"
)

type Service interface {
	ListUsers(ctx context.Context) ([]catalog.User, error)
	ListStakeholderGroups(ctx context.Context) ([]catalog.StakeholderGroup, error)
	ListProcesses(ctx context.Context) ([]catalog.Process, error)
	ListDataTypes(ctx context.Context) ([]catalog.DataType, error)
	ListQualityCriteria(ctx context.Context) ([]catalog.QualityCriterion, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users", list(h.Service.ListUsers, "users"))
	r.Get("/stakeholders", list(h.Service.ListStakeholderGroups, "stakeholder groups"))
	r.Get("/processes", list(h.Service.ListProcesses, "processes"))
	r.Get("/data-types", list(h.Service.ListDataTypes, "data types"))
	r.Get("/quality-criteria", list(h.Service.ListQualityCriteria, "quality criteria"))
}

func list[T any](fetch func(context.Context) ([]T, error), what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetch(r.Context())
		if err != nil {
			slog.Error("list "+what+" failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
			api.Fail(w, http.StatusServiceUnavailable, "catalog_unavailable", "failed to list "+what, middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, items, middleware.GetRequestID(r.Context()))
	}
}
