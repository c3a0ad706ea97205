package evaluation

import (
	"context"
	"strings"
)

// CreatePeriod opens a new period and makes it current.
func (s *Service) CreatePeriod(ctx context.Context, name string) (Period, error) {
	var period Period
	err := s.store.WithTx(ctx, func(tx StoreAPI) error {
		created, err := tx.CreatePeriod(ctx, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if err := tx.MarkCurrentPeriod(ctx, created.ID); err != nil {
			return err
		}
		created.Current = true
		period = created
		return nil
	})
	if err != nil {
		return Period{}, storeFailure("create period", err)
	}
	return period, nil
}

func (s *Service) SetCurrentPeriod(ctx context.Context, periodID int64) error {
	return storeFailure("set current period", s.store.WithTx(ctx, func(tx StoreAPI) error {
		return tx.MarkCurrentPeriod(ctx, periodID)
	}))
}

func (s *Service) CurrentPeriod(ctx context.Context) (Period, error) {
	period, err := s.store.CurrentPeriod(ctx)
	if err != nil {
		return Period{}, storeFailure("current period", err)
	}
	return period, nil
}

func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	periods, err := s.store.ListPeriods(ctx)
	if err != nil {
		return nil, storeFailure("list periods", err)
	}
	return periods, nil
}

func (s *Service) EvaluationPeriod(ctx context.Context, evaluationID int64) (Period, error) {
	periodID, err := s.periodOf(ctx, evaluationID)
	if err != nil {
		return Period{}, err
	}
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return Period{}, storeFailure("get period", err)
	}
	return period, nil
}

// CreateEvaluation mints an anonymous participant, files it under a
// pseudo-random department and opens an evaluation in the current period.
func (s *Service) CreateEvaluation(ctx context.Context) (Evaluation, error) {
	identity, err := s.identities.NewIdentity()
	if err != nil {
		return Evaluation{}, err
	}
	secretHash, err := s.hashSecret(identity.Secret)
	if err != nil {
		return Evaluation{}, err
	}

	var eval Evaluation
	err = s.store.WithTx(ctx, func(tx StoreAPI) error {
		period, err := tx.CurrentPeriod(ctx)
		if err != nil {
			return err
		}
		userID, err := tx.CreateParticipant(ctx, Participant{
			Email:     identity.Email,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		}, secretHash)
		if err != nil {
			return err
		}
		departments, err := tx.DepartmentIDs(ctx)
		if err != nil {
			return err
		}
		if len(departments) > 0 {
			if err := tx.AddUserDepartment(ctx, userID, departments[s.pickDepartment(len(departments))]); err != nil {
				return err
			}
		}
		id, err := tx.CreateEvaluation(ctx, period.ID, userID)
		if err != nil {
			return err
		}
		eval = Evaluation{ID: id, PeriodID: period.ID, UserID: userID}
		return nil
	})
	if err != nil {
		return Evaluation{}, storeFailure("create evaluation", err)
	}
	return eval, nil
}

func (s *Service) Participant(ctx context.Context, evaluationID int64) (Participant, error) {
	p, err := s.store.EvaluationParticipant(ctx, evaluationID)
	if err != nil {
		return Participant{}, storeFailure("evaluation participant", err)
	}
	return p, nil
}

// AssignStakeholders opens one evaluation per listed user in the period and
// returns the new evaluation ids in input order.
func (s *Service) AssignStakeholders(ctx context.Context, periodID int64, userIDs []int64) ([]int64, error) {
	ids := make([]int64, 0, len(userIDs))
	err := s.store.WithTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetPeriod(ctx, periodID); err != nil {
			return err
		}
		for _, userID := range userIDs {
			id, err := tx.CreateEvaluation(ctx, periodID, userID)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure("assign stakeholders", err)
	}
	return ids, nil
}

func (s *Service) ListStakeholders(ctx context.Context, periodID int64) ([]int64, error) {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return nil, storeFailure("get period", err)
	}
	ids, err := s.store.PeriodUserIDs(ctx, periodID)
	if err != nil {
		return nil, storeFailure("period stakeholders", err)
	}
	return ids, nil
}

// AssignProcesses scopes existing processes to the evaluation and creates the
// newly named ones inline.
func (s *Service) AssignProcesses(ctx context.Context, evaluationID int64, processIDs []int64, newProcesses []string) error {
	return storeFailure("assign processes", s.store.WithTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		all := append([]int64(nil), processIDs...)
		for _, name := range newProcesses {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			id, err := tx.CreateProcess(ctx, name)
			if err != nil {
				return err
			}
			all = append(all, id)
		}
		if len(all) == 0 {
			return nil
		}
		return tx.AddEvaluationProcesses(ctx, evaluationID, all)
	}))
}

func (s *Service) ListProcesses(ctx context.Context, evaluationID int64) ([]EvaluationProcess, error) {
	if _, err := s.periodOf(ctx, evaluationID); err != nil {
		return nil, err
	}
	processes, err := s.store.EvaluationProcesses(ctx, evaluationID)
	if err != nil {
		return nil, storeFailure("evaluation processes", err)
	}
	return processes, nil
}

// AssignDataTypes binds data types to processes already scoped to this
// evaluation. A binding through another evaluation's process is a scope
// violation.
func (s *Service) AssignDataTypes(ctx context.Context, evaluationID int64, bindings []DataTypeBinding) error {
	return storeFailure("assign data types", s.store.WithTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		checked := make(map[int64]bool)
		for _, b := range bindings {
			if checked[b.EvaluationProcessID] {
				continue
			}
			owner, err := tx.EvaluationProcessOwner(ctx, b.EvaluationProcessID)
			if err != nil {
				return err
			}
			if owner != evaluationID {
				return ErrScopeViolation
			}
			checked[b.EvaluationProcessID] = true
		}
		if len(bindings) == 0 {
			return nil
		}
		return tx.AddEvaluationDataTypes(ctx, bindings)
	}))
}

func (s *Service) ListDataTypes(ctx context.Context, evaluationID int64) ([]ScopedDataType, error) {
	if _, err := s.periodOf(ctx, evaluationID); err != nil {
		return nil, err
	}
	scoped, err := s.store.EvaluationDataTypes(ctx, evaluationID)
	if err != nil {
		return nil, storeFailure("evaluation data types", err)
	}
	return scoped, nil
}

func (s *Service) ListActions(ctx context.Context, periodID int64) ([]Action, error) {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return nil, storeFailure("get period", err)
	}
	actions, err := s.store.ListActions(ctx, periodID)
	if err != nil {
		return nil, storeFailure("list actions", err)
	}
	return actions, nil
}

func (s *Service) CreateActions(ctx context.Context, periodID int64, actions []Action) error {
	prepared := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Status == "" {
			a.Status = ActionStatusOpen
		}
		prepared = append(prepared, a)
	}
	return storeFailure("create actions", s.store.WithTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetPeriod(ctx, periodID); err != nil {
			return err
		}
		if len(prepared) == 0 {
			return nil
		}
		return tx.CreateActions(ctx, periodID, prepared)
	}))
}
