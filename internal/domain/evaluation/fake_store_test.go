package evaluation

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

var errInjected = errors.New("injected store failure")

type scoreRow struct {
	evaluationID int64
	fact         ScoreFact
}

type evalProcessRow struct {
	evaluationID int64
	processID    int64
}

type epDataTypeRow struct {
	evaluationProcessID int64
	dataTypeID          int64
}

type actionRow struct {
	periodID int64
	action   Action
}

type memState struct {
	nextID        int64
	periods       map[int64]Period
	users         map[int64]Participant
	userDept      map[int64]int64
	departments   []int64
	evaluations   map[int64]Evaluation
	processes     map[int64]string
	evalProcesses map[int64]evalProcessRow
	epDataTypes   []epDataTypeRow
	dataTypes     map[int64]string
	criteria      map[int64]string
	scores        []scoreRow
	actions       []actionRow
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:        s.nextID,
		periods:       maps.Clone(s.periods),
		users:         maps.Clone(s.users),
		userDept:      maps.Clone(s.userDept),
		departments:   slices.Clone(s.departments),
		evaluations:   maps.Clone(s.evaluations),
		processes:     maps.Clone(s.processes),
		evalProcesses: maps.Clone(s.evalProcesses),
		epDataTypes:   slices.Clone(s.epDataTypes),
		dataTypes:     maps.Clone(s.dataTypes),
		criteria:      maps.Clone(s.criteria),
		scores:        slices.Clone(s.scores),
		actions:       slices.Clone(s.actions),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// memStore is an in-memory StoreAPI. WithTx works on a copy of the state and
// only publishes it when fn succeeds.
type memStore struct {
	mu    *sync.Mutex
	root  *memStore
	state *memState

	// failInsertAfter makes InsertScores fail after storing that many rows.
	failInsertAfter int
	failOn          map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			nextID:        100,
			periods:       map[int64]Period{},
			users:         map[int64]Participant{},
			userDept:      map[int64]int64{},
			evaluations:   map[int64]Evaluation{},
			processes:     map[int64]string{},
			evalProcesses: map[int64]evalProcessRow{},
			dataTypes:     map[int64]string{},
			criteria:      map[int64]string{},
		},
		failInsertAfter: -1,
		failOn:          map[string]error{},
	}
}

func (m *memStore) fail(op string) error {
	if m.root != nil {
		return m.root.fail(op)
	}
	return m.failOn[op]
}

func (m *memStore) lock() func() {
	if m.root != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) WithTx(ctx context.Context, fn func(StoreAPI) error) error {
	if err := m.fail("begin"); err != nil {
		return err
	}
	unlock := m.lock()
	defer unlock()

	tx := &memStore{mu: m.mu, root: m, state: m.state.clone(), failInsertAfter: m.failInsertAfter}
	if err := fn(tx); err != nil {
		return err
	}
	if err := m.fail("commit"); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) CreatePeriod(_ context.Context, name string) (Period, error) {
	defer m.lock()()
	p := Period{ID: m.state.id(), Name: name, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.state.periods[p.ID] = p
	return p, nil
}

func (m *memStore) MarkCurrentPeriod(_ context.Context, periodID int64) error {
	defer m.lock()()
	if _, ok := m.state.periods[periodID]; !ok {
		return ErrPeriodNotFound
	}
	for id, p := range m.state.periods {
		p.Current = id == periodID
		m.state.periods[id] = p
	}
	return nil
}

func (m *memStore) CurrentPeriod(_ context.Context) (Period, error) {
	defer m.lock()()
	for _, p := range m.state.periods {
		if p.Current {
			return p, nil
		}
	}
	return Period{}, ErrNoCurrentPeriod
}

func (m *memStore) ListPeriods(_ context.Context) ([]Period, error) {
	defer m.lock()()
	out := slices.Collect(maps.Values(m.state.periods))
	slices.SortFunc(out, func(a, b Period) int { return int(b.ID - a.ID) })
	return out, nil
}

func (m *memStore) GetPeriod(_ context.Context, periodID int64) (Period, error) {
	defer m.lock()()
	p, ok := m.state.periods[periodID]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (m *memStore) CreateParticipant(_ context.Context, participant Participant, _ string) (int64, error) {
	if err := m.fail("create participant"); err != nil {
		return 0, err
	}
	defer m.lock()()
	participant.ID = m.state.id()
	m.state.users[participant.ID] = participant
	return participant.ID, nil
}

func (m *memStore) DepartmentIDs(_ context.Context) ([]int64, error) {
	defer m.lock()()
	return slices.Clone(m.state.departments), nil
}

func (m *memStore) AddUserDepartment(_ context.Context, userID, departmentID int64) error {
	defer m.lock()()
	m.state.userDept[userID] = departmentID
	return nil
}

func (m *memStore) CreateEvaluation(_ context.Context, periodID, userID int64) (int64, error) {
	if err := m.fail("create evaluation"); err != nil {
		return 0, err
	}
	defer m.lock()()
	if _, ok := m.state.periods[periodID]; !ok {
		return 0, ErrPeriodNotFound
	}
	if _, ok := m.state.users[userID]; !ok {
		return 0, ErrUserNotFound
	}
	e := Evaluation{ID: m.state.id(), PeriodID: periodID, UserID: userID}
	m.state.evaluations[e.ID] = e
	return e.ID, nil
}

func (m *memStore) GetEvaluation(_ context.Context, evaluationID int64) (Evaluation, error) {
	if err := m.fail("get evaluation"); err != nil {
		return Evaluation{}, err
	}
	defer m.lock()()
	e, ok := m.state.evaluations[evaluationID]
	if !ok {
		return Evaluation{}, ErrEvaluationNotFound
	}
	return e, nil
}

func (m *memStore) LockEvaluation(ctx context.Context, evaluationID int64) (Evaluation, error) {
	return m.GetEvaluation(ctx, evaluationID)
}

func (m *memStore) EvaluationParticipant(_ context.Context, evaluationID int64) (Participant, error) {
	defer m.lock()()
	e, ok := m.state.evaluations[evaluationID]
	if !ok {
		return Participant{}, ErrEvaluationNotFound
	}
	return m.state.users[e.UserID], nil
}

func (m *memStore) PeriodUserIDs(_ context.Context, periodID int64) ([]int64, error) {
	defer m.lock()()
	ids := make([]int64, 0)
	for _, id := range slices.Sorted(maps.Keys(m.state.evaluations)) {
		if e := m.state.evaluations[id]; e.PeriodID == periodID {
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

func (m *memStore) CreateProcess(_ context.Context, name string) (int64, error) {
	defer m.lock()()
	id := m.state.id()
	m.state.processes[id] = name
	return id, nil
}

func (m *memStore) AddEvaluationProcesses(_ context.Context, evaluationID int64, processIDs []int64) error {
	defer m.lock()()
	for _, pid := range processIDs {
		if _, ok := m.state.processes[pid]; !ok {
			return ErrScopeViolation
		}
		m.state.evalProcesses[m.state.id()] = evalProcessRow{evaluationID: evaluationID, processID: pid}
	}
	return nil
}

func (m *memStore) EvaluationProcesses(_ context.Context, evaluationID int64) ([]EvaluationProcess, error) {
	defer m.lock()()
	out := make([]EvaluationProcess, 0)
	for _, epID := range slices.Sorted(maps.Keys(m.state.evalProcesses)) {
		row := m.state.evalProcesses[epID]
		if row.evaluationID == evaluationID {
			out = append(out, EvaluationProcess{ProcessID: row.processID, Name: m.state.processes[row.processID], EvaluationProcessID: epID})
		}
	}
	return out, nil
}

func (m *memStore) EvaluationProcessOwner(_ context.Context, evaluationProcessID int64) (int64, error) {
	defer m.lock()()
	row, ok := m.state.evalProcesses[evaluationProcessID]
	if !ok {
		return 0, ErrScopeViolation
	}
	return row.evaluationID, nil
}

func (m *memStore) AddEvaluationDataTypes(_ context.Context, bindings []DataTypeBinding) error {
	defer m.lock()()
	for _, b := range bindings {
		if _, ok := m.state.evalProcesses[b.EvaluationProcessID]; !ok {
			return ErrScopeViolation
		}
		if _, ok := m.state.dataTypes[b.DataTypeID]; !ok {
			return ErrScopeViolation
		}
		row := epDataTypeRow{evaluationProcessID: b.EvaluationProcessID, dataTypeID: b.DataTypeID}
		if !slices.Contains(m.state.epDataTypes, row) {
			m.state.epDataTypes = append(m.state.epDataTypes, row)
		}
	}
	return nil
}

func (m *memStore) EvaluationDataTypes(_ context.Context, evaluationID int64) ([]ScopedDataType, error) {
	defer m.lock()()
	out := make([]ScopedDataType, 0)
	for _, row := range m.state.epDataTypes {
		ep := m.state.evalProcesses[row.evaluationProcessID]
		if ep.evaluationID == evaluationID {
			out = append(out, ScopedDataType{ProcessID: ep.processID, DataTypeID: row.dataTypeID})
		}
	}
	return out, nil
}

func (m *memStore) CriteriaIDs(_ context.Context) ([]int64, error) {
	defer m.lock()()
	return slices.Sorted(maps.Keys(m.state.criteria)), nil
}

func (m *memStore) InsertScores(_ context.Context, evaluationID int64, facts []ScoreFact) error {
	defer m.lock()()
	for i, f := range facts {
		if m.failInsertAfter >= 0 && i == m.failInsertAfter {
			return errInjected
		}
		for _, row := range m.state.scores {
			if row.evaluationID == evaluationID && row.fact.DataTypeID == f.DataTypeID && row.fact.CriteriaID == f.CriteriaID {
				return &ScoreError{Kind: ErrDuplicateScore, EvaluationID: evaluationID, DataTypeID: f.DataTypeID, CriteriaID: f.CriteriaID}
			}
		}
		m.state.scores = append(m.state.scores, scoreRow{evaluationID: evaluationID, fact: f})
	}
	return nil
}

func (m *memStore) MarkCompleted(_ context.Context, evaluationID int64) error {
	if err := m.fail("mark completed"); err != nil {
		return err
	}
	defer m.lock()()
	e, ok := m.state.evaluations[evaluationID]
	if !ok {
		return ErrEvaluationNotFound
	}
	e.Completed = true
	m.state.evaluations[evaluationID] = e
	return nil
}

func (m *memStore) EvaluationScores(_ context.Context, evaluationID int64) ([]ScoreFact, error) {
	defer m.lock()()
	out := make([]ScoreFact, 0)
	for _, row := range m.state.scores {
		if row.evaluationID == evaluationID {
			out = append(out, row.fact)
		}
	}
	return out, nil
}

func (m *memStore) CompletedPeriodScores(_ context.Context, periodID int64) ([]PeriodScore, error) {
	if err := m.fail("completed period scores"); err != nil {
		return nil, err
	}
	defer m.lock()()
	out := make([]PeriodScore, 0)
	for _, row := range m.state.scores {
		e := m.state.evaluations[row.evaluationID]
		if e.PeriodID != periodID || !e.Completed {
			continue
		}
		out = append(out, PeriodScore{
			EvaluationID: row.evaluationID,
			DataTypeID:   row.fact.DataTypeID,
			DataTypeName: m.state.dataTypes[row.fact.DataTypeID],
			CriteriaID:   row.fact.CriteriaID,
			CriteriaName: m.state.criteria[row.fact.CriteriaID],
			Value:        row.fact.Value,
		})
	}
	return out, nil
}

func (m *memStore) CountCompleted(_ context.Context, periodID int64) (int, error) {
	defer m.lock()()
	total := 0
	for _, e := range m.state.evaluations {
		if e.PeriodID == periodID && e.Completed {
			total++
		}
	}
	return total, nil
}

func (m *memStore) ScopedDataTypeCounts(_ context.Context, periodID int64, limit int) ([]ScopedDataTypeCount, error) {
	defer m.lock()()
	counts := map[int64]int64{}
	for _, row := range m.state.epDataTypes {
		ep := m.state.evalProcesses[row.evaluationProcessID]
		if m.state.evaluations[ep.evaluationID].PeriodID == periodID {
			counts[row.dataTypeID]++
		}
	}
	out := make([]ScopedDataTypeCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, ScopedDataTypeCount{ID: id, Name: m.state.dataTypes[id], Count: n})
	}
	slices.SortFunc(out, func(a, b ScopedDataTypeCount) int {
		if a.Count != b.Count {
			return int(b.Count - a.Count)
		}
		return int(a.ID - b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListActions(_ context.Context, periodID int64) ([]Action, error) {
	defer m.lock()()
	out := make([]Action, 0)
	for _, row := range m.state.actions {
		if row.periodID == periodID {
			out = append(out, row.action)
		}
	}
	return out, nil
}

func (m *memStore) CreateActions(_ context.Context, periodID int64, actions []Action) error {
	defer m.lock()()
	if _, ok := m.state.periods[periodID]; !ok {
		return ErrPeriodNotFound
	}
	for _, a := range actions {
		if _, ok := m.state.users[a.UserID]; !ok {
			return ErrUserNotFound
		}
		a.ID = m.state.id()
		m.state.actions = append(m.state.actions, actionRow{periodID: periodID, action: a})
	}
	return nil
}
