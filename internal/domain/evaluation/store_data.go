package evaluation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	fkEvaluationPeriod = "evaluation_fk_period_fkey"
	fkEvaluationUser   = "evaluation_fk_user_fkey"
	fkActionPeriod     = "evaluation_action_fk_period_fkey"
	fkActionUser       = "evaluation_action_fk_user_fkey"
)

func (s *Store) CreatePeriod(ctx context.Context, name string) (Period, error) {
	var period Period
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_period (name)
    VALUES ($1)
    RETURNING id, name, is_current, created_at
  `, name).Scan(&period.ID, &period.Name, &period.Current, &period.CreatedAt); err != nil {
		return Period{}, err
	}
	return period, nil
}

// MarkCurrentPeriod moves the current marker. Callers run it inside WithTx so
// the clear and set are observed together.
func (s *Store) MarkCurrentPeriod(ctx context.Context, periodID int64) error {
	if _, err := s.DB.Exec(ctx, `
    UPDATE evaluation_period
    SET is_current = false
    WHERE is_current AND id <> $1
  `, periodID); err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, "UPDATE evaluation_period SET is_current = true WHERE id = $1", periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) CurrentPeriod(ctx context.Context) (Period, error) {
	var period Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, is_current, created_at
    FROM evaluation_period
    WHERE is_current
  `).Scan(&period.ID, &period.Name, &period.Current, &period.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrNoCurrentPeriod
	}
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, is_current, created_at
    FROM evaluation_period
    ORDER BY id DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := make([]Period, 0)
	for rows.Next() {
		var period Period
		if err := rows.Scan(&period.ID, &period.Name, &period.Current, &period.CreatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

func (s *Store) GetPeriod(ctx context.Context, periodID int64) (Period, error) {
	var period Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, is_current, created_at
    FROM evaluation_period
    WHERE id = $1
  `, periodID).Scan(&period.ID, &period.Name, &period.Current, &period.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Store) CreateParticipant(ctx context.Context, participant Participant, passwordHash string) (int64, error) {
	var id int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO app_user (email, password_hash, first_name, last_name)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, participant.Email, passwordHash, participant.FirstName, participant.LastName).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) DepartmentIDs(ctx context.Context) ([]int64, error) {
	return s.collectIDs(ctx, "SELECT id FROM department ORDER BY id")
}

func (s *Store) AddUserDepartment(ctx context.Context, userID, departmentID int64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_department (fk_user, fk_department)
    VALUES ($1,$2)
    ON CONFLICT DO NOTHING
  `, userID, departmentID)
	return err
}

func (s *Store) CreateEvaluation(ctx context.Context, periodID, userID int64) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation (fk_period, fk_user)
    VALUES ($1,$2)
    RETURNING id
  `, periodID, userID).Scan(&id)
	switch foreignKeyFailure(err) {
	case fkEvaluationPeriod:
		return 0, ErrPeriodNotFound
	case fkEvaluationUser:
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetEvaluation(ctx context.Context, evaluationID int64) (Evaluation, error) {
	return s.scanEvaluation(ctx, `
    SELECT id, fk_period, fk_user, completed
    FROM evaluation
    WHERE id = $1
  `, evaluationID)
}

func (s *Store) LockEvaluation(ctx context.Context, evaluationID int64) (Evaluation, error) {
	return s.scanEvaluation(ctx, `
    SELECT id, fk_period, fk_user, completed
    FROM evaluation
    WHERE id = $1
    FOR UPDATE
  `, evaluationID)
}

func (s *Store) scanEvaluation(ctx context.Context, query string, evaluationID int64) (Evaluation, error) {
	var eval Evaluation
	err := s.DB.QueryRow(ctx, query, evaluationID).Scan(&eval.ID, &eval.PeriodID, &eval.UserID, &eval.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrEvaluationNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	return eval, nil
}

func (s *Store) EvaluationParticipant(ctx context.Context, evaluationID int64) (Participant, error) {
	var p Participant
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.first_name, u.last_name
    FROM app_user u
    JOIN evaluation e ON e.fk_user = u.id
    WHERE e.id = $1
  `, evaluationID).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrEvaluationNotFound
	}
	if err != nil {
		return Participant{}, err
	}
	return p, nil
}

func (s *Store) PeriodUserIDs(ctx context.Context, periodID int64) ([]int64, error) {
	return s.collectIDs(ctx, "SELECT fk_user FROM evaluation WHERE fk_period = $1 ORDER BY id", periodID)
}

// CreateProcess returns the existing id when a process of the same name,
// ignoring case, is already catalogued.
func (s *Store) CreateProcess(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO process (name)
    VALUES ($1)
    ON CONFLICT ((lower(name))) DO UPDATE SET name = process.name
    RETURNING id
  `, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) AddEvaluationProcesses(ctx context.Context, evaluationID int64, processIDs []int64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_process (fk_evaluation, fk_process)
    SELECT $1, p FROM unnest($2::bigint[]) AS t(p)
  `, evaluationID, processIDs)
	if isPgError(err, pgForeignKeyViolation) {
		return ErrScopeViolation
	}
	return err
}

func (s *Store) EvaluationProcesses(ctx context.Context, evaluationID int64) ([]EvaluationProcess, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, ep.id
    FROM process p
    JOIN evaluation_process ep ON p.id = ep.fk_process
    WHERE ep.fk_evaluation = $1
    ORDER BY ep.id
  `, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EvaluationProcess, 0)
	for rows.Next() {
		var ep EvaluationProcess
		if err := rows.Scan(&ep.ProcessID, &ep.Name, &ep.EvaluationProcessID); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *Store) EvaluationProcessOwner(ctx context.Context, evaluationProcessID int64) (int64, error) {
	var evaluationID int64
	err := s.DB.QueryRow(ctx, "SELECT fk_evaluation FROM evaluation_process WHERE id = $1", evaluationProcessID).Scan(&evaluationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrScopeViolation
	}
	if err != nil {
		return 0, err
	}
	return evaluationID, nil
}

func (s *Store) AddEvaluationDataTypes(ctx context.Context, bindings []DataTypeBinding) error {
	processIDs := make([]int64, 0, len(bindings))
	dataTypeIDs := make([]int64, 0, len(bindings))
	for _, b := range bindings {
		processIDs = append(processIDs, b.EvaluationProcessID)
		dataTypeIDs = append(dataTypeIDs, b.DataTypeID)
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_process_data_type (fk_evaluation_process, fk_data_type)
    SELECT ep, dt FROM unnest($1::bigint[], $2::bigint[]) AS t(ep, dt)
    ON CONFLICT DO NOTHING
  `, processIDs, dataTypeIDs)
	if isPgError(err, pgForeignKeyViolation) {
		return ErrScopeViolation
	}
	return err
}

func (s *Store) EvaluationDataTypes(ctx context.Context, evaluationID int64) ([]ScopedDataType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT ep.fk_process, epdt.fk_data_type
    FROM evaluation_process_data_type epdt
    JOIN evaluation_process ep ON epdt.fk_evaluation_process = ep.id
    WHERE ep.fk_evaluation = $1
    ORDER BY ep.fk_process, epdt.fk_data_type
  `, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ScopedDataType, 0)
	for rows.Next() {
		var sd ScopedDataType
		if err := rows.Scan(&sd.ProcessID, &sd.DataTypeID); err != nil {
			return nil, err
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}

func (s *Store) CriteriaIDs(ctx context.Context) ([]int64, error) {
	return s.collectIDs(ctx, "SELECT id FROM quality_criteria ORDER BY id")
}

// InsertScores queues one parameterized insert per fact in a single batch.
func (s *Store) InsertScores(ctx context.Context, evaluationID int64, facts []ScoreFact) error {
	batch := &pgx.Batch{}
	for _, fact := range facts {
		batch.Queue(`
      INSERT INTO evaluation_data_type_criteria_score (fk_evaluation, fk_data_type, fk_criteria, score)
      VALUES ($1,$2,$3,$4)
    `, evaluationID, fact.DataTypeID, fact.CriteriaID, fact.Value)
	}

	results := s.DB.SendBatch(ctx, batch)
	for _, fact := range facts {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			switch {
			case isPgError(err, pgUniqueViolation):
				return &ScoreError{Kind: ErrDuplicateScore, EvaluationID: evaluationID, DataTypeID: fact.DataTypeID, CriteriaID: fact.CriteriaID}
			case isPgError(err, pgForeignKeyViolation):
				return &ScoreError{Kind: ErrScopeViolation, EvaluationID: evaluationID, DataTypeID: fact.DataTypeID, CriteriaID: fact.CriteriaID}
			}
			return err
		}
	}
	return results.Close()
}

func (s *Store) MarkCompleted(ctx context.Context, evaluationID int64) error {
	tag, err := s.DB.Exec(ctx, "UPDATE evaluation SET completed = true WHERE id = $1", evaluationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

func (s *Store) EvaluationScores(ctx context.Context, evaluationID int64) ([]ScoreFact, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT fk_data_type, fk_criteria, score
    FROM evaluation_data_type_criteria_score
    WHERE fk_evaluation = $1
    ORDER BY fk_criteria, fk_data_type
  `, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := make([]ScoreFact, 0)
	for rows.Next() {
		var fact ScoreFact
		if err := rows.Scan(&fact.DataTypeID, &fact.CriteriaID, &fact.Value); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

func (s *Store) CompletedPeriodScores(ctx context.Context, periodID int64) ([]PeriodScore, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT s.fk_evaluation, dt.id, dt.name, qc.id, qc.name, s.score
    FROM evaluation_data_type_criteria_score s
    JOIN evaluation e ON s.fk_evaluation = e.id
    JOIN data_type dt ON s.fk_data_type = dt.id
    JOIN quality_criteria qc ON s.fk_criteria = qc.id
    WHERE e.fk_period = $1 AND e.completed
    ORDER BY s.fk_evaluation, qc.id, dt.id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]PeriodScore, 0)
	for rows.Next() {
		var ps PeriodScore
		if err := rows.Scan(&ps.EvaluationID, &ps.DataTypeID, &ps.DataTypeName, &ps.CriteriaID, &ps.CriteriaName, &ps.Value); err != nil {
			return nil, err
		}
		scores = append(scores, ps)
	}
	return scores, rows.Err()
}

func (s *Store) CountCompleted(ctx context.Context, periodID int64) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM evaluation
    WHERE fk_period = $1 AND completed
  `, periodID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ScopedDataTypeCounts(ctx context.Context, periodID int64, limit int) ([]ScopedDataTypeCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT dt.id, dt.name, dt.description, COUNT(1) AS scoped
    FROM data_type dt
    JOIN evaluation_process_data_type epdt ON dt.id = epdt.fk_data_type
    JOIN evaluation_process ep ON epdt.fk_evaluation_process = ep.id
    JOIN evaluation e ON ep.fk_evaluation = e.id
    WHERE e.fk_period = $1
    GROUP BY dt.id
    ORDER BY scoped DESC, dt.id
    LIMIT $2
  `, periodID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ScopedDataTypeCount, 0)
	for rows.Next() {
		var c ScopedDataTypeCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListActions(ctx context.Context, periodID int64) ([]Action, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, activity, fk_user, status
    FROM evaluation_action
    WHERE fk_period = $1
    ORDER BY id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]Action, 0)
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.Activity, &a.UserID, &a.Status); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *Store) CreateActions(ctx context.Context, periodID int64, actions []Action) error {
	activities := make([]string, 0, len(actions))
	userIDs := make([]int64, 0, len(actions))
	statuses := make([]string, 0, len(actions))
	for _, a := range actions {
		activities = append(activities, a.Activity)
		userIDs = append(userIDs, a.UserID)
		statuses = append(statuses, a.Status)
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_action (activity, fk_period, fk_user, status)
    SELECT a, $1, u, st FROM unnest($2::text[], $3::bigint[], $4::text[]) AS t(a, u, st)
  `, periodID, activities, userIDs, statuses)
	switch foreignKeyFailure(err) {
	case fkActionPeriod:
		return ErrPeriodNotFound
	case fkActionUser:
		return ErrUserNotFound
	}
	return err
}

func (s *Store) collectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// foreignKeyFailure names the violated foreign key constraint, or returns ""
// when err is not a foreign key violation.
func foreignKeyFailure(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return pgErr.ConstraintName
	}
	return ""
}
