package catalog

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"dqeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, first_name, last_name FROM app_user ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListStakeholderGroups returns only departments that have members.
func (s *Store) ListStakeholderGroups(ctx context.Context) ([]StakeholderGroup, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name,
           json_agg(json_build_object('id', u.id, 'firstName', u.first_name, 'lastName', u.last_name) ORDER BY u.id)
    FROM department d
    JOIN user_department ud ON ud.fk_department = d.id
    JOIN app_user u ON u.id = ud.fk_user
    GROUP BY d.id, d.name
    ORDER BY d.id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]StakeholderGroup, 0)
	for rows.Next() {
		var g StakeholderGroup
		var members []byte
		if err := rows.Scan(&g.ID, &g.Name, &members); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(members, &g.Users); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) ListProcesses(ctx context.Context) ([]Process, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM process ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Process, error) {
		var p Process
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
}

func (s *Store) ListDataTypes(ctx context.Context) ([]DataType, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, description FROM data_type ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DataType, error) {
		var d DataType
		err := row.Scan(&d.ID, &d.Name, &d.Description)
		return d, err
	})
}

func (s *Store) ListQualityCriteria(ctx context.Context) ([]QualityCriterion, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, description, guidelines FROM quality_criteria ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (QualityCriterion, error) {
		var c QualityCriterion
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Guidelines)
		return c, err
	})
}
