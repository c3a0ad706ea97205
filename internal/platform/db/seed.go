package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

type describedEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Guidelines  string `yaml:"guidelines"`
}

// Catalog is the reference data loaded on first start.
type Catalog struct {
	Period          string           `yaml:"period"`
	Departments     []string         `yaml:"departments"`
	Processes       []string         `yaml:"processes"`
	DataTypes       []describedEntry `yaml:"data_types"`
	QualityCriteria []describedEntry `yaml:"quality_criteria"`
}

func ParseCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("parse seed catalog: %w", err)
	}
	for i, dt := range c.DataTypes {
		if strings.TrimSpace(dt.Name) == "" {
			return Catalog{}, fmt.Errorf("seed catalog: data_types[%d] has no name", i)
		}
	}
	for i, qc := range c.QualityCriteria {
		if strings.TrimSpace(qc.Name) == "" {
			return Catalog{}, fmt.Errorf("seed catalog: quality_criteria[%d] has no name", i)
		}
	}
	return c, nil
}

// Seed loads the catalog file and inserts whatever is missing. Existing rows
// are left alone so the seed is safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := ParseCatalog(f)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, name := range catalog.Departments {
			if _, err := tx.Exec(ctx, "INSERT INTO department (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name); err != nil {
				return err
			}
		}
		for _, name := range catalog.Processes {
			if _, err := tx.Exec(ctx, "INSERT INTO process (name) VALUES ($1) ON CONFLICT ((lower(name))) DO NOTHING", name); err != nil {
				return err
			}
		}
		for _, dt := range catalog.DataTypes {
			if _, err := tx.Exec(ctx, `
        INSERT INTO data_type (name, description)
        VALUES ($1, $2)
        ON CONFLICT (name) DO NOTHING
      `, dt.Name, dt.Description); err != nil {
				return err
			}
		}
		for _, qc := range catalog.QualityCriteria {
			if _, err := tx.Exec(ctx, `
        INSERT INTO quality_criteria (name, description, guidelines)
        VALUES ($1, $2, $3)
        ON CONFLICT (name) DO NOTHING
      `, qc.Name, qc.Description, qc.Guidelines); err != nil {
				return err
			}
		}
		return ensureInitialPeriod(ctx, tx, catalog.Period)
	})
}

// ensureInitialPeriod opens a current period only on an empty database.
func ensureInitialPeriod(ctx context.Context, tx pgx.Tx, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
    INSERT INTO evaluation_period (name, is_current)
    SELECT $1, true
    WHERE NOT EXISTS (SELECT 1 FROM evaluation_period)
  `, name)
	return err
}
