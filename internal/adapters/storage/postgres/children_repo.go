package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"immunization-scheduler/internal/domain/children"
)

type ChildrenRepo struct {
	db *sql.DB
}

func NewChildrenRepo(db *sql.DB) *ChildrenRepo {
	return &ChildrenRepo{db: db}
}

const childColumns = `id, name, sex, birth_date, guardian_name, guardian_phone, notes, created_at, updated_at`

func (r *ChildrenRepo) Create(ctx context.Context, c children.Child) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO children (`+childColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		c.ID,
		c.Name,
		string(c.Sex),
		c.BirthDate,
		c.GuardianName,
		c.GuardianPhone,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *ChildrenRepo) GetByID(ctx context.Context, id string) (children.Child, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return children.Child{}, children.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+childColumns+` FROM children WHERE id = $1`, id)
	c, err := scanChild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return children.Child{}, children.ErrNotFound
	}
	return c, err
}

func (r *ChildrenRepo) List(ctx context.Context) ([]children.Child, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+childColumns+` FROM children ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]children.Child, 0)
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(s rowScanner) (children.Child, error) {
	var (
		c   children.Child
		sex string
	)
	if err := s.Scan(
		&c.ID,
		&c.Name,
		&sex,
		&c.BirthDate,
		&c.GuardianName,
		&c.GuardianPhone,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return children.Child{}, err
	}
	c.Sex = children.Sex(sex)
	return c, nil
}
