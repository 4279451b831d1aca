package repository

import (
	"context"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreateClassInput struct {
	Name            string
	Level           string
	Description     *string
	InstructorID    *int64
	PricePerSession float64
}

type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(ctx context.Context, input CreateClassInput) (*models.Class, error) {
	query := `
		INSERT INTO classes (name, level, description, instructor_id, price_per_session)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, level, description, instructor_id, price_per_session, active, created_at, updated_at
	`
	var class models.Class
	err := r.db.QueryRow(
		ctx,
		query,
		input.Name,
		input.Level,
		input.Description,
		input.InstructorID,
		input.PricePerSession,
	).Scan(
		&class.ID,
		&class.Name,
		&class.Level,
		&class.Description,
		&class.InstructorID,
		&class.PricePerSession,
		&class.Active,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepository) GetByID(ctx context.Context, classID int64) (*models.Class, error) {
	query := `
		SELECT id, name, level, description, instructor_id, price_per_session, active, created_at, updated_at
		FROM classes
		WHERE id = $1
	`
	var class models.Class
	err := r.db.QueryRow(ctx, query, classID).Scan(
		&class.ID,
		&class.Name,
		&class.Level,
		&class.Description,
		&class.InstructorID,
		&class.PricePerSession,
		&class.Active,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepository) List(ctx context.Context, activeOnly bool) ([]models.Class, error) {
	query := `
		SELECT id, name, level, description, instructor_id, price_per_session, active, created_at, updated_at
		FROM classes
		WHERE ($1 = false OR active = true)
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]models.Class, 0)
	for rows.Next() {
		var class models.Class
		if err := rows.Scan(
			&class.ID,
			&class.Name,
			&class.Level,
			&class.Description,
			&class.InstructorID,
			&class.PricePerSession,
			&class.Active,
			&class.CreatedAt,
			&class.UpdatedAt,
		); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *ClassRepository) SetActive(ctx context.Context, classID int64, active bool) (*models.Class, error) {
	query := `
		UPDATE classes
		SET active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, level, description, instructor_id, price_per_session, active, created_at, updated_at
	`
	var class models.Class
	err := r.db.QueryRow(ctx, query, classID, active).Scan(
		&class.ID,
		&class.Name,
		&class.Level,
		&class.Description,
		&class.InstructorID,
		&class.PricePerSession,
		&class.Active,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}
