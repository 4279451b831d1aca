package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreateClassSessionInput struct {
	ClassID         int64
	SessionDate     time.Time
	MaxParticipants int
}

type SessionListFilter struct {
	ClassID int64
	From    *time.Time
	To      *time.Time
	Status  string
}

type ClassSessionRepository struct {
	db DBTX
}

func NewClassSessionRepository(db DBTX) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

const classSessionColumns = "id, class_id, session_date, max_participants, enrolled_students, status, created_at, updated_at"

func (r *ClassSessionRepository) Create(
	ctx context.Context,
	input CreateClassSessionInput,
) (*models.ClassSession, error) {
	query := fmt.Sprintf(`
		INSERT INTO class_sessions (class_id, session_date, max_participants, enrolled_students, status)
		VALUES ($1, $2, $3, 0, 'scheduled')
		RETURNING %s
	`, classSessionColumns)

	var session models.ClassSession
	err := r.db.QueryRow(ctx, query, input.ClassID, input.SessionDate, input.MaxParticipants).Scan(
		&session.ID,
		&session.ClassID,
		&session.SessionDate,
		&session.MaxParticipants,
		&session.EnrolledStudents,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ClassSessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1`, classSessionColumns)
	return r.scanOne(ctx, query, sessionID)
}

// GetByIDForUpdate locks the session row for the duration of the enclosing
// transaction. Confirmation always locks the session row before the package
// row to keep a single lock order across concurrent confirms.
func (r *ClassSessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1 FOR UPDATE`, classSessionColumns)
	return r.scanOne(ctx, query, sessionID)
}

func (r *ClassSessionRepository) scanOne(ctx context.Context, query string, args ...any) (*models.ClassSession, error) {
	var session models.ClassSession
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&session.ID,
		&session.ClassID,
		&session.SessionDate,
		&session.MaxParticipants,
		&session.EnrolledStudents,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ClassSessionRepository) ListSummaries(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.SessionSummary, error) {
	args := []any{}
	whereParts := []string{}

	if filter.ClassID > 0 {
		args = append(args, filter.ClassID)
		whereParts = append(whereParts, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		whereParts = append(whereParts, fmt.Sprintf("s.session_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		whereParts = append(whereParts, fmt.Sprintf("s.session_date <= $%d", len(args)))
	}

	whereClause := ""
	if len(whereParts) > 0 {
		whereClause = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.class_id, s.session_date, s.max_participants, s.enrolled_students, s.status,
		       s.created_at, s.updated_at, c.name
		FROM class_sessions s
		JOIN classes c ON c.id = s.class_id
		%s
		ORDER BY s.session_date ASC, s.id ASC
	`, whereClause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.SessionSummary, 0)
	for rows.Next() {
		var summary models.SessionSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.ClassID,
			&summary.SessionDate,
			&summary.MaxParticipants,
			&summary.EnrolledStudents,
			&summary.Status,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.ClassName,
		); err != nil {
			return nil, err
		}
		summary.SeatsLeft = summary.MaxParticipants - summary.EnrolledStudents
		if summary.SeatsLeft < 0 {
			summary.SeatsLeft = 0
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *ClassSessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.ClassSession, error) {
	query := fmt.Sprintf(`
		UPDATE class_sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, classSessionColumns)
	return r.scanOne(ctx, query, sessionID, currentStatus, nextStatus)
}

// IncrementEnrolled is the guarded seat counter bump: it refuses to go past
// max_participants even if the caller's earlier check raced.
func (r *ClassSessionRepository) IncrementEnrolled(ctx context.Context, sessionID int64) (*models.ClassSession, error) {
	query := fmt.Sprintf(`
		UPDATE class_sessions
		SET enrolled_students = enrolled_students + 1, updated_at = NOW()
		WHERE id = $1 AND enrolled_students < max_participants
		RETURNING %s
	`, classSessionColumns)
	return r.scanOne(ctx, query, sessionID)
}

func (r *ClassSessionRepository) Delete(ctx context.Context, sessionID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM class_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
