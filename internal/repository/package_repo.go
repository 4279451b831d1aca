package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreatePackageInput struct {
	StudentID       int64
	PackageType     string
	TotalSessions   int
	PricePerSession float64
	ExpiresAt       *time.Time
}

type PackageRepository struct {
	db DBTX
}

func NewPackageRepository(db DBTX) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = "id, student_id, package_type, total_sessions, used_sessions, price_per_session, status, expires_at, created_at, updated_at"

func (r *PackageRepository) Create(ctx context.Context, input CreatePackageInput) (*models.SessionPackage, error) {
	query := fmt.Sprintf(`
		INSERT INTO session_packages (student_id, package_type, total_sessions, used_sessions, price_per_session, status, expires_at)
		VALUES ($1, $2, $3, 0, $4, 'pending_payment', $5)
		RETURNING %s
	`, packageColumns)
	return r.scanOne(ctx, query,
		input.StudentID,
		input.PackageType,
		input.TotalSessions,
		input.PricePerSession,
		input.ExpiresAt,
	)
}

func (r *PackageRepository) GetByID(ctx context.Context, packageID int64) (*models.SessionPackage, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_packages WHERE id = $1`, packageColumns)
	return r.scanOne(ctx, query, packageID)
}

func (r *PackageRepository) GetByIDForUpdate(ctx context.Context, packageID int64) (*models.SessionPackage, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_packages WHERE id = $1 FOR UPDATE`, packageColumns)
	return r.scanOne(ctx, query, packageID)
}

func (r *PackageRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.SessionPackage, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_packages
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
	`, packageColumns)

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packages := make([]models.SessionPackage, 0)
	for rows.Next() {
		var pkg models.SessionPackage
		if err := rows.Scan(
			&pkg.ID,
			&pkg.StudentID,
			&pkg.PackageType,
			&pkg.TotalSessions,
			&pkg.UsedSessions,
			&pkg.PricePerSession,
			&pkg.Status,
			&pkg.ExpiresAt,
			&pkg.CreatedAt,
			&pkg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return packages, nil
}

// Consume debits one session. The WHERE clause re-checks the balance so two
// confirms racing on a near-exhausted package cannot both debit; the status
// flips to exhausted in the same statement when the last session is used.
func (r *PackageRepository) Consume(ctx context.Context, packageID int64) (*models.SessionPackage, error) {
	query := fmt.Sprintf(`
		UPDATE session_packages
		SET used_sessions = used_sessions + 1,
		    status = CASE WHEN used_sessions + 1 >= total_sessions THEN 'exhausted' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND used_sessions < total_sessions
		RETURNING %s
	`, packageColumns)
	return r.scanOne(ctx, query, packageID)
}

func (r *PackageRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	packageID int64,
	currentStatus string,
	nextStatus string,
) (*models.SessionPackage, error) {
	query := fmt.Sprintf(`
		UPDATE session_packages
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, packageColumns)
	return r.scanOne(ctx, query, packageID, currentStatus, nextStatus)
}

// ExpireDue flips active packages whose expires_at has passed. Remaining
// balance is irrelevant: expiry wins over balance.
func (r *PackageRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE session_packages
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PackageRepository) scanOne(ctx context.Context, query string, args ...any) (*models.SessionPackage, error) {
	var pkg models.SessionPackage
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&pkg.ID,
		&pkg.StudentID,
		&pkg.PackageType,
		&pkg.TotalSessions,
		&pkg.UsedSessions,
		&pkg.PricePerSession,
		&pkg.Status,
		&pkg.ExpiresAt,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}
