package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestReservationConfirmDebitsPackageAndSeat(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	studentID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(8)
	packageID := fx.createActivePackage(studentID, adminID, 4)

	reservation, err := service.Create(ctx, studentID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: packageID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reservation.Status != models.ReservationPending {
		t.Fatalf("expected pending reservation, got %q", reservation.Status)
	}

	// Creation must not touch either counter.
	session := fx.getSession(sessionID)
	if session.EnrolledStudents != 0 {
		t.Fatalf("expected 0 enrolled after create, got %d", session.EnrolledStudents)
	}
	pkg := fx.getPackage(packageID)
	if pkg.UsedSessions != 0 {
		t.Fatalf("expected 0 used sessions after create, got %d", pkg.UsedSessions)
	}

	confirmed, err := service.Confirm(ctx, adminID, reservation.ID, nil)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != models.ReservationConfirmed {
		t.Fatalf("expected confirmed reservation, got %q", confirmed.Status)
	}

	session = fx.getSession(sessionID)
	if session.EnrolledStudents != 1 {
		t.Fatalf("expected 1 enrolled after confirm, got %d", session.EnrolledStudents)
	}
	pkg = fx.getPackage(packageID)
	if pkg.UsedSessions != 1 {
		t.Fatalf("expected 1 used session after confirm, got %d", pkg.UsedSessions)
	}

	// Re-confirming is a no-op success and must not debit again.
	again, err := service.Confirm(ctx, adminID, reservation.ID, nil)
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if again.Status != models.ReservationConfirmed {
		t.Fatalf("expected confirmed reservation on retry, got %q", again.Status)
	}
	if fx.getSession(sessionID).EnrolledStudents != 1 {
		t.Fatal("retry confirm must not take a second seat")
	}
	if fx.getPackage(packageID).UsedSessions != 1 {
		t.Fatal("retry confirm must not debit a second session")
	}
}

func TestReservationRejectIsTerminal(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	studentID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(8)
	packageID := fx.createActivePackage(studentID, adminID, 4)

	reservation, err := service.Create(ctx, studentID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: packageID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reason := "schedule clash"
	cancelled, err := service.Reject(ctx, adminID, reservation.ID, &reason)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if cancelled.Status != models.ReservationCancelled {
		t.Fatalf("expected cancelled reservation, got %q", cancelled.Status)
	}
	if cancelled.AdminCancelledBy == nil || *cancelled.AdminCancelledBy != adminID {
		t.Fatalf("expected admin_cancelled_by %d, got %v", adminID, cancelled.AdminCancelledBy)
	}

	// Nothing was held, so nothing changes on rejection.
	if fx.getSession(sessionID).EnrolledStudents != 0 {
		t.Fatal("rejection must not touch the seat counter")
	}
	if fx.getPackage(packageID).UsedSessions != 0 {
		t.Fatal("rejection must not touch the package balance")
	}

	// A cancelled reservation stays cancelled.
	if _, err := service.Confirm(ctx, adminID, reservation.ID, nil); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal on confirm after reject, got %v", err)
	}
	if _, err := service.Reject(ctx, adminID, reservation.ID, nil); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal on double reject, got %v", err)
	}
}

func TestReservationCreateRejectsForeignPackage(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	ownerID := fx.createUser(models.RoleStudent)
	otherID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(8)
	packageID := fx.createActivePackage(ownerID, adminID, 4)

	_, err := service.Create(ctx, otherID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: packageID,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another student's package, got %v", err)
	}
}

func TestReservationCreateRejectsFullSession(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	firstID := fx.createUser(models.RoleStudent)
	secondID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(1)
	firstPackageID := fx.createActivePackage(firstID, adminID, 4)
	secondPackageID := fx.createActivePackage(secondID, adminID, 4)

	reservation, err := service.Create(ctx, firstID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: firstPackageID,
	})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := service.Confirm(ctx, adminID, reservation.ID, nil); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err = service.Create(ctx, secondID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: secondPackageID,
	})
	if !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
}

func TestConcurrentConfirmsNeverOversellSeats(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(1)

	reservationIDs := make([]int64, 2)
	for i := range reservationIDs {
		studentID := fx.createUser(models.RoleStudent)
		packageID := fx.createActivePackage(studentID, adminID, 4)
		reservation, err := service.Create(ctx, studentID, CreateReservationInput{
			ClassSessionID:   sessionID,
			SessionPackageID: packageID,
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		reservationIDs[i] = reservation.ID
	}

	errs := make([]error, len(reservationIDs))
	var wg sync.WaitGroup
	for i, reservationID := range reservationIDs {
		wg.Add(1)
		go func(i int, reservationID int64) {
			defer wg.Done()
			_, errs[i] = service.Confirm(ctx, adminID, reservationID, nil)
		}(i, reservationID)
	}
	wg.Wait()

	var confirmed, full int
	for _, err := range errs {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrSessionFull):
			full++
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	if confirmed != 1 || full != 1 {
		t.Fatalf("expected exactly one confirm to win, got %d confirmed, %d full", confirmed, full)
	}
	if got := fx.getSession(sessionID).EnrolledStudents; got != 1 {
		t.Fatalf("expected 1 enrolled, got %d", got)
	}
}

func TestConcurrentConfirmsNeverOverdebitPackage(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	studentID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	packageID := fx.createActivePackage(studentID, adminID, 1)

	reservationIDs := make([]int64, 2)
	for i := range reservationIDs {
		sessionID := fx.createSession(8)
		reservation, err := service.Create(ctx, studentID, CreateReservationInput{
			ClassSessionID:   sessionID,
			SessionPackageID: packageID,
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		reservationIDs[i] = reservation.ID
	}

	errs := make([]error, len(reservationIDs))
	var wg sync.WaitGroup
	for i, reservationID := range reservationIDs {
		wg.Add(1)
		go func(i int, reservationID int64) {
			defer wg.Done()
			_, errs[i] = service.Confirm(ctx, adminID, reservationID, nil)
		}(i, reservationID)
	}
	wg.Wait()

	var confirmed, exhausted int
	for _, err := range errs {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrPackageExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	if confirmed != 1 || exhausted != 1 {
		t.Fatalf("expected exactly one confirm to win, got %d confirmed, %d exhausted", confirmed, exhausted)
	}

	pkg := fx.getPackage(packageID)
	if pkg.UsedSessions != 1 {
		t.Fatalf("expected 1 used session, got %d", pkg.UsedSessions)
	}
	if pkg.Status != models.PackageExhausted {
		t.Fatalf("expected exhausted package after last debit, got %q", pkg.Status)
	}
}

func TestExpirePendingSweepsStaleReservations(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fx := newReservationFixtures(t, ctx, pool)
	service := newIntegrationReservationService(pool)

	studentID := fx.createUser(models.RoleStudent)
	adminID := fx.createUser(models.RoleAdmin)
	sessionID := fx.createSession(8)
	packageID := fx.createActivePackage(studentID, adminID, 4)

	stale, err := service.Create(ctx, studentID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: packageID,
	})
	if err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	fresh, err := service.Create(ctx, studentID, CreateReservationInput{
		ClassSessionID:   sessionID,
		SessionPackageID: packageID,
	})
	if err != nil {
		t.Fatalf("Create fresh: %v", err)
	}

	if _, err := pool.Exec(ctx,
		"UPDATE session_reservations SET created_at = NOW() - INTERVAL '3 days' WHERE id = $1",
		stale.ID,
	); err != nil {
		t.Fatalf("backdate reservation: %v", err)
	}

	expired, err := service.ExpirePending(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired reservation, got %d", expired)
	}

	swept, err := repository.NewReservationRepository(pool).GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID swept: %v", err)
	}
	if swept.Status != models.ReservationCancelled {
		t.Fatalf("expected cancelled reservation after sweep, got %q", swept.Status)
	}
	if swept.AdminCancelledBy != nil {
		t.Fatalf("sweep cancellation must not carry an admin id, got %v", swept.AdminCancelledBy)
	}

	kept, err := repository.NewReservationRepository(pool).GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID kept: %v", err)
	}
	if kept.Status != models.ReservationPending {
		t.Fatalf("fresh reservation must survive the sweep, got %q", kept.Status)
	}

	// Swept reservations are terminal like any other cancellation.
	if _, err := service.Confirm(ctx, adminID, stale.ID, nil); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal on confirm after sweep, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationReservationService(pool *pgxpool.Pool) *ReservationService {
	return NewReservationService(
		pool,
		repository.NewReservationRepository(pool),
		repository.NewClassSessionRepository(pool),
		repository.NewPackageRepository(pool),
		repository.NewPaymentRepository(pool),
		nil,
	)
}

// reservationFixtures tracks everything a test creates so cleanup can remove
// it in dependency order.
type reservationFixtures struct {
	t       *testing.T
	ctx     context.Context
	pool    *pgxpool.Pool
	userIDs []int64
	classID int64
}

func newReservationFixtures(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *reservationFixtures {
	t.Helper()

	fx := &reservationFixtures{t: t, ctx: ctx, pool: pool}

	class, err := repository.NewClassRepository(pool).Create(ctx, repository.CreateClassInput{
		Name:            fmt.Sprintf("reservation-test-class-%d", time.Now().UnixNano()),
		Level:           "beginner",
		PricePerSession: 25,
	})
	if err != nil {
		t.Fatalf("create test class: %v", err)
	}
	fx.classID = class.ID

	t.Cleanup(fx.cleanup)
	return fx
}

func (fx *reservationFixtures) createUser(role string) int64 {
	fx.t.Helper()

	user := &models.User{
		Email:        fmt.Sprintf("reservation-test-%s-%s@example.com", role, uuid.NewString()),
		PasswordHash: "test-hash",
		FullName:     "Reservation Test " + role,
		Role:         role,
		CheckInToken: uuid.NewString(),
	}
	if err := repository.NewUserRepository(fx.pool).CreateUser(fx.ctx, user); err != nil {
		fx.t.Fatalf("create test %s: %v", role, err)
	}
	fx.userIDs = append(fx.userIDs, user.ID)
	return user.ID
}

func (fx *reservationFixtures) createSession(maxParticipants int) int64 {
	fx.t.Helper()

	session, err := repository.NewClassSessionRepository(fx.pool).Create(fx.ctx, repository.CreateClassSessionInput{
		ClassID:         fx.classID,
		SessionDate:     time.Now().UTC().Add(14 * 24 * time.Hour),
		MaxParticipants: maxParticipants,
	})
	if err != nil {
		fx.t.Fatalf("create test session: %v", err)
	}
	return session.ID
}

// createActivePackage goes through the real purchase and payment-confirmation
// flow rather than inserting an already-active row.
func (fx *reservationFixtures) createActivePackage(studentID, adminID int64, totalSessions int) int64 {
	fx.t.Helper()

	packageService := NewPackageService(
		fx.pool,
		repository.NewPackageRepository(fx.pool),
		repository.NewPaymentRepository(fx.pool),
		"USD",
		nil,
	)

	purchase, err := packageService.Purchase(fx.ctx, studentID, PurchasePackageInput{
		PackageType:     models.PackageSingle,
		TotalSessions:   totalSessions,
		PricePerSession: 25,
		PaymentMethod:   "cash",
	})
	if err != nil {
		fx.t.Fatalf("purchase test package: %v", err)
	}
	if _, err := packageService.ConfirmPayment(fx.ctx, adminID, purchase.Package.ID); err != nil {
		fx.t.Fatalf("confirm test package payment: %v", err)
	}
	return purchase.Package.ID
}

func (fx *reservationFixtures) getSession(sessionID int64) *models.ClassSession {
	fx.t.Helper()

	session, err := repository.NewClassSessionRepository(fx.pool).GetByID(fx.ctx, sessionID)
	if err != nil {
		fx.t.Fatalf("get test session: %v", err)
	}
	return session
}

func (fx *reservationFixtures) getPackage(packageID int64) *models.SessionPackage {
	fx.t.Helper()

	pkg, err := repository.NewPackageRepository(fx.pool).GetByID(fx.ctx, packageID)
	if err != nil {
		fx.t.Fatalf("get test package: %v", err)
	}
	return pkg
}

func (fx *reservationFixtures) cleanup() {
	fx.t.Helper()

	if len(fx.userIDs) > 0 {
		statements := []string{
			"DELETE FROM attendance_records WHERE session_reservation_id IN (SELECT id FROM session_reservations WHERE student_id = ANY($1))",
			"DELETE FROM session_reservations WHERE student_id = ANY($1)",
			"DELETE FROM payments WHERE user_id = ANY($1)",
			"DELETE FROM session_packages WHERE student_id = ANY($1)",
			"DELETE FROM notifications WHERE (data->>'student_id')::bigint = ANY($1)",
		}
		for _, statement := range statements {
			if _, err := fx.pool.Exec(fx.ctx, statement, fx.userIDs); err != nil {
				fx.t.Fatalf("cleanup: %v", err)
			}
		}
	}
	if _, err := fx.pool.Exec(fx.ctx, "DELETE FROM class_sessions WHERE class_id = $1", fx.classID); err != nil {
		fx.t.Fatalf("cleanup class sessions: %v", err)
	}
	if _, err := fx.pool.Exec(fx.ctx, "DELETE FROM classes WHERE id = $1", fx.classID); err != nil {
		fx.t.Fatalf("cleanup class: %v", err)
	}
	if len(fx.userIDs) > 0 {
		if _, err := fx.pool.Exec(fx.ctx, "DELETE FROM users WHERE id = ANY($1)", fx.userIDs); err != nil {
			fx.t.Fatalf("cleanup users: %v", err)
		}
	}
}
