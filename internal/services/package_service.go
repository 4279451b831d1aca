package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/repository"
)

// monthly packages expire this long after purchase; single and unlimited
// packages carry no expiry.
const monthlyPackageValidity = 30 * 24 * time.Hour

type PackageService struct {
	db          *pgxpool.Pool
	packageRepo *repository.PackageRepository
	paymentRepo *repository.PaymentRepository
	currency    string
	publisher   SignalPublisher
}

func NewPackageService(
	db *pgxpool.Pool,
	packageRepo *repository.PackageRepository,
	paymentRepo *repository.PaymentRepository,
	currency string,
	publisher SignalPublisher,
) *PackageService {
	return &PackageService{
		db:          db,
		packageRepo: packageRepo,
		paymentRepo: paymentRepo,
		currency:    currency,
		publisher:   publisher,
	}
}

type PurchasePackageInput struct {
	PackageType     string
	TotalSessions   int
	PricePerSession float64
	PaymentMethod   string
}

type PackagePurchase struct {
	Package *models.SessionPackage `json:"package"`
	Payment *models.Payment        `json:"payment"`
}

// Purchase always succeeds structurally: the package starts pending_payment
// with a linked pending payment, and only an admin confirmation activates it.
func (s *PackageService) Purchase(
	ctx context.Context,
	studentID int64,
	input PurchasePackageInput,
) (*PackagePurchase, error) {
	if !validPackageType(input.PackageType) {
		return nil, ErrInvalidInput
	}
	if input.TotalSessions <= 0 || input.PricePerSession < 0 || input.PaymentMethod == "" {
		return nil, ErrInvalidInput
	}

	var expiresAt *time.Time
	if input.PackageType == models.PackageMonthly {
		expiry := time.Now().UTC().Add(monthlyPackageValidity)
		expiresAt = &expiry
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	pkg, err := repository.NewPackageRepository(tx).Create(ctx, repository.CreatePackageInput{
		StudentID:       studentID,
		PackageType:     input.PackageType,
		TotalSessions:   input.TotalSessions,
		PricePerSession: input.PricePerSession,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		return nil, err
	}

	payment, err := repository.NewPaymentRepository(tx).Create(ctx, repository.CreatePaymentInput{
		UserID:           studentID,
		SessionPackageID: &pkg.ID,
		Amount:           input.PricePerSession * float64(input.TotalSessions),
		Currency:         s.currency,
		Method:           input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &PackagePurchase{Package: pkg, Payment: payment}, nil
}

// ConfirmPayment settles the purchase payment and activates the package.
// Re-confirming an already-active package is a no-op success.
func (s *PackageService) ConfirmPayment(ctx context.Context, adminID int64, packageID int64) (*models.SessionPackage, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPackageRepo := repository.NewPackageRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	pkg, err := txPackageRepo.GetByIDForUpdate(ctx, packageID)
	if err != nil {
		return nil, err
	}
	switch pkg.Status {
	case models.PackageActive:
		return pkg, nil
	case models.PackagePendingPayment:
	default:
		return nil, ErrInvalidStateTransition
	}

	payment, err := txPaymentRepo.GetByPackageIDForUpdate(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentPending {
		if _, err := txPaymentRepo.UpdateStatusIfCurrent(ctx, payment.ID, models.PaymentPending, models.PaymentPaid); err != nil &&
			!errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	activated, err := txPackageRepo.UpdateStatusIfCurrent(ctx, packageID, models.PackagePendingPayment, models.PackageActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	data, err := json.Marshal(map[string]int64{
		"session_package_id": activated.ID,
		"payment_id":         payment.ID,
		"student_id":         activated.StudentID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := repository.NewNotificationRepository(tx).Create(ctx, repository.CreateNotificationInput{
		Title:   "Package payment confirmed",
		Message: fmt.Sprintf("Payment for package %d confirmed by admin %d", activated.ID, adminID),
		Type:    models.NotifyPaymentConfirmed,
		Data:    data,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(newSignal(models.NotifyPaymentConfirmed, activated.ID))
	}
	return activated, nil
}

func (s *PackageService) ListForStudent(ctx context.Context, studentID int64) ([]models.PackageBalance, error) {
	packages, err := s.packageRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	balances := make([]models.PackageBalance, 0, len(packages))
	for _, pkg := range packages {
		balances = append(balances, models.PackageBalance{
			SessionPackage:    pkg,
			RemainingSessions: pkg.Remaining(),
		})
	}
	return balances, nil
}

// ExpireDue is called by the background sweep.
func (s *PackageService) ExpireDue(ctx context.Context) (int64, error) {
	return s.packageRepo.ExpireDue(ctx, time.Now().UTC())
}

func validPackageType(packageType string) bool {
	switch packageType {
	case models.PackageSingle, models.PackageMonthly, models.PackageUnlimited:
		return true
	default:
		return false
	}
}
