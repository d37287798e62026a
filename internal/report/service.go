// AngelaMos | 2026
// service.go

package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const maxReasonLength = 1000

type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// FileReport appends a report against an existing product. Repeat reports
// by the same reporter are kept and counted individually.
func (s *Service) FileReport(
	ctx context.Context,
	reporterEmail, productID, reason string,
) (*ledger.Report, error) {
	reporterEmail = ledger.NormalizeEmail(reporterEmail)
	if reporterEmail == "" {
		return nil, fmt.Errorf("file report: %w", core.ErrUnauthorized)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("file report: reason is required: %w", core.ErrInvalidInput)
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, fmt.Errorf("file report: reason too long: %w", core.ErrInvalidInput)
	}

	report := &ledger.Report{
		ID:            uuid.New().String(),
		ProductID:     productID,
		ReporterEmail: reporterEmail,
		Reason:        reason,
	}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		report.ProductName = product.Name
		report.OwnerEmail = product.OwnerEmail
		return tx.InsertReport(ctx, report)
	})
	if err != nil {
		return nil, fmt.Errorf("file report: %w", err)
	}

	slog.Info("report filed",
		"report_id", report.ID,
		"product_id", productID,
	)

	return report, nil
}

// ListReportsFor returns a product's reports newest first. It works for
// products that have since been deleted.
func (s *Service) ListReportsFor(
	ctx context.Context,
	actorEmail, productID string,
) ([]ledger.Report, error) {
	var reports []ledger.Report
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		reports, err = tx.ListReports(ctx, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

// ReportCount is computed from the report rows on every call.
func (s *Service) ReportCount(ctx context.Context, productID string) (int, error) {
	var count int
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		count, err = tx.CountReports(ctx, productID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}

	return count, nil
}

func (s *Service) ListReportedProducts(
	ctx context.Context,
	actorEmail, search string,
) ([]ledger.ReportedProduct, error) {
	var reported []ledger.ReportedProduct
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		reported, err = tx.ListReportedProducts(ctx, strings.TrimSpace(search))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reported products: %w", err)
	}

	return reported, nil
}
