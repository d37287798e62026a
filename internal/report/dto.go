// AngelaMos | 2026
// dto.go

package report

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type FileReportRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type FileReportResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ReportCount int    `json:"report_count"`
}

type ReportResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ReporterEmail string    `json:"reporter_email"`
	Reason        string    `json:"reason"`
	ProductName   string    `json:"product_name"`
	OwnerEmail    string    `json:"owner_email"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReportedProductResponse struct {
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	OwnerEmail    string    `json:"owner_email"`
	ReportCount   int       `json:"report_count"`
	LatestReport  time.Time `json:"latest_report"`
	ProductExists bool      `json:"product_exists"`
}

func ToReportResponseList(reports []ledger.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, ReportResponse{
			ID:            r.ID,
			ProductID:     r.ProductID,
			ReporterEmail: r.ReporterEmail,
			Reason:        r.Reason,
			ProductName:   r.ProductName,
			OwnerEmail:    r.OwnerEmail,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

func ToReportedProductResponseList(reported []ledger.ReportedProduct) []ReportedProductResponse {
	out := make([]ReportedProductResponse, 0, len(reported))
	for _, r := range reported {
		out = append(out, ReportedProductResponse(r))
	}
	return out
}
