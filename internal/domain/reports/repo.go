package reports

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *PatientReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientReport, error)
	Update(ctx context.Context, r *PatientReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*ReportSummary, int, error)

	AttachVariant(ctx context.Context, rv *ReportVariant) error
	DetachVariant(ctx context.Context, reportID, variantID uuid.UUID) (bool, error)
	ListObservedVariants(ctx context.Context, reportID uuid.UUID) ([]*ObservedVariant, error)

	GetReportVariant(ctx context.Context, id uuid.UUID) (*ReportVariant, error)
	UpdateReportVariant(ctx context.Context, rv *ReportVariant) error
	ListReportVariants(ctx context.Context, f ReportVariantFilter, limit, offset int) ([]*ReportVariant, int, error)

	Stats(ctx context.Context) (*Stats, error)
}

// ReportVariantFilter narrows the standalone report-variant listing. Zero
// values mean no filtering; Sort is a whitelisted column name, optionally
// prefixed with "-" for descending order.
type ReportVariantFilter struct {
	ReportID  *uuid.UUID
	VariantID *uuid.UUID
	Zygosity  string
	Sort      string
}

type DetectionRepository interface {
	Create(ctx context.Context, d *PatientVariantReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error)
	Update(ctx context.Context, d *PatientVariantReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*PatientVariantReport, int, error)
}
