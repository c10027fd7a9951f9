package reports

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oncolab/genomics-api/internal/platform/clinical"
	"github.com/oncolab/genomics-api/pkg/validation"
)

// ErrVariantNotInReport is returned when detaching a variant that the report
// does not contain.
var ErrVariantNotInReport = errors.New("variant not found in this report")

// PatientDirectory resolves patient identity against the clinical service.
// *clinical.Client satisfies it.
type PatientDirectory interface {
	GetPatient(ctx context.Context, patientID string) (*clinical.Patient, error)
	ListPatients(ctx context.Context) ([]clinical.Patient, error)
	PatientExists(ctx context.Context, patientID string) (bool, error)
}

// TxRunner executes fn inside a database transaction. Repositories called
// within fn share the transaction through the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo          Repository
	detectionRepo DetectionRepository
	patients      PatientDirectory
	inTx          TxRunner
	logger        zerolog.Logger
}

func NewService(repo Repository, detectionRepo DetectionRepository, patients PatientDirectory, inTx TxRunner, logger zerolog.Logger) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{
		repo:          repo,
		detectionRepo: detectionRepo,
		patients:      patients,
		inTx:          inTx,
		logger:        logger,
	}
}

func (s *Service) validateReport(pr *PatientReport) error {
	var verrs validation.Errors

	pr.PatientID = strings.TrimSpace(pr.PatientID)
	if pr.PatientID == "" {
		verrs.Add("patient_id", "patient_id is required")
	}
	if pr.ReportDate.IsZero() {
		verrs.Add("report_date", "report_date is required")
	}
	if strings.TrimSpace(pr.TestType) == "" {
		verrs.Add("test_type", "test_type is required")
	}
	if pr.Status == "" {
		pr.Status = "DRAFT"
	}
	if !validStatuses[pr.Status] {
		verrs.Addf("status", "invalid status %q", pr.Status)
	}
	return verrs.Err()
}

func (s *Service) Create(ctx context.Context, pr *PatientReport) error {
	if err := s.validateReport(pr); err != nil {
		return err
	}
	exists, err := s.patients.PatientExists(ctx, pr.PatientID)
	if err != nil {
		return err
	}
	if !exists {
		var verrs validation.Errors
		verrs.Addf("patient_id", "patient %s not found in clinical service", pr.PatientID)
		return verrs.Err()
	}
	return s.repo.Create(ctx, pr)
}

// Get assembles the detail view. A failed patient lookup degrades patient_data
// to {"id": ..., "error": ...} instead of failing the request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ReportView, error) {
	pr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	observed, err := s.repo.ListObservedVariants(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ReportView{
		PatientReport: *pr,
		Variants:      observed,
		VariantCount:  len(observed),
	}

	patient, err := s.patients.GetPatient(ctx, pr.PatientID)
	switch {
	case err == nil:
		view.PatientData = patient
	case errors.Is(err, clinical.ErrPatientNotFound):
		view.PatientData = map[string]interface{}{
			"id":    pr.PatientID,
			"error": clinical.ErrPatientNotFound.Error(),
		}
	default:
		s.logger.Warn().
			Str("report_id", id.String()).
			Str("patient_id", pr.PatientID).
			Err(err).
			Msg("patient lookup failed; serving degraded report view")
		view.PatientData = map[string]interface{}{
			"id":    pr.PatientID,
			"error": clinical.ErrServiceUnavailable.Error(),
		}
	}
	return view, nil
}

func (s *Service) Update(ctx context.Context, pr *PatientReport) error {
	if err := s.validateReport(pr); err != nil {
		return err
	}
	return s.repo.Update(ctx, pr)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ReportSummary, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func validateObservation(rv *ReportVariant) error {
	var verrs validation.Errors

	if rv.VariantID == uuid.Nil {
		verrs.Add("variant_id", "variant_id is required")
	}
	if !validZygosities[rv.Zygosity] {
		verrs.Addf("zygosity", "invalid zygosity %q", rv.Zygosity)
	}
	if rv.AlleleFrequency < 0 || rv.AlleleFrequency > 1 {
		verrs.Add("allele_frequency", "allele frequency must be between 0 and 1")
	}
	if rv.Coverage < 0 {
		verrs.Add("coverage", "coverage must be a positive number")
	}
	return verrs.Err()
}

// AddVariant attaches a catalog variant to a report. The existence check and
// the insert run in one transaction so a concurrent report delete cannot
// orphan the row.
func (s *Service) AddVariant(ctx context.Context, reportID uuid.UUID, rv *ReportVariant) error {
	rv.ReportID = reportID
	if err := validateObservation(rv); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, reportID); err != nil {
			return err
		}
		return s.repo.AttachVariant(ctx, rv)
	})
}

func (s *Service) GetObservation(ctx context.Context, id uuid.UUID) (*ReportVariant, error) {
	return s.repo.GetReportVariant(ctx, id)
}

// UpdateObservation edits the measurement fields of an existing report
// variant. The report and variant references are fixed at attach time.
func (s *Service) UpdateObservation(ctx context.Context, rv *ReportVariant) error {
	if err := validateObservation(rv); err != nil {
		return err
	}
	return s.repo.UpdateReportVariant(ctx, rv)
}

var validObservationSorts = map[string]bool{
	"created_at":        true,
	"-created_at":       true,
	"allele_frequency":  true,
	"-allele_frequency": true,
}

func (s *Service) ListObservations(ctx context.Context, f ReportVariantFilter, limit, offset int) ([]*ReportVariant, int, error) {
	var verrs validation.Errors
	if f.Zygosity != "" {
		f.Zygosity = strings.ToUpper(strings.TrimSpace(f.Zygosity))
		if !validZygosities[f.Zygosity] {
			verrs.Addf("zygosity", "invalid zygosity %q", f.Zygosity)
		}
	}
	if f.Sort != "" && !validObservationSorts[f.Sort] {
		verrs.Addf("sort", "invalid sort key %q", f.Sort)
	}
	if err := verrs.Err(); err != nil {
		return nil, 0, err
	}
	return s.repo.ListReportVariants(ctx, f, limit, offset)
}

func (s *Service) RemoveVariant(ctx context.Context, reportID, variantID uuid.UUID) error {
	found, err := s.repo.DetachVariant(ctx, reportID, variantID)
	if err != nil {
		return err
	}
	if !found {
		return ErrVariantNotInReport
	}
	return nil
}

// PatientInfo resolves the report's patient against the clinical service.
// Lookup errors pass through for the handler to map (404 or 503).
func (s *Service) PatientInfo(ctx context.Context, reportID uuid.UUID) (*clinical.Patient, error) {
	pr, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.patients.GetPatient(ctx, pr.PatientID)
}

func (s *Service) AvailablePatients(ctx context.Context) ([]clinical.Patient, error) {
	return s.patients.ListPatients(ctx)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) validateDetection(d *PatientVariantReport) error {
	var verrs validation.Errors

	d.PatientID = strings.TrimSpace(d.PatientID)
	if d.PatientID == "" {
		verrs.Add("patient_id", "patient_id is required")
	}
	if d.GeneticVariantID == uuid.Nil {
		verrs.Add("genetic_variant_id", "genetic_variant_id is required")
	}
	if d.DetectionDate.IsZero() {
		verrs.Add("detection_date", "detection_date is required")
	}
	if d.AlleleFrequency < 0 || d.AlleleFrequency > 1 {
		verrs.Add("allele_frequency", "allele frequency must be between 0 and 1")
	}
	return verrs.Err()
}

func (s *Service) CreateDetection(ctx context.Context, d *PatientVariantReport) error {
	if err := s.validateDetection(d); err != nil {
		return err
	}
	return s.detectionRepo.Create(ctx, d)
}

func (s *Service) GetDetection(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error) {
	return s.detectionRepo.GetByID(ctx, id)
}

func (s *Service) UpdateDetection(ctx context.Context, d *PatientVariantReport) error {
	if err := s.validateDetection(d); err != nil {
		return err
	}
	return s.detectionRepo.Update(ctx, d)
}

func (s *Service) DeleteDetection(ctx context.Context, id uuid.UUID) error {
	return s.detectionRepo.Delete(ctx, id)
}

func (s *Service) ListDetections(ctx context.Context, limit, offset int) ([]*PatientVariantReport, int, error) {
	return s.detectionRepo.List(ctx, limit, offset)
}
