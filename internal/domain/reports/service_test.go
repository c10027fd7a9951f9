package reports

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/oncolab/genomics-api/internal/platform/clinical"
	"github.com/oncolab/genomics-api/pkg/validation"
)

type mockReportRepo struct {
	records  map[uuid.UUID]*PatientReport
	observed map[uuid.UUID][]*ObservedVariant
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{
		records:  make(map[uuid.UUID]*PatientReport),
		observed: make(map[uuid.UUID][]*ObservedVariant),
	}
}

func (m *mockReportRepo) Create(_ context.Context, pr *PatientReport) error {
	pr.ID = uuid.New()
	m.records[pr.ID] = pr
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientReport, error) {
	pr, ok := m.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return pr, nil
}

func (m *mockReportRepo) Update(_ context.Context, pr *PatientReport) error {
	if _, ok := m.records[pr.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.records[pr.ID] = pr
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	delete(m.observed, id)
	return nil
}

func (m *mockReportRepo) List(_ context.Context, limit, offset int) ([]*ReportSummary, int, error) {
	var items []*ReportSummary
	for id, pr := range m.records {
		items = append(items, &ReportSummary{PatientReport: *pr, VariantCount: len(m.observed[id])})
	}
	return items, len(items), nil
}

func (m *mockReportRepo) AttachVariant(_ context.Context, rv *ReportVariant) error {
	for _, ov := range m.observed[rv.ReportID] {
		if ov.VariantID == rv.VariantID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "report_variants_report_id_variant_id_key"}
		}
	}
	rv.ID = uuid.New()
	m.observed[rv.ReportID] = append(m.observed[rv.ReportID], &ObservedVariant{
		ReportVariant: *rv,
		VariantName:   "p.V600E",
		VariantType:   "SNV",
		GeneSymbol:    "BRAF",
	})
	return nil
}

func (m *mockReportRepo) DetachVariant(_ context.Context, reportID, variantID uuid.UUID) (bool, error) {
	list := m.observed[reportID]
	for i, ov := range list {
		if ov.VariantID == variantID {
			m.observed[reportID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReportRepo) ListObservedVariants(_ context.Context, reportID uuid.UUID) ([]*ObservedVariant, error) {
	return m.observed[reportID], nil
}

func (m *mockReportRepo) GetReportVariant(_ context.Context, id uuid.UUID) (*ReportVariant, error) {
	for _, list := range m.observed {
		for _, ov := range list {
			if ov.ReportVariant.ID == id {
				rv := ov.ReportVariant
				return &rv, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockReportRepo) UpdateReportVariant(_ context.Context, rv *ReportVariant) error {
	for _, list := range m.observed {
		for _, ov := range list {
			if ov.ReportVariant.ID == rv.ID {
				ov.ReportVariant = *rv
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

func (m *mockReportRepo) ListReportVariants(_ context.Context, f ReportVariantFilter, limit, offset int) ([]*ReportVariant, int, error) {
	var items []*ReportVariant
	for _, list := range m.observed {
		for _, ov := range list {
			rv := ov.ReportVariant
			if f.ReportID != nil && rv.ReportID != *f.ReportID {
				continue
			}
			if f.VariantID != nil && rv.VariantID != *f.VariantID {
				continue
			}
			if f.Zygosity != "" && rv.Zygosity != f.Zygosity {
				continue
			}
			items = append(items, &rv)
		}
	}
	switch f.Sort {
	case "allele_frequency":
		sort.Slice(items, func(i, j int) bool { return items[i].AlleleFrequency < items[j].AlleleFrequency })
	case "-allele_frequency":
		sort.Slice(items, func(i, j int) bool { return items[i].AlleleFrequency > items[j].AlleleFrequency })
	}
	return items, len(items), nil
}

func (m *mockReportRepo) Stats(_ context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[string]int)}
	patients := make(map[string]bool)
	totalVariants := 0
	for id, pr := range m.records {
		stats.TotalReports++
		stats.ByStatus[pr.Status]++
		patients[pr.PatientID] = true
		totalVariants += len(m.observed[id])
	}
	stats.UniquePatients = len(patients)
	if stats.TotalReports > 0 {
		stats.AverageVariantsPerReport = float64(totalVariants) / float64(stats.TotalReports)
	}
	return stats, nil
}

type mockDetectionRepo struct {
	records map[uuid.UUID]*PatientVariantReport
}

func newMockDetectionRepo() *mockDetectionRepo {
	return &mockDetectionRepo{records: make(map[uuid.UUID]*PatientVariantReport)}
}

func (m *mockDetectionRepo) Create(_ context.Context, d *PatientVariantReport) error {
	d.ID = uuid.New()
	m.records[d.ID] = d
	return nil
}

func (m *mockDetectionRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientVariantReport, error) {
	d, ok := m.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDetectionRepo) Update(_ context.Context, d *PatientVariantReport) error {
	if _, ok := m.records[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.records[d.ID] = d
	return nil
}

func (m *mockDetectionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func (m *mockDetectionRepo) List(_ context.Context, limit, offset int) ([]*PatientVariantReport, int, error) {
	var items []*PatientVariantReport
	for _, d := range m.records {
		items = append(items, d)
	}
	return items, len(items), nil
}

// stubDirectory is an in-memory PatientDirectory. Setting unavailable makes
// every lookup fail the way an unreachable clinical service would.
type stubDirectory struct {
	patients    map[string]*clinical.Patient
	unavailable bool
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{patients: map[string]*clinical.Patient{
		"P100": {ID: 100, FirstName: "Maria", LastName: "Lopez", BirthDate: "1980-03-14", Gender: "F", Status: "Activo"},
	}}
}

func (d *stubDirectory) GetPatient(_ context.Context, patientID string) (*clinical.Patient, error) {
	if d.unavailable {
		return nil, clinical.ErrServiceUnavailable
	}
	p, ok := d.patients[patientID]
	if !ok {
		return nil, clinical.ErrPatientNotFound
	}
	return p, nil
}

func (d *stubDirectory) ListPatients(_ context.Context) ([]clinical.Patient, error) {
	if d.unavailable {
		return nil, clinical.ErrServiceUnavailable
	}
	var out []clinical.Patient
	for _, p := range d.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (d *stubDirectory) PatientExists(_ context.Context, patientID string) (bool, error) {
	if d.unavailable {
		// mirror the fail-open policy of the real client
		return true, nil
	}
	_, ok := d.patients[patientID]
	return ok, nil
}

func newTestService() (*Service, *mockReportRepo, *mockDetectionRepo, *stubDirectory) {
	repo := newMockReportRepo()
	detectionRepo := newMockDetectionRepo()
	dir := newStubDirectory()
	svc := NewService(repo, detectionRepo, dir, nil, zerolog.Nop())
	return svc, repo, detectionRepo, dir
}

func validReport() *PatientReport {
	return &PatientReport{
		PatientID:  "P100",
		ReportDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		TestType:   "NGS_PANEL",
	}
}

func validObservation(variantID uuid.UUID) *ReportVariant {
	return &ReportVariant{
		VariantID:       variantID,
		Zygosity:        "HETEROZYGOUS",
		AlleleFrequency: 0.45,
		Coverage:        120,
	}
}

func TestReportCreate_DefaultsToDraft(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pr.Status != "DRAFT" {
		t.Errorf("expected DRAFT status, got %s", pr.Status)
	}
}

func TestReportCreate_InvalidStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	pr.Status = "SIGNED"
	err := svc.Create(context.Background(), pr)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestReportCreate_UnknownPatient(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	pr.PatientID = "P999"
	err := svc.Create(context.Background(), pr)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if verrs.Fields[0].Field != "patient_id" {
		t.Errorf("expected patient_id error, got %s", verrs.Fields[0].Field)
	}
}

func TestReportCreate_FailsOpenWhenDirectoryDown(t *testing.T) {
	svc, repo, _, dir := newTestService()
	dir.unavailable = true
	pr := validReport()
	pr.PatientID = "P999"
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("expected create to fail open, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Errorf("expected report to be created")
	}
}

func TestReportGet_EmbedsPatientData(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := svc.Get(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patient, ok := view.PatientData.(*clinical.Patient)
	if !ok {
		t.Fatalf("expected patient data, got %T", view.PatientData)
	}
	if patient.FirstName != "Maria" {
		t.Errorf("expected Maria, got %s", patient.FirstName)
	}
}

func TestReportGet_DegradesWhenPatientMissing(t *testing.T) {
	svc, _, _, dir := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delete(dir.patients, "P100")

	view, err := svc.Get(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("expected degraded view, got error %v", err)
	}
	degraded, ok := view.PatientData.(map[string]interface{})
	if !ok {
		t.Fatalf("expected degraded map, got %T", view.PatientData)
	}
	if degraded["id"] != "P100" {
		t.Errorf("expected id P100, got %v", degraded["id"])
	}
	if degraded["error"] == "" {
		t.Error("expected error message in degraded payload")
	}
}

func TestReportGet_DegradesWhenServiceDown(t *testing.T) {
	svc, _, _, dir := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir.unavailable = true

	view, err := svc.Get(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("expected degraded view, got error %v", err)
	}
	degraded, ok := view.PatientData.(map[string]interface{})
	if !ok {
		t.Fatalf("expected degraded map, got %T", view.PatientData)
	}
	if degraded["error"] != clinical.ErrServiceUnavailable.Error() {
		t.Errorf("unexpected degraded error: %v", degraded["error"])
	}
}

func TestAddVariant_Valid(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddVariant(context.Background(), pr.ID, validObservation(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := svc.Get(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.VariantCount != 1 {
		t.Errorf("expected variant_count 1, got %d", view.VariantCount)
	}
}

func TestAddVariant_FrequencyBounds(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		freq float64
		ok   bool
	}{
		{0, true},
		{1, true},
		{-0.0001, false},
		{1.0001, false},
	}
	for _, tc := range cases {
		rv := validObservation(uuid.New())
		rv.AlleleFrequency = tc.freq
		err := svc.AddVariant(context.Background(), pr.ID, rv)
		if tc.ok && err != nil {
			t.Errorf("frequency %v: unexpected error %v", tc.freq, err)
		}
		if !tc.ok {
			var verrs *validation.Errors
			if !errors.As(err, &verrs) {
				t.Errorf("frequency %v: expected validation error, got %v", tc.freq, err)
			}
		}
	}
}

func TestAddVariant_NegativeCoverage(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rv := validObservation(uuid.New())
	rv.Coverage = -1
	err := svc.AddVariant(context.Background(), pr.ID, rv)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if verrs.Fields[0].Message != "coverage must be a positive number" {
		t.Errorf("unexpected message: %s", verrs.Fields[0].Message)
	}
}

func TestAddVariant_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	variantID := uuid.New()
	if err := svc.AddVariant(context.Background(), pr.ID, validObservation(variantID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.AddVariant(context.Background(), pr.ID, validObservation(variantID))
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestAddVariant_ReportNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	err := svc.AddVariant(context.Background(), uuid.New(), validObservation(uuid.New()))
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected no rows, got %v", err)
	}
}

func TestRemoveVariant(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	variantID := uuid.New()
	if err := svc.AddVariant(context.Background(), pr.ID, validObservation(variantID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveVariant(context.Background(), pr.ID, variantID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveVariant(context.Background(), pr.ID, variantID); !errors.Is(err, ErrVariantNotInReport) {
		t.Fatalf("expected ErrVariantNotInReport, got %v", err)
	}
}

func TestListObservations_FiltersAndSorts(t *testing.T) {
	svc, _, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	low := validObservation(uuid.New())
	low.AlleleFrequency = 0.1
	if err := svc.AddVariant(context.Background(), pr.ID, low); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high := validObservation(uuid.New())
	high.AlleleFrequency = 0.9
	high.Zygosity = "HOMOZYGOUS"
	if err := svc.AddVariant(context.Background(), pr.ID, high); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, total, err := svc.ListObservations(context.Background(),
		ReportVariantFilter{Sort: "-allele_frequency"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || items[0].AlleleFrequency != 0.9 {
		t.Errorf("expected descending frequency order, got %+v", items)
	}

	items, total, err = svc.ListObservations(context.Background(),
		ReportVariantFilter{Zygosity: "homozygous"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].Zygosity != "HOMOZYGOUS" {
		t.Errorf("expected single homozygous observation, got %+v", items)
	}
}

func TestListObservations_InvalidFilter(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, _, err := svc.ListObservations(context.Background(),
		ReportVariantFilter{Zygosity: "TRIPLOID"}, 20, 0)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}

	_, _, err = svc.ListObservations(context.Background(),
		ReportVariantFilter{Sort: "coverage"}, 20, 0)
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors for bad sort key, got %v", err)
	}
}

func TestUpdateObservation(t *testing.T) {
	svc, repo, _, _ := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rv := validObservation(uuid.New())
	if err := svc.AddVariant(context.Background(), pr.ID, rv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note := "likely driver mutation"
	rv.Interpretation = &note
	rv.AlleleFrequency = 0.52
	if err := svc.UpdateObservation(context.Background(), rv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := repo.GetReportVariant(context.Background(), rv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Interpretation == nil || *stored.Interpretation != note {
		t.Errorf("expected interpretation to be updated, got %+v", stored.Interpretation)
	}

	rv.AlleleFrequency = 1.5
	err = svc.UpdateObservation(context.Background(), rv)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestPatientInfo_PassesThroughErrors(t *testing.T) {
	svc, _, _, dir := newTestService()
	pr := validReport()
	if err := svc.Create(context.Background(), pr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir.unavailable = true
	_, err := svc.PatientInfo(context.Background(), pr.ID)
	if !errors.Is(err, clinical.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	dir.unavailable = false
	delete(dir.patients, "P100")
	_, err = svc.PatientInfo(context.Background(), pr.ID)
	if !errors.Is(err, clinical.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestReportStats(t *testing.T) {
	svc, _, _, dir := newTestService()
	dir.patients["P200"] = &clinical.Patient{ID: 200}

	first := validReport()
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := validReport()
	second.Status = "COMPLETED"
	if err := svc.Create(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third := validReport()
	third.PatientID = "P200"
	if err := svc.Create(context.Background(), third); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddVariant(context.Background(), first.ID, validObservation(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalReports != 3 {
		t.Errorf("expected 3 reports, got %d", stats.TotalReports)
	}
	if stats.UniquePatients != 2 {
		t.Errorf("expected 2 unique patients, got %d", stats.UniquePatients)
	}
	if stats.ByStatus["DRAFT"] != 2 || stats.ByStatus["COMPLETED"] != 1 {
		t.Errorf("unexpected status distribution: %v", stats.ByStatus)
	}
	if stats.AverageVariantsPerReport < 0.33 || stats.AverageVariantsPerReport > 0.34 {
		t.Errorf("unexpected average: %v", stats.AverageVariantsPerReport)
	}
}

func TestDetectionCreate_FrequencyBounds(t *testing.T) {
	svc, _, _, _ := newTestService()
	d := &PatientVariantReport{
		PatientID:        "P100",
		GeneticVariantID: uuid.New(),
		DetectionDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		AlleleFrequency:  1.5,
	}
	err := svc.CreateDetection(context.Background(), d)
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}

	d.AlleleFrequency = 0.3
	if err := svc.CreateDetection(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
