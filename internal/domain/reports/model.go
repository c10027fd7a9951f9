package reports

import (
	"time"

	"github.com/google/uuid"
)

// PatientReport stores only an opaque patient_id. The authoritative patient
// record lives in the external clinical service and is never persisted here.
type PatientReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	ReportDate    time.Time `db:"report_date" json:"report_date"`
	TestType      string    `db:"test_type" json:"test_type"`
	Status        string    `db:"status" json:"status"`
	ClinicalNotes *string   `db:"clinical_notes" json:"clinical_notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ReportVariant records one catalog variant observed on a report.
type ReportVariant struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ReportID        uuid.UUID `db:"report_id" json:"report_id"`
	VariantID       uuid.UUID `db:"variant_id" json:"variant_id"`
	Zygosity        string    `db:"zygosity" json:"zygosity"`
	AlleleFrequency float64   `db:"allele_frequency" json:"allele_frequency"`
	Coverage        int       `db:"coverage" json:"coverage"`
	Interpretation  *string   `db:"interpretation" json:"interpretation,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ObservedVariant is a ReportVariant joined to its catalog variant and gene
// for the report detail view.
type ObservedVariant struct {
	ReportVariant
	VariantName          string `json:"variant_name"`
	VariantType          string `json:"variant_type"`
	ClinicalSignificance string `json:"clinical_significance"`
	GeneSymbol           string `json:"gene_symbol"`
	GeneName             string `json:"gene_name"`
}

// ReportView is the detail payload: the report, its observed variants, and
// patient_data resolved live from the clinical service (or a degraded stub
// when the lookup fails).
type ReportView struct {
	PatientReport
	PatientData  interface{}        `json:"patient_data"`
	Variants     []*ObservedVariant `json:"variants"`
	VariantCount int                `json:"variant_count"`
}

// ReportSummary is the list payload. It embeds only the patient_id; list
// views never call the clinical service.
type ReportSummary struct {
	PatientReport
	VariantCount int `json:"variant_count"`
}

// PatientVariantReport is a lightweight per-patient detection log entry for a
// raw genetic variant, outside any curated report.
type PatientVariantReport struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	GeneticVariantID uuid.UUID `db:"genetic_variant_id" json:"genetic_variant_id"`
	DetectionDate    time.Time `db:"detection_date" json:"detection_date"`
	AlleleFrequency  float64   `db:"allele_frequency" json:"allele_frequency"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

var validStatuses = map[string]bool{
	"DRAFT":     true,
	"IN_REVIEW": true,
	"COMPLETED": true,
	"AMENDED":   true,
}

var validZygosities = map[string]bool{
	"HETEROZYGOUS": true,
	"HOMOZYGOUS":   true,
	"HEMIZYGOUS":   true,
}

// Stats summarises the report store.
type Stats struct {
	TotalReports             int            `json:"total_reports"`
	UniquePatients           int            `json:"unique_patients"`
	ByStatus                 map[string]int `json:"by_status"`
	AverageVariantsPerReport float64        `json:"average_variants_per_report"`
}
