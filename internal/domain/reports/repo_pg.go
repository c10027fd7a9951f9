package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncolab/genomics-api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const reportCols = `id, patient_id, report_date, test_type, status, clinical_notes, created_at, updated_at`

func scanReport(row pgx.Row) (*PatientReport, error) {
	var pr PatientReport
	err := row.Scan(&pr.ID, &pr.PatientID, &pr.ReportDate, &pr.TestType,
		&pr.Status, &pr.ClinicalNotes, &pr.CreatedAt, &pr.UpdatedAt)
	return &pr, err
}

func (r *repoPG) Create(ctx context.Context, pr *PatientReport) error {
	pr.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_reports (id, patient_id, report_date, test_type, status, clinical_notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		pr.ID, pr.PatientID, pr.ReportDate, pr.TestType, pr.Status, pr.ClinicalNotes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientReport, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM patient_reports WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, pr *PatientReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_reports SET patient_id=$2, report_date=$3, test_type=$4,
			status=$5, clinical_notes=$6, updated_at=NOW()
		WHERE id = $1`,
		pr.ID, pr.PatientID, pr.ReportDate, pr.TestType, pr.Status, pr.ClinicalNotes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// report_variants rows go with it via ON DELETE CASCADE
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_reports WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*ReportSummary, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pr.id, pr.patient_id, pr.report_date, pr.test_type, pr.status,
			pr.clinical_notes, pr.created_at, pr.updated_at,
			COUNT(rv.id) AS variant_count
		FROM patient_reports pr
		LEFT JOIN report_variants rv ON rv.report_id = pr.id
		GROUP BY pr.id
		ORDER BY pr.report_date DESC, pr.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.ReportDate, &s.TestType,
			&s.Status, &s.ClinicalNotes, &s.CreatedAt, &s.UpdatedAt, &s.VariantCount); err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) AttachVariant(ctx context.Context, rv *ReportVariant) error {
	rv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO report_variants (id, report_id, variant_id, zygosity, allele_frequency, coverage, interpretation)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rv.ID, rv.ReportID, rv.VariantID, rv.Zygosity, rv.AlleleFrequency, rv.Coverage, rv.Interpretation)
	return err
}

func (r *repoPG) DetachVariant(ctx context.Context, reportID, variantID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM report_variants WHERE report_id = $1 AND variant_id = $2`,
		reportID, variantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ListObservedVariants(ctx context.Context, reportID uuid.UUID) ([]*ObservedVariant, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT rv.id, rv.report_id, rv.variant_id, rv.zygosity, rv.allele_frequency,
			rv.coverage, rv.interpretation, rv.created_at, rv.updated_at,
			v.variant_name, v.variant_type, v.clinical_significance,
			g.symbol, g.name
		FROM report_variants rv
		JOIN variants v ON v.id = rv.variant_id
		JOIN genes g ON g.id = v.gene_id
		WHERE rv.report_id = $1
		ORDER BY g.symbol, v.variant_name`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ObservedVariant
	for rows.Next() {
		var ov ObservedVariant
		if err := rows.Scan(&ov.ID, &ov.ReportID, &ov.VariantID, &ov.Zygosity,
			&ov.AlleleFrequency, &ov.Coverage, &ov.Interpretation, &ov.CreatedAt,
			&ov.UpdatedAt, &ov.VariantName, &ov.VariantType, &ov.ClinicalSignificance,
			&ov.GeneSymbol, &ov.GeneName); err != nil {
			return nil, err
		}
		items = append(items, &ov)
	}
	return items, rows.Err()
}

const reportVariantCols = `id, report_id, variant_id, zygosity, allele_frequency, coverage, interpretation, created_at, updated_at`

func scanReportVariant(row pgx.Row) (*ReportVariant, error) {
	var rv ReportVariant
	err := row.Scan(&rv.ID, &rv.ReportID, &rv.VariantID, &rv.Zygosity,
		&rv.AlleleFrequency, &rv.Coverage, &rv.Interpretation, &rv.CreatedAt, &rv.UpdatedAt)
	return &rv, err
}

func (r *repoPG) GetReportVariant(ctx context.Context, id uuid.UUID) (*ReportVariant, error) {
	return scanReportVariant(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportVariantCols+` FROM report_variants WHERE id = $1`, id))
}

func (r *repoPG) UpdateReportVariant(ctx context.Context, rv *ReportVariant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE report_variants SET zygosity=$2, allele_frequency=$3, coverage=$4,
			interpretation=$5, updated_at=NOW()
		WHERE id = $1`,
		rv.ID, rv.Zygosity, rv.AlleleFrequency, rv.Coverage, rv.Interpretation)
	return err
}

// reportVariantOrder maps the public sort keys onto ORDER BY clauses so the
// sort parameter can never reach the query as raw SQL.
var reportVariantOrder = map[string]string{
	"created_at":        "created_at ASC",
	"-created_at":       "created_at DESC",
	"allele_frequency":  "allele_frequency ASC",
	"-allele_frequency": "allele_frequency DESC",
}

func (r *repoPG) ListReportVariants(ctx context.Context, f ReportVariantFilter, limit, offset int) ([]*ReportVariant, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.ReportID != nil {
		args = append(args, *f.ReportID)
		where += fmt.Sprintf(" AND report_id = $%d", len(args))
	}
	if f.VariantID != nil {
		args = append(args, *f.VariantID)
		where += fmt.Sprintf(" AND variant_id = $%d", len(args))
	}
	if f.Zygosity != "" {
		args = append(args, f.Zygosity)
		where += fmt.Sprintf(" AND zygosity = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report_variants`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := reportVariantOrder[f.Sort]
	if !ok {
		order = reportVariantOrder["-created_at"]
	}
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+reportVariantCols+` FROM report_variants%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, order, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ReportVariant
	for rows.Next() {
		rv, err := scanReportVariant(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rv)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[string]int)}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM patient_reports GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalReports += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(DISTINCT patient_id) FROM patient_reports`).Scan(&stats.UniquePatients); err != nil {
		return nil, err
	}

	if stats.TotalReports > 0 {
		var totalVariants int
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM report_variants`).Scan(&totalVariants); err != nil {
			return nil, err
		}
		stats.AverageVariantsPerReport = float64(totalVariants) / float64(stats.TotalReports)
	}
	return stats, nil
}

type detectionRepoPG struct{ pool *pgxpool.Pool }

func NewDetectionRepoPG(pool *pgxpool.Pool) DetectionRepository {
	return &detectionRepoPG{pool: pool}
}

func (r *detectionRepoPG) conn(ctx context.Context) db.Queryable {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const detectionCols = `id, patient_id, genetic_variant_id, detection_date, allele_frequency, created_at, updated_at`

func scanDetection(row pgx.Row) (*PatientVariantReport, error) {
	var d PatientVariantReport
	err := row.Scan(&d.ID, &d.PatientID, &d.GeneticVariantID, &d.DetectionDate,
		&d.AlleleFrequency, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *detectionRepoPG) Create(ctx context.Context, d *PatientVariantReport) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_variant_reports (id, patient_id, genetic_variant_id, detection_date, allele_frequency)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.PatientID, d.GeneticVariantID, d.DetectionDate, d.AlleleFrequency)
	return err
}

func (r *detectionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error) {
	return scanDetection(r.conn(ctx).QueryRow(ctx,
		`SELECT `+detectionCols+` FROM patient_variant_reports WHERE id = $1`, id))
}

func (r *detectionRepoPG) Update(ctx context.Context, d *PatientVariantReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_variant_reports SET patient_id=$2, genetic_variant_id=$3,
			detection_date=$4, allele_frequency=$5, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.PatientID, d.GeneticVariantID, d.DetectionDate, d.AlleleFrequency)
	return err
}

func (r *detectionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_variant_reports WHERE id = $1`, id)
	return err
}

func (r *detectionRepoPG) List(ctx context.Context, limit, offset int) ([]*PatientVariantReport, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_variant_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+detectionCols+` FROM patient_variant_reports
		ORDER BY detection_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PatientVariantReport
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
