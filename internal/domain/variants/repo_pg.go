package variants

import (
	"context"

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

const variantCols = `id, gene_id, variant_name, variant_type, chromosome_position,
	reference_allele, alternate_allele, clinical_significance, effect_description,
	dbsnp_id, is_active, created_at, updated_at`

func scanVariant(row pgx.Row) (*Variant, error) {
	var v Variant
	err := row.Scan(&v.ID, &v.GeneID, &v.VariantName, &v.VariantType,
		&v.ChromosomePosition, &v.ReferenceAllele, &v.AlternateAllele,
		&v.ClinicalSignificance, &v.EffectDescription, &v.DbSNPID, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Variant) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO variants (id, gene_id, variant_name, variant_type, chromosome_position,
			reference_allele, alternate_allele, clinical_significance, effect_description,
			dbsnp_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.GeneID, v.VariantName, v.VariantType, v.ChromosomePosition,
		v.ReferenceAllele, v.AlternateAllele, v.ClinicalSignificance,
		v.EffectDescription, v.DbSNPID, v.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return scanVariant(r.conn(ctx).QueryRow(ctx, `SELECT `+variantCols+` FROM variants WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, v *Variant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE variants SET gene_id=$2, variant_name=$3, variant_type=$4,
			chromosome_position=$5, reference_allele=$6, alternate_allele=$7,
			clinical_significance=$8, effect_description=$9, dbsnp_id=$10,
			is_active=$11, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.GeneID, v.VariantName, v.VariantType, v.ChromosomePosition,
		v.ReferenceAllele, v.AlternateAllele, v.ClinicalSignificance,
		v.EffectDescription, v.DbSNPID, v.IsActive)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Variant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM variants`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+` FROM variants
		ORDER BY variant_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collectVariants(rows, total)
}

func (r *repoPG) ListBySignificance(ctx context.Context, significance string, limit, offset int) ([]*Variant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM variants WHERE clinical_significance = $1`, significance).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+` FROM variants
		WHERE clinical_significance = $1
		ORDER BY variant_name LIMIT $2 OFFSET $3`, significance, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collectVariants(rows, total)
}

func collectVariants(rows pgx.Rows, total int) ([]*Variant, int, error) {
	defer rows.Close()
	var items []*Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByType:         make(map[string]int),
		BySignificance: make(map[string]int),
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT variant_type, clinical_significance, is_active, COUNT(*)
		FROM variants
		GROUP BY variant_type, clinical_significance, is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var vtype, sig string
		var active bool
		var count int
		if err := rows.Scan(&vtype, &sig, &active, &count); err != nil {
			return nil, err
		}
		stats.TotalVariants += count
		if active {
			stats.ActiveVariants += count
		} else {
			stats.InactiveVariants += count
		}
		stats.ByType[vtype] += count
		stats.BySignificance[sig] += count
	}
	return stats, rows.Err()
}

type geneticRepoPG struct{ pool *pgxpool.Pool }

func NewGeneticRepoPG(pool *pgxpool.Pool) GeneticRepository {
	return &geneticRepoPG{pool: pool}
}

func (r *geneticRepoPG) conn(ctx context.Context) db.Queryable {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const geneticVariantCols = `id, gene_id, chromosome, position, reference_base,
	alternate_base, impact, created_at, updated_at`

func scanGeneticVariant(row pgx.Row) (*GeneticVariant, error) {
	var gv GeneticVariant
	err := row.Scan(&gv.ID, &gv.GeneID, &gv.Chromosome, &gv.Position,
		&gv.ReferenceBase, &gv.AlternateBase, &gv.Impact, &gv.CreatedAt, &gv.UpdatedAt)
	return &gv, err
}

func (r *geneticRepoPG) Create(ctx context.Context, gv *GeneticVariant) error {
	gv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO genetic_variants (id, gene_id, chromosome, position, reference_base, alternate_base, impact)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		gv.ID, gv.GeneID, gv.Chromosome, gv.Position, gv.ReferenceBase, gv.AlternateBase, gv.Impact)
	return err
}

func (r *geneticRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*GeneticVariant, error) {
	return scanGeneticVariant(r.conn(ctx).QueryRow(ctx,
		`SELECT `+geneticVariantCols+` FROM genetic_variants WHERE id = $1`, id))
}

func (r *geneticRepoPG) Update(ctx context.Context, gv *GeneticVariant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE genetic_variants SET gene_id=$2, chromosome=$3, position=$4,
			reference_base=$5, alternate_base=$6, impact=$7, updated_at=NOW()
		WHERE id = $1`,
		gv.ID, gv.GeneID, gv.Chromosome, gv.Position, gv.ReferenceBase, gv.AlternateBase, gv.Impact)
	return err
}

func (r *geneticRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM genetic_variants WHERE id = $1`, id)
	return err
}

func (r *geneticRepoPG) List(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM genetic_variants`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+geneticVariantCols+` FROM genetic_variants
		ORDER BY chromosome, position LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*GeneticVariant
	for rows.Next() {
		gv, err := scanGeneticVariant(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, gv)
	}
	return items, total, rows.Err()
}
