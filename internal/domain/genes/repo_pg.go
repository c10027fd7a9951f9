package genes

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

const geneCols = `id, symbol, name, chromosome, function, created_at, updated_at`

func scanGene(row pgx.Row) (*Gene, error) {
	var g Gene
	err := row.Scan(&g.ID, &g.Symbol, &g.Name, &g.Chromosome, &g.Function,
		&g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *repoPG) Create(ctx context.Context, g *Gene) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO genes (id, symbol, name, chromosome, function)
		VALUES ($1,$2,$3,$4,$5)`,
		g.ID, g.Symbol, g.Name, g.Chromosome, g.Function)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Gene, error) {
	return scanGene(r.conn(ctx).QueryRow(ctx, `SELECT `+geneCols+` FROM genes WHERE id = $1`, id))
}

func (r *repoPG) GetBySymbol(ctx context.Context, symbol string) (*Gene, error) {
	return scanGene(r.conn(ctx).QueryRow(ctx, `SELECT `+geneCols+` FROM genes WHERE symbol = $1`, symbol))
}

func (r *repoPG) Update(ctx context.Context, g *Gene) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE genes SET symbol=$2, name=$3, chromosome=$4, function=$5, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Symbol, g.Name, g.Chromosome, g.Function)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM genes WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Gene, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM genes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+geneCols+` FROM genes ORDER BY symbol LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Gene
	for rows.Next() {
		g, err := scanGene(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, g)
	}
	return items, total, nil
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByChromosome: make(map[string]int)}

	rows, err := r.conn(ctx).Query(ctx, `SELECT chromosome, COUNT(*) FROM genes GROUP BY chromosome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var chrom string
		var count int
		if err := rows.Scan(&chrom, &count); err != nil {
			return nil, err
		}
		stats.ByChromosome[chrom] = count
		stats.TotalGenes += count
	}
	return stats, rows.Err()
}
