package genes

import (
	"time"

	"github.com/google/uuid"
)

// Gene maps to the genes table. Symbols are stored uppercase and are unique
// across the catalog.
type Gene struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Symbol     string    `db:"symbol" json:"symbol"`
	Name       string    `db:"name" json:"name"`
	Chromosome string    `db:"chromosome" json:"chromosome"`
	Function   *string   `db:"function" json:"function,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Stats summarises the gene catalog.
type Stats struct {
	TotalGenes   int            `json:"total_genes"`
	ByChromosome map[string]int `json:"by_chromosome"`
}
