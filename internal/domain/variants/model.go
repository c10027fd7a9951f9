package variants

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a curated catalog variant attached to a gene.
type Variant struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	GeneID               uuid.UUID `db:"gene_id" json:"gene_id"`
	VariantName          string    `db:"variant_name" json:"variant_name"`
	VariantType          string    `db:"variant_type" json:"variant_type"`
	ChromosomePosition   string    `db:"chromosome_position" json:"chromosome_position"`
	ReferenceAllele      string    `db:"reference_allele" json:"reference_allele"`
	AlternateAllele      string    `db:"alternate_allele" json:"alternate_allele"`
	ClinicalSignificance string    `db:"clinical_significance" json:"clinical_significance"`
	EffectDescription    *string   `db:"effect_description" json:"effect_description,omitempty"`
	DbSNPID              *string   `db:"dbsnp_id" json:"dbsnp_id,omitempty"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// GeneticVariant is a raw observed variant called against the reference
// genome, before curation into the catalog.
type GeneticVariant struct {
	ID            uuid.UUID `db:"id" json:"id"`
	GeneID        uuid.UUID `db:"gene_id" json:"gene_id"`
	Chromosome    string    `db:"chromosome" json:"chromosome"`
	Position      int64     `db:"position" json:"position"`
	ReferenceBase string    `db:"reference_base" json:"reference_base"`
	AlternateBase string    `db:"alternate_base" json:"alternate_base"`
	Impact        string    `db:"impact" json:"impact"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

var validVariantTypes = map[string]bool{
	"SNV":       true,
	"INSERTION": true,
	"DELETION":  true,
	"INDEL":     true,
	"CNV":       true,
	"FUSION":    true,
}

var validSignificances = map[string]bool{
	"PATHOGENIC":        true,
	"LIKELY_PATHOGENIC": true,
	"UNCERTAIN":         true,
	"LIKELY_BENIGN":     true,
	"BENIGN":            true,
}

var validImpacts = map[string]bool{
	"MISSENSE":          true,
	"NONSENSE":          true,
	"FRAMESHIFT":        true,
	"SILENT":            true,
	"SPLICE_SITE":       true,
	"INFRAME_INSERTION": true,
	"INFRAME_DELETION":  true,
}

// Stats summarises the variant catalog.
type Stats struct {
	TotalVariants    int            `json:"total_variants"`
	ActiveVariants   int            `json:"active_variants"`
	InactiveVariants int            `json:"inactive_variants"`
	ByType           map[string]int `json:"by_type"`
	BySignificance   map[string]int `json:"by_significance"`
}
