package variants

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/oncolab/genomics-api/pkg/validation"
)

var dbsnpPattern = regexp.MustCompile(`^rs\d+$`)

type Service struct {
	repo        Repository
	geneticRepo GeneticRepository
}

func NewService(repo Repository, geneticRepo GeneticRepository) *Service {
	return &Service{repo: repo, geneticRepo: geneticRepo}
}

func (s *Service) validateVariant(v *Variant) error {
	var verrs validation.Errors

	if v.GeneID == uuid.Nil {
		verrs.Add("gene_id", "gene_id is required")
	}
	if strings.TrimSpace(v.VariantName) == "" {
		verrs.Add("variant_name", "variant_name is required")
	}
	if !validVariantTypes[v.VariantType] {
		verrs.Addf("variant_type", "invalid variant type %q", v.VariantType)
	}
	if strings.TrimSpace(v.ChromosomePosition) == "" {
		verrs.Add("chromosome_position", "chromosome_position is required")
	}
	if v.ReferenceAllele == v.AlternateAllele {
		verrs.Add("alternate_allele", "reference and alternate alleles must differ")
	}
	if !validSignificances[v.ClinicalSignificance] {
		verrs.Addf("clinical_significance", "invalid clinical significance %q", v.ClinicalSignificance)
	}
	if v.DbSNPID != nil && !dbsnpPattern.MatchString(*v.DbSNPID) {
		verrs.Add("dbsnp_id", "dbSNP id must match rs<digits>")
	}
	return verrs.Err()
}

func (s *Service) Create(ctx context.Context, v *Variant) error {
	if err := s.validateVariant(v); err != nil {
		return err
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, v *Variant) error {
	if err := s.validateVariant(v); err != nil {
		return err
	}
	return s.repo.Update(ctx, v)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Variant, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListBySignificance filters the catalog by clinical significance.
func (s *Service) ListBySignificance(ctx context.Context, significance string, limit, offset int) ([]*Variant, int, error) {
	significance = strings.ToUpper(strings.TrimSpace(significance))
	if !validSignificances[significance] {
		var verrs validation.Errors
		verrs.Addf("significance", "invalid clinical significance %q", significance)
		return nil, 0, verrs.Err()
	}
	return s.repo.ListBySignificance(ctx, significance, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) validateGeneticVariant(gv *GeneticVariant) error {
	var verrs validation.Errors

	if gv.GeneID == uuid.Nil {
		verrs.Add("gene_id", "gene_id is required")
	}
	if strings.TrimSpace(gv.Chromosome) == "" {
		verrs.Add("chromosome", "chromosome is required")
	}
	if gv.Position <= 0 {
		verrs.Add("position", "position must be a positive number")
	}
	if strings.TrimSpace(gv.ReferenceBase) == "" {
		verrs.Add("reference_base", "reference_base is required")
	}
	if gv.ReferenceBase == gv.AlternateBase {
		verrs.Add("alternate_base", "reference and alternate bases must differ")
	}
	if !validImpacts[gv.Impact] {
		verrs.Addf("impact", "invalid impact %q", gv.Impact)
	}
	return verrs.Err()
}

func (s *Service) CreateGenetic(ctx context.Context, gv *GeneticVariant) error {
	if err := s.validateGeneticVariant(gv); err != nil {
		return err
	}
	return s.geneticRepo.Create(ctx, gv)
}

func (s *Service) GetGenetic(ctx context.Context, id uuid.UUID) (*GeneticVariant, error) {
	return s.geneticRepo.GetByID(ctx, id)
}

func (s *Service) UpdateGenetic(ctx context.Context, gv *GeneticVariant) error {
	if err := s.validateGeneticVariant(gv); err != nil {
		return err
	}
	return s.geneticRepo.Update(ctx, gv)
}

func (s *Service) DeleteGenetic(ctx context.Context, id uuid.UUID) error {
	return s.geneticRepo.Delete(ctx, id)
}

func (s *Service) ListGenetic(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error) {
	return s.geneticRepo.List(ctx, limit, offset)
}
