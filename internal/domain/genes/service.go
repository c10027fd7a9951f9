package genes

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/oncolab/genomics-api/pkg/validation"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(g *Gene) error {
	var verrs validation.Errors

	g.Symbol = strings.ToUpper(strings.TrimSpace(g.Symbol))
	if g.Symbol == "" {
		verrs.Add("symbol", "symbol is required")
	} else if !symbolPattern.MatchString(g.Symbol) {
		verrs.Add("symbol", "symbol must contain only uppercase letters, digits, and hyphens")
	}
	if strings.TrimSpace(g.Name) == "" {
		verrs.Add("name", "name is required")
	}
	if strings.TrimSpace(g.Chromosome) == "" {
		verrs.Add("chromosome", "chromosome is required")
	}
	return verrs.Err()
}

func (s *Service) Create(ctx context.Context, g *Gene) error {
	if err := s.validate(g); err != nil {
		return err
	}
	return s.repo.Create(ctx, g)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Gene, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySymbol(ctx context.Context, symbol string) (*Gene, error) {
	return s.repo.GetBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

func (s *Service) Update(ctx context.Context, g *Gene) error {
	if err := s.validate(g); err != nil {
		return err
	}
	return s.repo.Update(ctx, g)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Gene, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
