package wrapped

import (
	"context"
	"fmt"
	"log"

	"gamewrapped/pkg/models"
)

// Service combines card generation with persistence. When the primary
// generator fails, the fallback produces the cards instead, so creation
// only errors when persistence itself fails.
type Service struct {
	Repo      *Repo
	Generator Generator
	Fallback  Generator
}

func NewService(repo *Repo, generator Generator) *Service {
	return &Service{
		Repo:      repo,
		Generator: generator,
		Fallback:  StatsGenerator{},
	}
}

func (s *Service) Create(ctx context.Context, records []models.GameRecord) (*models.Wrapped, error) {
	cards, err := s.Generator.Generate(ctx, records)
	if err != nil {
		log.Printf("[wrapped] generator failed, using stats fallback: %v", err)
		cards, err = s.Fallback.Generate(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("wrapped: generate cards: %w", err)
		}
	}

	w := &models.Wrapped{
		Cards:   cards,
		Records: records,
	}
	if _, err := s.Repo.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("wrapped: save: %w", err)
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Wrapped, error) {
	return s.Repo.Get(ctx, id)
}
