package service

import (
	"context"
	"errors"
	spaceserrors "spacer/internal/spaces/errors"
	"spacer/internal/spaces/repository"
	"spacer/pkg/config"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/model"
	"spacer/pkg/sanitizer"
	"sync"

	"github.com/go-playground/validator/v10"
)

type SpaceService interface {
	Create(ctx context.Context, actor model.Actor, space *model.Space) error
	GetByID(ctx context.Context, id string) (*model.Space, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Space, int64, error)
}

type spaceService struct {
	repo     repository.SpaceRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewSpaceService(repo repository.SpaceRepository, cfg *config.Config) SpaceService {
	return &spaceService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *spaceService) Create(ctx context.Context, actor model.Actor, space *model.Space) error {
	if actor.Role != model.RoleOwner && !actor.IsAdmin() {
		return apperrors.Forbidden("Only space owners can create spaces")
	}

	// Admins may register a space on behalf of an owner.
	if space.OwnerID == "" || !actor.IsAdmin() {
		space.OwnerID = actor.ID
	}
	space.IsAvailable = true

	s.sanitize(space)
	if err := s.validate.Struct(space); err != nil {
		s.cfg.Log.Warn("Space validation failed", "error", err)
		return apperrors.Validation("Space validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, space); err != nil {
		s.cfg.Log.Error("Failed to create space", "error", err)
		return apperrors.Internal("Failed to create space", err)
	}

	s.cfg.Log.Info("Space created successfully",
		"id", space.ID,
		"owner_id", space.OwnerID,
		"city", space.City,
	)
	return nil
}

func (s *spaceService) GetByID(ctx context.Context, id string) (*model.Space, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Space ID cannot be empty")
	}

	space, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Space", id)
		}
		if errors.Is(err, spaceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid space ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve space", err)
	}

	return space, nil
}

func (s *spaceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Space, int64, error) {
	var count int64
	var spaces []*model.Space
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count spaces", "error", errCount)
			errCount = apperrors.Internal("Failed to count spaces", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		spaces, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list spaces", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve spaces", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return spaces, count, nil
}

func (s *spaceService) sanitize(space *model.Space) {
	space.Name = sanitizer.NormalizeName(space.Name)
	space.Description = sanitizer.NormalizeText(space.Description)
	space.Address = sanitizer.NormalizeName(space.Address)
	space.City = sanitizer.NormalizeCity(space.City)
}
