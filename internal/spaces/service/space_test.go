package service

import (
	"context"
	"io"
	spaceserrors "spacer/internal/spaces/errors"
	"spacer/pkg/config"
	apperrors "spacer/pkg/errors"
	"spacer/pkg/logger"
	"spacer/pkg/model"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockSpaceRepo struct {
	spaces map[string]*model.Space
}

func newMockSpaceRepo() *mockSpaceRepo {
	return &mockSpaceRepo{spaces: make(map[string]*model.Space)}
}

func (m *mockSpaceRepo) Create(_ context.Context, s *model.Space) error {
	s.ID = primitive.NewObjectID().Hex()
	cp := *s
	m.spaces[s.ID] = &cp
	return nil
}

func (m *mockSpaceRepo) FindByID(_ context.Context, id string) (*model.Space, error) {
	s, ok := m.spaces[id]
	if !ok {
		return nil, spaceserrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSpaceRepo) FindAll(_ context.Context, _ int, _ int64) ([]*model.Space, error) {
	var out []*model.Space
	for _, s := range m.spaces {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSpaceRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.spaces)), nil
}

func (m *mockSpaceRepo) SetAvailability(_ context.Context, id string, available bool) error {
	s, ok := m.spaces[id]
	if !ok {
		return spaceserrors.ErrNotFound
	}
	s.IsAvailable = available
	return nil
}

func newTestService() (SpaceService, *mockSpaceRepo) {
	repo := newMockSpaceRepo()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:  logger.ERROR,
			Output: io.Discard,
		}),
	}
	return NewSpaceService(repo, cfg), repo
}

func validSpace() *model.Space {
	return &model.Space{
		Name:         "  Rooftop   Garden ",
		Description:  "Open-air venue",
		Address:      "12 Biashara St",
		City:         "nairobi",
		PricePerHour: 25,
		Capacity:     40,
	}
}

func TestSpaceService_Create(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	owner := model.Actor{ID: "owner-1", Role: model.RoleOwner}

	space := validSpace()
	if err := svc.Create(ctx, owner, space); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	if space.OwnerID != owner.ID {
		t.Fatalf("expected owner_id %s, got %s", owner.ID, space.OwnerID)
	}
	if !space.IsAvailable {
		t.Fatal("expected new space to be available")
	}
	if space.Name != "Rooftop Garden" {
		t.Fatalf("expected normalized name, got %q", space.Name)
	}
	if space.City != "nairobi" {
		t.Fatalf("expected trimmed city, got %q", space.City)
	}
	if len(repo.spaces) != 1 {
		t.Fatalf("expected one space persisted, got %d", len(repo.spaces))
	}
}

func TestSpaceService_Create_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := model.Actor{ID: "owner-1", Role: model.RoleOwner}

	tests := []struct {
		name   string
		mutate func(*model.Space)
	}{
		{"zero price", func(s *model.Space) { s.PricePerHour = 0 }},
		{"negative price", func(s *model.Space) { s.PricePerHour = -10 }},
		{"zero capacity", func(s *model.Space) { s.Capacity = 0 }},
		{"missing name", func(s *model.Space) { s.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := validSpace()
			tt.mutate(space)
			err := svc.Create(ctx, owner, space)
			if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestSpaceService_Create_Authorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	client := model.Actor{ID: "client-1", Role: model.RoleClient}
	err := svc.Create(ctx, client, validSpace())
	if apperrors.AsAppError(err).Code != apperrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for client role, got %v", err)
	}

	admin := model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	space := validSpace()
	space.OwnerID = "owner-9"
	if err := svc.Create(ctx, admin, space); err != nil {
		t.Fatalf("expected admin create to succeed, got %v", err)
	}
	if space.OwnerID != "owner-9" {
		t.Fatalf("expected admin-supplied owner to stick, got %s", space.OwnerID)
	}
}

func TestSpaceService_GetByID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "")
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for empty id, got %v", err)
	}

	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
