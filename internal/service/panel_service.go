package service

import (
	"context"
	"strings"
	"time"

	"voicepanels/internal/insights"
	"voicepanels/internal/model"
	"voicepanels/internal/repository"

	"github.com/google/uuid"
)

// PanelService handles panel creation and lookup
type PanelService struct {
	panels repository.PanelStore
}

// NewPanelService creates a new panel service
func NewPanelService(panels repository.PanelStore) *PanelService {
	return &PanelService{
		panels: panels,
	}
}

// Create stores a new panel with a generated id
func (s *PanelService) Create(ctx context.Context, name, description string) (*model.Panel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &insights.ValidationError{Msg: "panel name is required"}
	}
	panel := &model.Panel{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.panels.CreatePanel(ctx, panel); err != nil {
		return nil, &insights.UpstreamFetchError{Op: "create panel", Err: err}
	}
	return panel, nil
}

// GetByID retrieves a panel, NotFoundError if it does not exist
func (s *PanelService) GetByID(ctx context.Context, id string) (*model.Panel, error) {
	panel, err := s.panels.GetPanel(ctx, id)
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "get panel", Err: err}
	}
	if panel == nil {
		return nil, &insights.NotFoundError{Kind: "panel", Ref: id}
	}
	return panel, nil
}
