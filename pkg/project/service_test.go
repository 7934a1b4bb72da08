package project

import (
	"context"
	"errors"
	"testing"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService() (*ServiceImpl, *RepositoryStub, *[]event_bus.ProjectChanged) {
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	var published []event_bus.ProjectChanged
	event_bus.SubscribeTyped(bus, event_bus.ProjectChangedEvent, func(e event_bus.EventT[event_bus.ProjectChanged]) error {
		published = append(published, e.Data)
		return nil
	})
	return NewService(repo, bus), repo, &published
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should store project and publish change", func(t *testing.T) {
		// given
		service, _, published := setupService()

		// when
		created, err := service.Create(context.Background(), Project{
			Name:           "Website relaunch",
			EstimatedHours: decimal.NewFromInt(400),
			TotalBudget:    decimal.NewFromInt(50000),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, created.Id)
		assert.Equal(t, []event_bus.ProjectChanged{{ProjectId: 1, Kind: event_bus.ChangeCreated}}, *published)
	})

	t.Run("should reject project without name", func(t *testing.T) {
		service, _, published := setupService()

		_, err := service.Create(context.Background(), Project{Name: "  "})

		assert.ErrorIs(t, err, ErrInvalidProject)
		assert.Empty(t, *published)
	})

	t.Run("should not publish when repository fails", func(t *testing.T) {
		service, repo, published := setupService()
		repo.Err = errors.New("db down")

		_, err := service.Create(context.Background(), Project{Name: "x"})

		assert.Error(t, err)
		assert.Empty(t, *published)
	})
}

func TestServiceImpl_Update(t *testing.T) {
	t.Run("should fail for unknown project", func(t *testing.T) {
		service, _, published := setupService()

		_, err := service.Update(context.Background(), Project{Id: 42, Name: "ghost"})

		assert.ErrorIs(t, err, ErrProjectNotFound)
		assert.Empty(t, *published)
	})

	t.Run("should reject negative budget", func(t *testing.T) {
		service, _, _ := setupService()
		created, err := service.Create(context.Background(), Project{Name: "p"})
		require.NoError(t, err)
		created.TotalBudget = decimal.NewFromInt(-1)

		_, err = service.Update(context.Background(), created)

		assert.ErrorIs(t, err, ErrInvalidProject)
	})
}
