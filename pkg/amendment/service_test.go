package amendment

import (
	"context"
	"testing"
	"time"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/burnwise/burnwise/pkg/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approvalTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func setupService(allowed bool) (*ServiceImpl, *[]event_bus.AmendmentChanged) {
	bus := event_bus.NewEventBus()
	var published []event_bus.AmendmentChanged
	event_bus.SubscribeTyped(bus, event_bus.AmendmentChangedEvent, func(e event_bus.EventT[event_bus.AmendmentChanged]) error {
		published = append(published, e.Data)
		return nil
	})
	clock := &utils.MockClock{FixedNow: approvalTime}
	return NewService(NewRepositoryStub(), access.StaticChecker{Allowed: allowed}, bus, clock), &published
}

func sow(value int64) ContractAmendment {
	return ContractAmendment{ProjectId: 1, Title: "SOW", Type: TypeInitial, Value: decimal.NewFromInt(value)}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create draft with generated reference", func(t *testing.T) {
		// given
		service, published := setupService(true)
		input := sow(10000)
		input.Status = StatusApproved

		// when
		created, err := service.Create(context.Background(), input)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, created.Status)
		assert.NotEqual(t, uuid.Nil, created.Reference)
		assert.Equal(t, []event_bus.AmendmentChanged{{ProjectId: 1, AmendmentId: created.Id, Kind: event_bus.ChangeCreated}}, *published)
	})

	t.Run("should allow negative change order", func(t *testing.T) {
		service, _ := setupService(true)

		_, err := service.Create(context.Background(), ContractAmendment{
			ProjectId: 1, Title: "Descope", Type: TypeChangeOrder, Value: decimal.NewFromInt(-500),
		})

		assert.NoError(t, err)
	})

	t.Run("should reject invalid amendments", func(t *testing.T) {
		service, published := setupService(true)
		tests := []ContractAmendment{
			sow(-1),
			{ProjectId: 1, Title: "", Type: TypeInitial},
			{ProjectId: 1, Title: "x", Type: "bonus"},
		}
		for _, a := range tests {
			_, err := service.Create(context.Background(), a)
			assert.ErrorIs(t, err, ErrInvalidAmendment)
		}
		assert.Empty(t, *published)
	})
}

func TestServiceImpl_Approve(t *testing.T) {
	t.Run("should approve and record approver", func(t *testing.T) {
		// given
		service, published := setupService(true)
		ctx := user.WithUser(context.Background(), user.User{Id: "manager-1"})
		created, err := service.Create(ctx, sow(10000))
		require.NoError(t, err)

		// when
		approved, err := service.Approve(ctx, 1, created.Id)

		// then
		require.NoError(t, err)
		assert.True(t, approved.IsApproved())
		assert.Equal(t, "manager-1", approved.ApprovedBy)
		require.NotNil(t, approved.ApprovedAt)
		assert.Equal(t, approvalTime, *approved.ApprovedAt)
		assert.Equal(t, event_bus.ChangeApproved, (*published)[len(*published)-1].Kind)
	})

	t.Run("should refuse approval without capability", func(t *testing.T) {
		// given
		service, published := setupService(false)
		created, err := service.Create(context.Background(), sow(10000))
		require.NoError(t, err)
		*published = nil

		// when
		_, err = service.Approve(context.Background(), 1, created.Id)

		// then
		assert.ErrorIs(t, err, access.ErrForbidden)
		assert.Empty(t, *published)
	})

	t.Run("should not approve twice", func(t *testing.T) {
		service, _ := setupService(true)
		created, err := service.Create(context.Background(), sow(10000))
		require.NoError(t, err)
		_, err = service.Approve(context.Background(), 1, created.Id)
		require.NoError(t, err)

		_, err = service.Approve(context.Background(), 1, created.Id)

		assert.ErrorIs(t, err, ErrAmendmentNotEditable)
	})
}

func TestServiceImpl_SubmitRejectUpdate(t *testing.T) {
	// given
	service, _ := setupService(true)
	ctx := context.Background()
	created, err := service.Create(ctx, sow(5000))
	require.NoError(t, err)

	// when
	submitted, err := service.Submit(ctx, 1, created.Id)
	require.NoError(t, err)
	_, resubmitErr := service.Submit(ctx, 1, created.Id)
	rejected, err := service.Reject(ctx, 1, created.Id)
	require.NoError(t, err)
	created.Title = "Changed"
	_, updateErr := service.Update(ctx, created)

	// then
	assert.Equal(t, StatusPending, submitted.Status)
	assert.ErrorIs(t, resubmitErr, ErrAmendmentNotEditable)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.ErrorIs(t, updateErr, ErrAmendmentNotEditable)
}
