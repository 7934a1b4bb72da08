package expense

import (
	"context"
	"testing"
	"time"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(expenses ...Expense) (*ServiceImpl, *[]event_bus.ExpenseChanged) {
	bus := event_bus.NewEventBus()
	var published []event_bus.ExpenseChanged
	event_bus.SubscribeTyped(bus, event_bus.ExpenseChangedEvent, func(e event_bus.EventT[event_bus.ExpenseChanged]) error {
		published = append(published, e.Data)
		return nil
	})
	return NewService(NewRepositoryStub(expenses...), bus), &published
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should default author and reimbursement status", func(t *testing.T) {
		// given
		service, published := setupService()
		ctx := user.WithUser(context.Background(), user.User{Id: "ada"})

		// when
		created, err := service.Create(ctx, Expense{ProjectId: 4, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(75)})

		// then
		require.NoError(t, err)
		assert.Equal(t, "ada", created.AuthorId)
		assert.Equal(t, ReimbursementNone, created.ReimbursementStatus)
		assert.Equal(t, []event_bus.ExpenseChanged{{ProjectId: 4, ExpenseId: created.Id, Kind: event_bus.ChangeCreated}}, *published)
	})

	t.Run("should require an author", func(t *testing.T) {
		service, published := setupService()

		_, err := service.Create(context.Background(), Expense{ProjectId: 4, Date: time.Now(), Amount: decimal.NewFromInt(1)})

		assert.ErrorIs(t, err, ErrInvalidExpense)
		assert.Empty(t, *published)
	})

	t.Run("should reject negative amount and unknown status", func(t *testing.T) {
		service, _ := setupService()
		ctx := user.WithUser(context.Background(), user.User{Id: "ada"})
		date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		_, err := service.Create(ctx, Expense{ProjectId: 4, Date: date, Amount: decimal.NewFromInt(-5)})
		assert.ErrorIs(t, err, ErrInvalidExpense)

		_, err = service.Create(ctx, Expense{ProjectId: 4, Date: date, ReimbursementStatus: "lost"})
		assert.ErrorIs(t, err, ErrInvalidExpense)
	})
}

func TestServiceImpl_UpdateDelete(t *testing.T) {
	// given
	existing := Expense{Id: 2, ProjectId: 4, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(10), AuthorId: "ada", ReimbursementStatus: ReimbursementNone}
	service, published := setupService(existing)

	// when
	existing.Billed = true
	updated, err := service.Update(context.Background(), existing)
	require.NoError(t, err)
	deleteErr := service.Delete(context.Background(), 4, 2)
	missingErr := service.Delete(context.Background(), 4, 2)

	// then
	assert.True(t, updated.Billed)
	assert.NoError(t, deleteErr)
	assert.ErrorIs(t, missingErr, ErrExpenseNotFound)
	require.Len(t, *published, 2)
	assert.Equal(t, event_bus.ChangeUpdated, (*published)[0].Kind)
	assert.Equal(t, event_bus.ChangeDeleted, (*published)[1].Kind)
}
