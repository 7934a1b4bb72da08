package timeentry

import (
	"context"
	"testing"
	"time"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(allowed bool, entries ...TimeEntry) (*ServiceImpl, *[]event_bus.TimeEntryChanged) {
	bus := event_bus.NewEventBus()
	var published []event_bus.TimeEntryChanged
	event_bus.SubscribeTyped(bus, event_bus.TimeEntryChangedEvent, func(e event_bus.EventT[event_bus.TimeEntryChanged]) error {
		published = append(published, e.Data)
		return nil
	})
	return NewService(NewRepositoryStub(entries...), access.StaticChecker{Allowed: allowed}, bus), &published
}

func validEntry() TimeEntry {
	return TimeEntry{
		ProjectId:   1,
		PersonId:    "ada",
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Hours:       d("3"),
		BillingRate: d("100"),
		IsBillable:  true,
	}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create entry and publish event", func(t *testing.T) {
		service, published := setupService(true)

		created, err := service.Create(context.Background(), validEntry())

		require.NoError(t, err)
		assert.Equal(t, []event_bus.TimeEntryChanged{{ProjectId: 1, EntryId: created.Id, Kind: event_bus.ChangeCreated}}, *published)
	})

	t.Run("should reject invalid entries without publishing", func(t *testing.T) {
		service, published := setupService(true)
		noPerson := validEntry()
		noPerson.PersonId = ""
		negative := validEntry()
		negative.Hours = d("-1")
		noDate := validEntry()
		noDate.Date = time.Time{}

		for _, e := range []TimeEntry{noPerson, negative, noDate} {
			_, err := service.Create(context.Background(), e)
			assert.ErrorIs(t, err, ErrInvalidTimeEntry)
		}
		assert.Empty(t, *published)
	})
}

func TestServiceImpl_LockedEntries(t *testing.T) {
	// given
	locked := validEntry()
	locked.Id = 7
	locked.IsLocked = true
	service, published := setupService(true, locked)

	// when
	locked.Hours = d("10")
	_, updateErr := service.Update(context.Background(), locked)
	deleteErr := service.Delete(context.Background(), 1, 7)

	// then
	assert.ErrorIs(t, updateErr, ErrTimeEntryLocked)
	assert.ErrorIs(t, deleteErr, ErrTimeEntryLocked)
	assert.Empty(t, *published)
}

func TestServiceImpl_Lock(t *testing.T) {
	t.Run("should lock entry once", func(t *testing.T) {
		// given
		entry := validEntry()
		entry.Id = 3
		service, published := setupService(true, entry)

		// when
		first, err := service.Lock(context.Background(), 1, 3)
		require.NoError(t, err)
		second, err := service.Lock(context.Background(), 1, 3)
		require.NoError(t, err)

		// then
		assert.True(t, first.IsLocked)
		assert.True(t, second.IsLocked)
		assert.Equal(t, []event_bus.TimeEntryChanged{{ProjectId: 1, EntryId: 3, Kind: event_bus.ChangeLocked}}, *published)
	})

	t.Run("should require capability", func(t *testing.T) {
		entry := validEntry()
		entry.Id = 3
		service, _ := setupService(false, entry)

		_, err := service.Lock(context.Background(), 1, 3)

		assert.ErrorIs(t, err, access.ErrForbidden)
	})

	t.Run("should report missing entry", func(t *testing.T) {
		service, _ := setupService(true)

		_, err := service.Lock(context.Background(), 1, 99)

		assert.ErrorIs(t, err, ErrTimeEntryNotFound)
	})
}
