package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *MemoryRepository, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func seedItem(t *testing.T, repo *MemoryRepository, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	it := &models.Item{Name: name, Description: name + " description", Available: available, OwnerID: ownerID}
	require.NoError(t, repo.CreateItem(context.Background(), it))
	return it
}

func TestMemoryRepository_Users(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	alice := seedUser(t, repo, "Alice", "alice@example.com")
	bob := seedUser(t, repo, "Bob", "bob@example.com")
	assert.Equal(t, int64(1), alice.ID)
	assert.Equal(t, int64(2), bob.ID)

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Name: "Eve", Email: "ALICE@example.com"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
	})

	t.Run("UpdateKeepsOwnEmail", func(t *testing.T) {
		upd := *alice
		upd.Name = "Alice Cooper"
		require.NoError(t, repo.UpdateUser(ctx, &upd))

		got, err := repo.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", got.Name)
	})

	t.Run("UpdateToTakenEmail", func(t *testing.T) {
		upd := *alice
		upd.Email = bob.Email
		assert.ErrorIs(t, repo.UpdateUser(ctx, &upd), domain.ErrEmailTaken)
	})

	t.Run("ListSorted", func(t *testing.T) {
		users, err := repo.GetAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, alice.ID, users[0].ID)
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		item := seedItem(t, repo, bob.ID, "Drill", true)
		b := &models.Booking{ItemID: item.ID, BookerID: alice.ID, Status: models.StatusWaiting,
			Start: time.Now().Add(time.Hour), End: time.Now().Add(2 * time.Hour)}
		require.NoError(t, repo.CreateBooking(ctx, b))

		require.NoError(t, repo.DeleteUser(ctx, bob.ID))

		_, err := repo.GetItemByID(ctx, item.ID)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
		_, err = repo.GetBooking(ctx, b.ID)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
		assert.ErrorIs(t, repo.DeleteUser(ctx, bob.ID), domain.ErrUserNotFound)
	})
}

func TestMemoryRepository_Items(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	owner := seedUser(t, repo, "Owner", "owner@example.com")

	seedItem(t, repo, owner.ID, "Drill", true)
	seedItem(t, repo, owner.ID, "Saw", false)
	seedItem(t, repo, owner.ID, "Power drill", true)

	t.Run("UnknownOwner", func(t *testing.T) {
		err := repo.CreateItem(ctx, &models.Item{Name: "x", OwnerID: 99})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("ByOwnerPaged", func(t *testing.T) {
		items, err := repo.GetItemsByOwner(ctx, owner.ID, models.Page{From: 2, Size: 2})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Power drill", items[0].Name)
	})

	t.Run("SearchAvailableOnly", func(t *testing.T) {
		items, err := repo.SearchItems(ctx, "DRILL", models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = repo.SearchItems(ctx, "saw", models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestMemoryRepository_Bookings(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	owner := seedUser(t, repo, "Owner", "owner@example.com")
	booker := seedUser(t, repo, "Booker", "booker@example.com")
	item := seedItem(t, repo, owner.ID, "Tent", true)

	b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Status: models.StatusWaiting,
		Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour)}
	require.NoError(t, repo.CreateBooking(ctx, b))

	t.Run("Snapshots", func(t *testing.T) {
		assert.Equal(t, "Tent", b.ItemName)
		assert.Equal(t, owner.ID, b.OwnerID)
		assert.Equal(t, "Booker", b.BookerName)
		assert.Equal(t, int64(1), b.Version)
	})

	t.Run("VersionedUpdate", func(t *testing.T) {
		require.NoError(t, repo.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusApproved))
		err := repo.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusRejected)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)

		got, err := repo.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("OverlapByEndpoints", func(t *testing.T) {
		found, err := repo.FindOverlapping(ctx, item.ID, 0, now.Add(36*time.Hour), now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.Len(t, found, 1)

		// inclusive bounds
		found, err = repo.FindOverlapping(ctx, item.ID, 0, now.Add(48*time.Hour), now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.Len(t, found, 1)

		// strictly contained candidate has no endpoint inside
		found, err = repo.FindOverlapping(ctx, item.ID, 0, now.Add(30*time.Hour), now.Add(40*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = repo.FindOverlapping(ctx, item.ID, b.ID, now.Add(36*time.Hour), now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("FinishedBooking", func(t *testing.T) {
		ok, err := repo.HasFinishedBooking(ctx, item.ID, booker.ID, now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.HasFinishedBooking(ctx, item.ID, booker.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryRepository_ListBookings(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	day := 24 * time.Hour

	owner := seedUser(t, repo, "Owner", "owner@example.com")
	booker := seedUser(t, repo, "Booker", "booker@example.com")
	item := seedItem(t, repo, owner.ID, "Kayak", true)

	create := func(start, end time.Duration, status string) *models.Booking {
		b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Status: status,
			Start: now.Add(start), End: now.Add(end)}
		require.NoError(t, repo.CreateBooking(ctx, b))
		return b
	}
	past := create(-3*day, -2*day, models.StatusApproved)
	current := create(-day, day, models.StatusApproved)
	currentRejected := create(-day+time.Hour, day, models.StatusRejected)
	future := create(2*day, 3*day, models.StatusWaiting)

	list := func(state models.BookingState, ownerView bool, page models.Page) []int64 {
		filter := models.BookingFilter{State: state, Now: now, Page: page}
		if ownerView {
			filter.OwnerID = owner.ID
		} else {
			filter.BookerID = booker.ID
		}
		found, err := repo.ListBookings(ctx, filter)
		require.NoError(t, err)
		ids := make([]int64, 0, len(found))
		for _, b := range found {
			ids = append(ids, b.ID)
		}
		return ids
	}
	all := models.Page{From: 0, Size: 10}

	assert.Equal(t, []int64{future.ID, currentRejected.ID, current.ID, past.ID}, list(models.StateAll, false, all))
	assert.Equal(t, []int64{currentRejected.ID, current.ID}, list(models.StateCurrent, false, all))
	assert.Equal(t, []int64{past.ID}, list(models.StatePast, true, all))
	assert.Equal(t, []int64{future.ID}, list(models.StateFuture, true, all))
	assert.Equal(t, []int64{future.ID}, list(models.StateWaiting, false, all))
	assert.Equal(t, []int64{currentRejected.ID}, list(models.StateRejected, true, all))

	assert.Equal(t, []int64{future.ID, currentRejected.ID}, list(models.StateAll, false, models.Page{From: 0, Size: 2}))
	assert.Equal(t, []int64{current.ID, past.ID}, list(models.StateAll, false, models.Page{From: 2, Size: 2}))
	assert.Empty(t, list(models.StateAll, false, models.Page{From: 8, Size: 2}))
}

func TestMemoryRepository_RequestsAndComments(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	alice := seedUser(t, repo, "Alice", "alice@example.com")
	bob := seedUser(t, repo, "Bob", "bob@example.com")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := &models.ItemRequest{Description: "need a ladder", RequesterID: alice.ID, Created: base}
	r2 := &models.ItemRequest{Description: "need a tent", RequesterID: alice.ID, Created: base.Add(time.Hour)}
	r3 := &models.ItemRequest{Description: "need a bike", RequesterID: bob.ID, Created: base.Add(2 * time.Hour)}
	for _, r := range []*models.ItemRequest{r1, r2, r3} {
		require.NoError(t, repo.CreateRequest(ctx, r))
	}

	own, err := repo.GetRequestsByRequester(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, r2.ID, own[0].ID)

	others, err := repo.GetRequestsExcept(ctx, bob.ID, models.Page{From: 0, Size: 1})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, r2.ID, others[0].ID)

	ladder := &models.Item{Name: "Ladder", Description: "3m", Available: true, OwnerID: bob.ID, RequestID: r1.ID}
	require.NoError(t, repo.CreateItem(ctx, ladder))
	answers, err := repo.GetItemsByRequests(ctx, []int64{r1.ID, r2.ID})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, ladder.ID, answers[0].ID)

	c := &models.Comment{Text: "great ladder", ItemID: ladder.ID, AuthorID: alice.ID}
	require.NoError(t, repo.CreateComment(ctx, c))
	assert.Equal(t, "Alice", c.AuthorName)
	assert.False(t, c.Created.IsZero())

	comments, err := repo.GetItemsComments(ctx, []int64{ladder.ID})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "great ladder", comments[0].Text)

	_, err = repo.GetRequest(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestMemoryRepository_HugePageValues(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	owner := seedUser(t, repo, "Owner", "owner@example.com")
	booker := seedUser(t, repo, "Booker", "booker@example.com")
	item := seedItem(t, repo, owner.ID, "Canoe", true)
	b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Status: models.StatusWaiting,
		Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	require.NoError(t, repo.CreateBooking(ctx, b))
	require.NoError(t, repo.CreateRequest(ctx, &models.ItemRequest{Description: "need a paddle", RequesterID: owner.ID, Created: now}))

	pages := map[string]struct {
		page models.Page
		want int
	}{
		"BeyondEnd":  {page: models.Page{From: math.MaxInt, Size: math.MaxInt}, want: 0},
		"WholeList":  {page: models.Page{From: 0, Size: math.MaxInt}, want: 1},
		"HugeOffset": {page: models.Page{From: math.MaxInt, Size: 1}, want: 0},
	}

	for name, tc := range pages {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				found, err := repo.ListBookings(ctx, models.BookingFilter{BookerID: booker.ID, State: models.StateAll, Now: now, Page: tc.page})
				require.NoError(t, err)
				assert.Len(t, found, tc.want)

				items, err := repo.GetItemsByOwner(ctx, owner.ID, tc.page)
				require.NoError(t, err)
				assert.Len(t, items, tc.want)

				items, err = repo.SearchItems(ctx, "canoe", tc.page)
				require.NoError(t, err)
				assert.Len(t, items, tc.want)

				requests, err := repo.GetRequestsExcept(ctx, booker.ID, tc.page)
				require.NoError(t, err)
				assert.Len(t, requests, tc.want)
			})
		})
	}
}
