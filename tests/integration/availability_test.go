//go:build integration

package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two sessions race for the same room and slot: the room row lock serializes
// the check+write, so exactly one wins and the loser sees a conflict.
func TestConcurrentRoomBooking(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	room := createRoom(t, "Studio A")

	start, end := slot(10, 12)
	makeSession := func(clientID uint) *models.Session {
		session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
			ClientID:    clientID,
			Kind:        models.KindStudio,
			SessionDate: testDay,
			StartTime:   start,
			EndTime:     end,
		})
		require.NoError(t, err)
		return session
	}
	a := makeSession(1)
	b := makeSession(2)

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make([]error, 2)
	for i, s := range []*models.Session{a, b} {
		go func(idx int, sessionID uint) {
			defer wg.Done()
			_, errs[idx] = svcs.sessions.AssignRoom(t.Context(), sessionID, room.ID, admin)
		}(i, s.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, service.ErrSchedulingConflict)
		}
	}
	assert.Equal(t, 1, winners, "exactly one session should get the room")
}

func TestBackToBackRoomBookingsAllowed(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	room := createRoom(t, "Studio B")

	startA, endA := slot(10, 12)
	a, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID: 1, Kind: models.KindStudio, SessionDate: testDay, StartTime: startA, EndTime: endA,
	})
	require.NoError(t, err)
	_, err = svcs.sessions.AssignRoom(t.Context(), a.ID, room.ID, admin)
	require.NoError(t, err)

	// [12,14) touches [10,12) at the boundary only: no conflict.
	startB, endB := slot(12, 14)
	b, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID: 2, Kind: models.KindStudio, SessionDate: testDay, StartTime: startB, EndTime: endB,
	})
	require.NoError(t, err)
	_, err = svcs.sessions.AssignRoom(t.Context(), b.ID, room.ID, admin)
	assert.NoError(t, err)
}

func TestCancellationFreesTheSlot(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	room := createRoom(t, "Studio C")

	start, end := slot(9, 11)
	a, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID: 1, Kind: models.KindStudio, SessionDate: testDay, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	_, err = svcs.sessions.AssignRoom(t.Context(), a.ID, room.ID, admin)
	require.NoError(t, err)

	b, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID: 2, Kind: models.KindStudio, SessionDate: testDay, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	_, err = svcs.sessions.AssignRoom(t.Context(), b.ID, room.ID, admin)
	assert.ErrorIs(t, err, service.ErrSchedulingConflict)

	// Cancelled sessions stop occupying the room.
	_, err = svcs.sessions.CancelSession(t.Context(), a.ID, admin, "Client no-show risk", models.InitiatorStudio, "")
	require.NoError(t, err)

	_, err = svcs.sessions.AssignRoom(t.Context(), b.ID, room.ID, admin)
	assert.NoError(t, err)
}

func TestPhotographerDoubleBookingPrevented(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	photographer := createUser(t, "photographer", models.PhotographerRoleName)
	item := createCatalogItem(t, "PKG-BASIC", 40000)

	prepare := func(clientID uint, location string, startHour, endHour int) *models.Session {
		start, end := slot(startHour, endHour)
		session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
			ClientID: clientID, Kind: models.KindExternal, SessionDate: testDay,
			StartTime: start, EndTime: end, Location: location,
		})
		require.NoError(t, err)
		_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
		require.NoError(t, err)
		return session
	}

	first := prepare(1, "Park", 10, 12)
	overlapping := prepare(2, "Museum", 11, 13)
	disjoint := prepare(3, "Pier", 13, 15)

	startA, endA := slot(10, 12)
	_, err := svcs.assignments.AssignPhotographer(t.Context(), first.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID, CoverageStart: startA, CoverageEnd: endA,
	})
	require.NoError(t, err)

	startB, endB := slot(11, 13)
	_, err = svcs.assignments.AssignPhotographer(t.Context(), overlapping.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID, CoverageStart: startB, CoverageEnd: endB,
	})
	assert.ErrorIs(t, err, service.ErrSchedulingConflict)

	startC, endC := slot(13, 15)
	_, err = svcs.assignments.AssignPhotographer(t.Context(), disjoint.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID, CoverageStart: startC, CoverageEnd: endC,
	})
	assert.NoError(t, err)
}

func TestConcurrentPhotographerAssignment(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	photographer := createUser(t, "photographer", models.PhotographerRoleName)
	item := createCatalogItem(t, "PKG-BASIC", 40000)

	prepare := func(clientID uint, location string) *models.Session {
		start, end := slot(10, 12)
		session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
			ClientID: clientID, Kind: models.KindExternal, SessionDate: testDay,
			StartTime: start, EndTime: end, Location: location,
		})
		require.NoError(t, err)
		_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
		require.NoError(t, err)
		return session
	}

	a := prepare(1, "Park")
	b := prepare(2, "Museum")
	start, end := slot(10, 12)

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make([]error, 2)
	for i, s := range []*models.Session{a, b} {
		go func(idx int, sessionID uint) {
			defer wg.Done()
			_, errs[idx] = svcs.assignments.AssignPhotographer(t.Context(), sessionID, admin, service.AssignPhotographerInput{
				PhotographerID: photographer.ID,
				CoverageStart:  start,
				CoverageEnd:    end,
			})
		}(i, s.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, service.ErrSchedulingConflict)
		}
	}
	assert.Equal(t, 1, winners, "exactly one session should get the photographer")
}

func TestReadOnlyAvailabilityCheck(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	room := createRoom(t, "Studio D")

	start, end := slot(10, 12)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID: 1, Kind: models.KindStudio, SessionDate: testDay, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	_, err = svcs.sessions.AssignRoom(t.Context(), session.ID, room.ID, admin)
	require.NoError(t, err)

	available, err := svcs.checker.CheckAvailable(t.Context(), service.ResourceRoom, room.ID, testDay, start.Add(30*time.Minute), end.Add(30*time.Minute), 0)
	require.NoError(t, err)
	assert.False(t, available)

	available, err = svcs.checker.CheckAvailable(t.Context(), service.ResourceRoom, room.ID, testDay, end, end.Add(2*time.Hour), 0)
	require.NoError(t, err)
	assert.True(t, available)
}
