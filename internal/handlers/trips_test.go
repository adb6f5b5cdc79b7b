package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wheels-backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tripColumns = []string{
	"id", "driver_id", "origin", "destination", "route", "seats_available",
	"departure_time", "price", "status", "created_at", "updated_at",
}

func tripRow(id, driverID, status string, seats int) *sqlmock.Rows {
	return sqlmock.NewRows(tripColumns).AddRow(
		id, driverID, "Campus Norte", "Centro", "{Campus Norte,Centro}",
		seats, "2026-09-05T07:30:00-05:00", int64(8000), status,
		int64(1700000000), int64(1700000000),
	)
}

type fakeBroadcaster struct {
	events []string
}

func (f *fakeBroadcaster) BroadcastTripEvent(eventType string, trip interface{}) {
	f.events = append(f.events, eventType)
}

func tripURLParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func validTripBody(t *testing.T, seats int) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"origin":          "Campus Norte",
		"destination":     "Centro",
		"seats_available": seats,
		"departure_time":  "2026-09-05T07:30:00-05:00",
		"price":           8000,
	})
	require.NoError(t, err)
	return body
}

func TestCreateTripRequiresVehicle(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM vehicles WHERE owner_id = \$1`).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	hub := &fakeBroadcaster{}
	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/trips", validTripBody(t, 3), testUser(models.RoleDriver))
	CreateTrip(db, hub)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, hub.events)
}

func TestCreateTripSeatsExceedCapacity(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM vehicles WHERE owner_id = \$1`).
		WillReturnRows(vehicleRow("u1", 4))

	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/trips", validTripBody(t, 5), testUser(models.RoleDriver))
	CreateTrip(db, &fakeBroadcaster{})(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "seats_available", resp.Errors[0].Field)
}

func TestCreateTripSuccess(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM vehicles WHERE owner_id = \$1`).
		WillReturnRows(vehicleRow("u1", 4))
	mock.ExpectExec(`INSERT INTO trips`).
		WithArgs(sqlmock.AnyArg(), "u1", "Campus Norte", "Centro", sqlmock.AnyArg(),
			3, "2026-09-05T07:30:00-05:00", int64(8000), "active",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	hub := &fakeBroadcaster{}
	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/trips", validTripBody(t, 3), testUser(models.RoleDriver))
	CreateTrip(db, hub)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	trip, ok := dataMap(t, resp)["trip"].(map[string]interface{})
	require.True(t, ok)
	// Route omitted in the request defaults to [origin, destination]
	assert.Equal(t, []interface{}{"Campus Norte", "Centro"}, trip["route"])
	assert.Equal(t, []string{"trip_created"}, hub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTripsWithFilters(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`WHERE t\.status IN \('active', 'full'\)\s+AND t\.origin ILIKE \$1\s+AND t\.seats_available >= \$2`).
		WithArgs("%Campus%", 2).
		WillReturnRows(sqlmock.NewRows(append(tripColumns,
			"driver_first_name", "driver_last_name", "driver_phone", "driver_photo_url")).
			AddRow("t1", "d1", "Campus Norte", "Centro", "{Campus Norte,Centro}",
				3, "2026-09-05T07:30:00-05:00", int64(8000), "active",
				int64(1700000000), int64(1700000000),
				"Ana", "Gómez", "3001234567", ""))

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/trips?origin=Campus&seats=2", nil, testUser(models.RolePassenger))
	ListTrips(db)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	trips, ok := dataMap(t, decodeResponse(t, rec))["trips"].([]interface{})
	require.True(t, ok)
	require.Len(t, trips, 1)
	first := trips[0].(map[string]interface{})
	assert.Equal(t, "Ana", first["driver_first_name"])
}

func TestListTripsRejectsBadSeatsFilter(t *testing.T) {
	db, _ := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/trips?seats=zero", nil, testUser(models.RolePassenger))
	ListTrips(db)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyTrips(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE driver_id = \$1`).
		WithArgs("u1").
		WillReturnRows(tripRow("t1", "u1", "completed", 0))

	rec := httptest.NewRecorder()
	MyTrips(db)(rec, authedRequest("GET", "/api/trips/my-trips", nil, testUser(models.RoleBoth)))

	require.Equal(t, http.StatusOK, rec.Code)
	trips, ok := dataMap(t, decodeResponse(t, rec))["trips"].([]interface{})
	require.True(t, ok)
	assert.Len(t, trips, 1)
}

func TestUpdateTripOwnerOnly(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(tripRow("t1", "someone-else", "active", 3))

	body, _ := json.Marshal(map[string]interface{}{"price": 9000})
	req := tripURLParam(authedRequest("PATCH", "/api/trips/t1", body, testUser(models.RoleDriver)), "t1")

	hub := &fakeBroadcaster{}
	rec := httptest.NewRecorder()
	UpdateTrip(db, hub)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, hub.events)
}

func TestUpdateTripSeatsZeroDerivesFull(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(tripRow("t1", "u1", "active", 3))
	mock.ExpectExec(`UPDATE trips SET seats_available = \$1`).
		WithArgs(0, "2026-09-05T07:30:00-05:00", int64(8000), "full", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(map[string]interface{}{"seats_available": 0})
	req := tripURLParam(authedRequest("PATCH", "/api/trips/t1", body, testUser(models.RoleBoth)), "t1")

	hub := &fakeBroadcaster{}
	rec := httptest.NewRecorder()
	UpdateTrip(db, hub)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	trip, ok := dataMap(t, decodeResponse(t, rec))["trip"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "full", trip["status"])
	assert.Equal(t, []string{"trip_updated"}, hub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTripSeatsReturningReactivates(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WillReturnRows(tripRow("t1", "u1", "full", 0))
	mock.ExpectExec(`UPDATE trips SET seats_available = \$1`).
		WithArgs(2, "2026-09-05T07:30:00-05:00", int64(8000), "active", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(map[string]interface{}{"seats_available": 2})
	req := tripURLParam(authedRequest("PATCH", "/api/trips/t1", body, testUser(models.RoleBoth)), "t1")

	rec := httptest.NewRecorder()
	UpdateTrip(db, &fakeBroadcaster{})(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	trip, _ := dataMap(t, decodeResponse(t, rec))["trip"].(map[string]interface{})
	assert.Equal(t, "active", trip["status"])
}

func TestUpdateTripUnknownStatus(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WillReturnRows(tripRow("t1", "u1", "active", 3))

	body, _ := json.Marshal(map[string]interface{}{"status": "paused"})
	req := tripURLParam(authedRequest("PATCH", "/api/trips/t1", body, testUser(models.RoleDriver)), "t1")

	rec := httptest.NewRecorder()
	UpdateTrip(db, &fakeBroadcaster{})(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTripSuccess(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(tripRow("t1", "u1", "active", 3))
	mock.ExpectExec(`DELETE FROM trips WHERE id = \$1`).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := tripURLParam(authedRequest("DELETE", "/api/trips/t1", nil, testUser(models.RoleDriver)), "t1")

	hub := &fakeBroadcaster{}
	rec := httptest.NewRecorder()
	DeleteTrip(db, hub)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"trip_deleted"}, hub.events)
}

func TestDeleteTripNotFound(t *testing.T) {
	db, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT \* FROM trips WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	req := tripURLParam(authedRequest("DELETE", "/api/trips/missing", nil, testUser(models.RoleDriver)), "missing")

	rec := httptest.NewRecorder()
	DeleteTrip(db, &fakeBroadcaster{})(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
