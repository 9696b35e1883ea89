package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestMovieHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("empty list answers 204", func(t *testing.T) {
		svc := new(MockMovieService)
		svc.On("List", mock.Anything).Return([]*models.Movie{}, nil)

		w := serve(http.MethodGet, "/movies", "/movies", "", nil, NewMovieHandler(svc, logger).HandleList)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("list returns movies", func(t *testing.T) {
		svc := new(MockMovieService)
		svc.On("List", mock.Anything).Return([]*models.Movie{models.NewMovie("Alien", 117, "R", "")}, nil)

		w := serve(http.MethodGet, "/movies", "/movies", "", nil, NewMovieHandler(svc, logger).HandleList)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []models.Movie `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Alien", body.Data[0].Title)
	})

	t.Run("get rejects a malformed id", func(t *testing.T) {
		svc := new(MockMovieService)
		w := serve(http.MethodGet, "/movies/{id}", "/movies/not-a-uuid", "", nil, NewMovieHandler(svc, logger).HandleGet)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("get unknown movie is 404", func(t *testing.T) {
		svc := new(MockMovieService)
		id := uuid.New()
		svc.On("Get", mock.Anything, id).Return(nil, services.ErrMovieNotFound.WithDetail("id", id.String()))

		w := serve(http.MethodGet, "/movies/{id}", "/movies/"+id.String(), "", nil, NewMovieHandler(svc, logger).HandleGet)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), id.String())
	})

	t.Run("create", func(t *testing.T) {
		svc := new(MockMovieService)
		in := catalog.MovieInput{Title: "Alien", DurationMin: 117, Rating: "R"}
		svc.On("Create", mock.Anything, in).Return(models.NewMovie("Alien", 117, "R", ""), nil)

		w := serve(http.MethodPost, "/movies", "/movies", `{"title":"Alien","duration_min":117,"rating":"R"}`, nil,
			NewMovieHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("create requires a positive duration", func(t *testing.T) {
		svc := new(MockMovieService)
		w := serve(http.MethodPost, "/movies", "/movies", `{"title":"Alien","duration_min":0}`, nil,
			NewMovieHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update passes only present fields", func(t *testing.T) {
		svc := new(MockMovieService)
		id := uuid.New()
		svc.On("Update", mock.Anything, id, catalog.MovieUpdate{Title: strPtr("Aliens")}).
			Return(models.NewMovie("Aliens", 137, "R", ""), nil)

		w := serve(http.MethodPut, "/movies/{id}", "/movies/"+id.String(), `{"title":"Aliens"}`, nil,
			NewMovieHandler(svc, logger).HandleUpdate)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockMovieService)
		id := uuid.New()
		svc.On("Delete", mock.Anything, id).Return(nil)

		w := serve(http.MethodDelete, "/movies/{id}", "/movies/"+id.String(), "", nil, NewMovieHandler(svc, logger).HandleDelete)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("internal failure hides details", func(t *testing.T) {
		svc := new(MockMovieService)
		svc.On("List", mock.Anything).Return(nil, services.ErrDatabaseError.Wrap(errors.New("dial tcp: refused")))

		w := serve(http.MethodGet, "/movies", "/movies", "", nil, NewMovieHandler(svc, logger).HandleList)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "dial tcp")
	})
}

func TestRoomHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("create", func(t *testing.T) {
		svc := new(MockRoomService)
		svc.On("Create", mock.Anything, catalog.RoomInput{Name: "Sala 1", Rows: 5, Cols: 10}).
			Return(models.NewRoom("Sala 1", 5, 10), nil)

		w := serve(http.MethodPost, "/rooms", "/rooms", `{"name":"Sala 1","rows":5,"cols":10}`, nil,
			NewRoomHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		svc := new(MockRoomService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrRoomNameTaken)

		w := serve(http.MethodPost, "/rooms", "/rooms", `{"name":"Sala 1","rows":5,"cols":10}`, nil,
			NewRoomHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("shrinking below existing seats is rejected", func(t *testing.T) {
		svc := new(MockRoomService)
		id := uuid.New()
		svc.On("Update", mock.Anything, id, catalog.RoomUpdate{Cols: intPtr(2)}).
			Return(nil, services.ErrRoomShrink.WithDetail("max_col", 8))

		w := serve(http.MethodPut, "/rooms/{id}", "/rooms/"+id.String(), `{"cols":2}`, nil,
			NewRoomHandler(svc, logger).HandleUpdate)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "max_col")
	})

	t.Run("seats of a room", func(t *testing.T) {
		svc := new(MockRoomService)
		room := models.NewRoom("Sala 1", 5, 10)
		svc.On("Seats", mock.Anything, room.ID).Return([]*models.Seat{models.NewSeat(room.ID, "A", 1, "")}, nil)

		w := serve(http.MethodGet, "/rooms/{id}/seats", "/rooms/"+room.ID.String()+"/seats", "", nil,
			NewRoomHandler(svc, logger).HandleSeats)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"label":"A1"`)
	})

	t.Run("list and get", func(t *testing.T) {
		svc := new(MockRoomService)
		room := models.NewRoom("Sala 1", 5, 10)
		svc.On("List", mock.Anything).Return([]*models.Room{room}, nil)
		svc.On("Get", mock.Anything, room.ID).Return(room, nil)
		h := NewRoomHandler(svc, logger)

		assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/rooms", "/rooms", "", nil, h.HandleList).Code)
		assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/rooms/{id}", "/rooms/"+room.ID.String(), "", nil, h.HandleGet).Code)
	})

	t.Run("delete unknown room is 404", func(t *testing.T) {
		svc := new(MockRoomService)
		id := uuid.New()
		svc.On("Delete", mock.Anything, id).Return(services.ErrRoomNotFound)

		w := serve(http.MethodDelete, "/rooms/{id}", "/rooms/"+id.String(), "", nil, NewRoomHandler(svc, logger).HandleDelete)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSeatHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("create", func(t *testing.T) {
		svc := new(MockSeatService)
		roomID := uuid.New()
		in := catalog.SeatInput{RoomID: roomID, RowLabel: "B", ColNumber: 3}
		svc.On("Create", mock.Anything, in).Return(models.NewSeat(roomID, "B", 3, ""), nil)

		body := `{"room_id":"` + roomID.String() + `","row_label":"B","col_number":3}`
		w := serve(http.MethodPost, "/seats", "/seats", body, nil, NewSeatHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"label":"B3"`)
	})

	t.Run("room full", func(t *testing.T) {
		svc := new(MockSeatService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrRoomFull)

		body := `{"room_id":"` + uuid.NewString() + `","row_label":"B","col_number":3}`
		w := serve(http.MethodPost, "/seats", "/seats", body, nil, NewSeatHandler(svc, logger).HandleCreate)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "room capacity reached")
	})

	t.Run("update moves seat", func(t *testing.T) {
		svc := new(MockSeatService)
		id, roomID := uuid.New(), uuid.New()
		svc.On("Update", mock.Anything, id, catalog.SeatUpdate{RoomID: &roomID}).
			Return(models.NewSeat(roomID, "A", 1, ""), nil)

		w := serve(http.MethodPut, "/seats/{id}", "/seats/"+id.String(), `{"room_id":"`+roomID.String()+`"}`, nil,
			NewSeatHandler(svc, logger).HandleUpdate)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("seat referenced by an order cannot be deleted", func(t *testing.T) {
		svc := new(MockSeatService)
		id := uuid.New()
		svc.On("Delete", mock.Anything, id).Return(services.ErrSeatInUse)

		w := serve(http.MethodDelete, "/seats/{id}", "/seats/"+id.String(), "", nil, NewSeatHandler(svc, logger).HandleDelete)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("list and get", func(t *testing.T) {
		svc := new(MockSeatService)
		seat := models.NewSeat(uuid.New(), "C", 4, "")
		svc.On("List", mock.Anything).Return([]*models.Seat{seat}, nil)
		svc.On("Get", mock.Anything, seat.ID).Return(seat, nil)
		h := NewSeatHandler(svc, logger)

		assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/seats", "/seats", "", nil, h.HandleList).Code)
		assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/seats/{id}", "/seats/"+seat.ID.String(), "", nil, h.HandleGet).Code)
	})
}
