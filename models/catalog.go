package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Movie is a catalogue entry.
type Movie struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	DurationMin int       `json:"duration_min" db:"duration_min"`
	Rating      string    `json:"rating" db:"rating"`
	Synopsis    string    `json:"synopsis" db:"synopsis"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewMovie creates a new Movie instance
func NewMovie(title string, durationMin int, rating, synopsis string) *Movie {
	now := time.Now().UTC()
	return &Movie{
		ID:          uuid.New(),
		Title:       title,
		DurationMin: durationMin,
		Rating:      rating,
		Synopsis:    synopsis,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Room is a screening room laid out as a grid of rows and columns.
type Room struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Rows      int       `json:"rows" db:"rows"`
	Cols      int       `json:"cols" db:"cols"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewRoom creates a new Room instance
func NewRoom(name string, rows, cols int) *Room {
	now := time.Now().UTC()
	return &Room{
		ID:        uuid.New(),
		Name:      name,
		Rows:      rows,
		Cols:      cols,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Capacity is the number of seats the grid can hold.
func (r *Room) Capacity() int {
	return r.Rows * r.Cols
}

// Seat is a single seat in a room.
type Seat struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RoomID    uuid.UUID `json:"room_id" db:"room_id"`
	RowLabel  string    `json:"row_label" db:"row_label"`
	ColNumber int       `json:"col_number" db:"col_number"`
	Label     string    `json:"label" db:"label"`
}

// NewSeat creates a new Seat. An empty label defaults to row label + column, e.g. "A7".
func NewSeat(roomID uuid.UUID, rowLabel string, colNumber int, label string) *Seat {
	if label == "" {
		label = DefaultSeatLabel(rowLabel, colNumber)
	}
	return &Seat{
		ID:        uuid.New(),
		RoomID:    roomID,
		RowLabel:  rowLabel,
		ColNumber: colNumber,
		Label:     label,
	}
}

// DefaultSeatLabel joins a row label and column number.
func DefaultSeatLabel(rowLabel string, colNumber int) string {
	return rowLabel + strconv.Itoa(colNumber)
}
