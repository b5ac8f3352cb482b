package stoodio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines stoodio catalog data access
type Repository interface {
	Create(ctx context.Context, s *Stoodio) error
	GetByID(ctx context.Context, id uuid.UUID) (*Stoodio, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Stoodio, error)
	List(ctx context.Context, city string, limit, offset int) ([]*Stoodio, error)
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context, stoodioID uuid.UUID) ([]*Room, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates stoodio repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Stoodio) error {
	query := `
		INSERT INTO stoodioz (id, owner_id, name, address, city, hourly_rate_cents, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Name, s.Address, s.City, s.HourlyRate, s.PhotoURL,
	)
	if err != nil {
		return fmt.Errorf("stoodio repository create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Stoodio, error) {
	var s Stoodio
	err := r.db.GetContext(ctx, &s, `SELECT * FROM stoodioz WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoodioNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Stoodio, error) {
	var s Stoodio
	err := r.db.GetContext(ctx, &s, `SELECT * FROM stoodioz WHERE owner_id = $1`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoodioNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, city string, limit, offset int) ([]*Stoodio, error) {
	var stoodioz []*Stoodio
	if city != "" {
		err := r.db.SelectContext(ctx, &stoodioz, `
			SELECT * FROM stoodioz WHERE city = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, city, limit, offset)
		return stoodioz, err
	}
	err := r.db.SelectContext(ctx, &stoodioz, `
		SELECT * FROM stoodioz ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return stoodioz, err
}

func (r *repository) CreateRoom(ctx context.Context, room *Room) error {
	query := `
		INSERT INTO stoodio_rooms (id, stoodio_id, name, hourly_rate_cents)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, room.ID, room.StoodioID, room.Name, room.HourlyRate)
	if err != nil {
		return fmt.Errorf("stoodio repository create room: %w", err)
	}
	return nil
}

func (r *repository) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	var room Room
	err := r.db.GetContext(ctx, &room, `SELECT * FROM stoodio_rooms WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *repository) ListRooms(ctx context.Context, stoodioID uuid.UUID) ([]*Room, error) {
	var rooms []*Room
	err := r.db.SelectContext(ctx, &rooms, `SELECT * FROM stoodio_rooms WHERE stoodio_id = $1 ORDER BY name`, stoodioID)
	return rooms, err
}
