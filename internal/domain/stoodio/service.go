package stoodio

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Service handles stoodio catalog logic
type Service struct {
	repo Repository
}

// NewService creates stoodio service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new stoodio listing owned by the acting user.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateStoodioRequest) (*Stoodio, error) {
	st := &Stoodio{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		HourlyRate: req.HourlyRateCents,
	}
	if req.PhotoURL != "" {
		st.PhotoURL = sql.NullString{String: req.PhotoURL, Valid: true}
	}

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// AddRoom adds a bookable room to the owner's stoodio.
func (s *Service) AddRoom(ctx context.Context, ownerID, stoodioID uuid.UUID, req *CreateRoomRequest) (*Room, error) {
	st, err := s.repo.GetByID(ctx, stoodioID)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	room := &Room{
		ID:        uuid.New(),
		StoodioID: stoodioID,
		Name:      req.Name,
	}
	if req.HourlyRateCents > 0 {
		room.HourlyRate = sql.NullInt64{Int64: req.HourlyRateCents, Valid: true}
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Get returns a stoodio with its rooms.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Stoodio, []*Room, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rooms, err := s.repo.ListRooms(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return st, rooms, nil
}

// List returns stoodioz, optionally filtered by city.
func (s *Service) List(ctx context.Context, city string, limit, offset int) ([]*Stoodio, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, city, limit, offset)
}

// ResolveRoom loads a room and its stoodio, verifying they belong together.
// The booking factory uses this to price a request.
func (s *Service) ResolveRoom(ctx context.Context, stoodioID, roomID uuid.UUID) (*Stoodio, *Room, error) {
	st, err := s.repo.GetByID(ctx, stoodioID)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.StoodioID != st.ID {
		return nil, nil, ErrRoomMismatch
	}
	return st, room, nil
}
