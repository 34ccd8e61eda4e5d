package repository

import (
	"context"
	"errors"

	"github.com/parley-systems/parley-stack/hub/internal/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomArchived = errors.New("room is archived")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Repository is the hub's persistence boundary.
type Repository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context, includeArchived bool) ([]*models.Room, error)
	ArchiveRoom(ctx context.Context, id string) error

	// AppendStatus records a status transition and updates the room's
	// current status. Returns ErrRoomArchived when the room is archived.
	AppendStatus(ctx context.Context, update *models.StatusUpdate) error
	StatusHistory(ctx context.Context, roomID string, limit int) ([]*models.StatusUpdate, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	Close()
}
