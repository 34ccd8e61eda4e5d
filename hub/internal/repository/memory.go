package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parley-systems/parley-stack/hub/internal/models"
)

// InMemoryRepository is a map-backed Repository used by tests and local
// development.
type InMemoryRepository struct {
	mu          sync.RWMutex
	rooms       map[string]*models.Room
	history     map[string][]*models.StatusUpdate
	usersByName map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		rooms:       make(map[string]*models.Room),
		history:     make(map[string][]*models.StatusUpdate),
		usersByName: make(map[string]*models.User),
	}
}

func (r *InMemoryRepository) Close() {}

func (r *InMemoryRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room.ID == "" {
		id, _ := uuid.NewV7()
		room.ID = id.String()
	}
	if _, exists := r.rooms[room.ID]; exists {
		return ErrRoomExists
	}
	if room.Status == "" {
		room.Status = models.RoomStatusIdle
	}

	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	clone := *room
	r.rooms[room.ID] = &clone
	return nil
}

func (r *InMemoryRepository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	clone := *room
	return &clone, nil
}

func (r *InMemoryRepository) ListRooms(ctx context.Context, includeArchived bool) ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if !includeArchived && room.ArchivedAt != nil {
			continue
		}
		clone := *room
		rooms = append(rooms, &clone)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	return rooms, nil
}

func (r *InMemoryRepository) ArchiveRoom(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return ErrRoomNotFound
	}
	if room.ArchivedAt != nil {
		return ErrRoomArchived
	}

	now := time.Now().UTC()
	room.ArchivedAt = &now
	room.Status = models.RoomStatusClosed
	room.UpdatedAt = now
	return nil
}

func (r *InMemoryRepository) AppendStatus(ctx context.Context, update *models.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[update.RoomID]
	if !exists {
		return ErrRoomNotFound
	}
	if room.ArchivedAt != nil {
		return ErrRoomArchived
	}

	if update.ID == "" {
		id, _ := uuid.NewV7()
		update.ID = id.String()
	}
	update.CreatedAt = time.Now().UTC()

	clone := *update
	r.history[update.RoomID] = append(r.history[update.RoomID], &clone)
	room.Status = update.Status
	room.UpdatedAt = update.CreatedAt
	return nil
}

func (r *InMemoryRepository) StatusHistory(ctx context.Context, roomID string, limit int) ([]*models.StatusUpdate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.rooms[roomID]; !exists {
		return nil, ErrRoomNotFound
	}

	if limit <= 0 {
		limit = 50
	}

	history := r.history[roomID]
	updates := make([]*models.StatusUpdate, 0, limit)
	// Newest first.
	for i := len(history) - 1; i >= 0 && len(updates) < limit; i-- {
		clone := *history[i]
		updates = append(updates, &clone)
	}

	return updates, nil
}

func (r *InMemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return ErrUserExists
	}
	if user.ID == "" {
		id, _ := uuid.NewV7()
		user.ID = id.String()
	}
	user.CreatedAt = time.Now().UTC()

	clone := *user
	r.usersByName[user.Username] = &clone
	return nil
}

func (r *InMemoryRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByName[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}
