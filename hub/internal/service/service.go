// Package service implements the hub's business logic on top of the
// repository and the live-channel broadcaster.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parley-systems/parley-stack/common/logging"
	"github.com/parley-systems/parley-stack/common/messaging"
	"github.com/parley-systems/parley-stack/hub/internal/models"
	"github.com/parley-systems/parley-stack/hub/internal/repository"
	"github.com/parley-systems/parley-stack/hub/pkg/tokens"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidStatus      = errors.New("status must not be empty")
	ErrInvalidRoomName    = errors.New("room name must not be empty")
)

// Broadcaster fans an envelope out to every live-channel subscriber of a
// room. The ws hub implements it.
type Broadcaster interface {
	Broadcast(roomID string, env *models.Envelope)
}

// Service coordinates persistence, broadcasting and bus publication.
// publisher and broadcaster are optional; a nil value disables that output.
type Service struct {
	repo        repository.Repository
	broadcaster Broadcaster
	publisher   messaging.Publisher
	tokens      *tokens.Generator
	log         *logging.Logger
}

func NewService(repo repository.Repository, tg *tokens.Generator, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Default()
	}
	return &Service{
		repo:   repo,
		tokens: tg,
		log:    log,
	}
}

// SetBroadcaster wires the live-channel fan-out. Called once at startup;
// separate from NewService because the ws hub needs the service for its
// initial-status lookups.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetPublisher wires the message bus output for lifecycle announcements.
func (s *Service) SetPublisher(p messaging.Publisher) {
	s.publisher = p
}

func (s *Service) ListRooms(ctx context.Context, includeArchived bool) ([]*models.Room, error) {
	return s.repo.ListRooms(ctx, includeArchived)
}

func (s *Service) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

// RoomStatus returns a room's current status. The ws hub uses it to build the
// snapshot frame for new subscribers.
func (s *Service) RoomStatus(ctx context.Context, id string) (string, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return "", err
	}
	return room.Status, nil
}

func (s *Service) CreateRoom(ctx context.Context, req *models.CreateRoomRequest, createdBy string) (*models.Room, error) {
	if req.Name == "" {
		return nil, ErrInvalidRoomName
	}

	room := &models.Room{
		Name:      req.Name,
		Topic:     req.Topic,
		Status:    models.RoomStatusIdle,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.announce(ctx, messaging.SubjectRoomsCreated, room)
	return room, nil
}

func (s *Service) ArchiveRoom(ctx context.Context, id string) error {
	if err := s.repo.ArchiveRoom(ctx, id); err != nil {
		return err
	}

	room, err := s.repo.GetRoom(ctx, id)
	if err == nil {
		s.announce(ctx, messaging.SubjectRoomsArchived, room)
	}

	// Subscribers of an archived room see its terminal status.
	s.broadcastStatus(id, models.StatusPayload{Status: models.RoomStatusClosed})
	return nil
}

// SetStatus records a status transition, broadcasts it to live-channel
// subscribers, and mirrors it onto the bus for other services.
func (s *Service) SetStatus(ctx context.Context, roomID string, req *models.SetStatusRequest, actor string) (*models.StatusUpdate, error) {
	if req.Status == "" {
		return nil, ErrInvalidStatus
	}

	update := &models.StatusUpdate{
		RoomID: roomID,
		Status: req.Status,
		Actor:  actor,
		Note:   req.Note,
	}
	if err := s.repo.AppendStatus(ctx, update); err != nil {
		return nil, err
	}

	payload := models.StatusPayload{Status: update.Status, Actor: update.Actor, Note: update.Note}
	s.broadcastStatus(roomID, payload)

	if s.publisher != nil {
		env, err := models.StatusEnvelope(roomID, payload)
		if err == nil {
			if err := s.publisher.PublishJSON(ctx, messaging.RoomStatusSubject(roomID), env); err != nil {
				s.log.WarnContext(ctx, "failed to publish status", "room_id", roomID, "error", err)
			}
		}
	}

	return update, nil
}

// ApplyStatus persists and broadcasts a transition that arrived over the
// message bus. Unlike SetStatus it does not republish, so bus-originated
// updates cannot loop.
func (s *Service) ApplyStatus(ctx context.Context, roomID string, payload models.StatusPayload) error {
	if payload.Status == "" {
		return ErrInvalidStatus
	}

	update := &models.StatusUpdate{
		RoomID: roomID,
		Status: payload.Status,
		Actor:  payload.Actor,
		Note:   payload.Note,
	}
	if err := s.repo.AppendStatus(ctx, update); err != nil {
		return err
	}

	s.broadcastStatus(roomID, payload)
	return nil
}

func (s *Service) StatusHistory(ctx context.Context, roomID string, limit int) ([]*models.StatusUpdate, error) {
	return s.repo.StatusHistory(ctx, roomID, limit)
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// EnsureUser creates a user if it does not exist. Used to bootstrap the
// initial admin account from config.
func (s *Service) EnsureUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.repo.CreateUser(ctx, &models.User{Username: username, PasswordHash: string(hash)})
	if errors.Is(err, repository.ErrUserExists) {
		return nil
	}
	return err
}

// ValidateToken checks an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*tokens.Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) broadcastStatus(roomID string, payload models.StatusPayload) {
	if s.broadcaster == nil {
		return
	}
	env, err := models.StatusEnvelope(roomID, payload)
	if err != nil {
		s.log.Error("failed to build status envelope", "room_id", roomID, "error", err)
		return
	}
	s.broadcaster.Broadcast(roomID, env)
}

func (s *Service) announce(ctx context.Context, subject string, room *models.Room) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, subject, room); err != nil {
		s.log.WarnContext(ctx, "failed to publish room lifecycle event",
			"subject", subject, "room_id", room.ID, "error", err)
	}
}
