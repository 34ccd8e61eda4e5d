package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-systems/parley-stack/common/messaging"
	"github.com/parley-systems/parley-stack/hub/internal/models"
	"github.com/parley-systems/parley-stack/hub/internal/repository"
	"github.com/parley-systems/parley-stack/hub/pkg/tokens"
)

type recordedBroadcast struct {
	roomID string
	env    *models.Envelope
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []recordedBroadcast
}

func (b *fakeBroadcaster) Broadcast(roomID string, env *models.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, recordedBroadcast{roomID: roomID, env: env})
}

func (b *fakeBroadcaster) broadcasts() []recordedBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedBroadcast, len(b.calls))
	copy(out, b.calls)
	return out
}

type publishedMessage struct {
	subject string
	payload interface{}
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedMessage{subject: subject, payload: data})
	return nil
}

func (p *fakePublisher) PublishJSON(ctx context.Context, subject string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedMessage{subject: subject, payload: v})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedMessage, len(p.published))
	copy(out, p.published)
	return out
}

func newTestService(t *testing.T) (*Service, *fakeBroadcaster, *fakePublisher) {
	t.Helper()
	repo := repository.NewInMemoryRepository()
	tg := tokens.NewGenerator("test-secret", 15*time.Minute)
	svc := NewService(repo, tg, nil)

	b := &fakeBroadcaster{}
	p := &fakePublisher{}
	svc.SetBroadcaster(b)
	svc.SetPublisher(p)
	return svc, b, p
}

func createRoom(t *testing.T, svc *Service, name string) *models.Room {
	t.Helper()
	room, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: name}, "tester")
	require.NoError(t, err)
	return room
}

func TestCreateRoom(t *testing.T) {
	svc, _, pub := newTestService(t)

	room := createRoom(t, svc, "standup")
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, models.RoomStatusIdle, room.Status)
	assert.Equal(t, "tester", room.CreatedBy)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.SubjectRoomsCreated, msgs[0].subject)
}

func TestCreateRoomRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{}, "tester")
	assert.ErrorIs(t, err, ErrInvalidRoomName)
}

func TestSetStatusPersistsBroadcastsAndPublishes(t *testing.T) {
	svc, b, pub := newTestService(t)
	room := createRoom(t, svc, "standup")

	update, err := svc.SetStatus(context.Background(), room.ID, &models.SetStatusRequest{
		Status: models.RoomStatusActive,
		Note:   "kicking off",
	}, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusActive, update.Status)
	assert.Equal(t, "alice", update.Actor)

	got, err := svc.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusActive, got.Status)

	casts := b.broadcasts()
	require.Len(t, casts, 1)
	assert.Equal(t, room.ID, casts[0].roomID)
	assert.Equal(t, models.KindStatusUpdate, casts[0].env.Kind)
	assert.Equal(t, models.EnvelopeVersion, casts[0].env.Version)

	msgs := pub.messages()
	require.Len(t, msgs, 2) // lifecycle + status
	assert.Equal(t, messaging.RoomStatusSubject(room.ID), msgs[1].subject)
}

func TestSetStatusValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	room := createRoom(t, svc, "standup")

	_, err := svc.SetStatus(context.Background(), room.ID, &models.SetStatusRequest{}, "alice")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(context.Background(), "missing", &models.SetStatusRequest{Status: "active"}, "alice")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestApplyStatusDoesNotRepublish(t *testing.T) {
	svc, b, pub := newTestService(t)
	room := createRoom(t, svc, "standup")
	before := len(pub.messages())

	err := svc.ApplyStatus(context.Background(), room.ID, models.StatusPayload{
		Status: models.RoomStatusReviewing,
		Actor:  "bob",
	})
	require.NoError(t, err)

	got, err := svc.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusReviewing, got.Status)

	require.Len(t, b.broadcasts(), 1)
	assert.Len(t, pub.messages(), before, "bus-originated updates must not go back onto the bus")
}

func TestArchiveRoomBroadcastsClosed(t *testing.T) {
	svc, b, pub := newTestService(t)
	room := createRoom(t, svc, "standup")

	require.NoError(t, svc.ArchiveRoom(context.Background(), room.ID))

	got, err := svc.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived())
	assert.Equal(t, models.RoomStatusClosed, got.Status)

	casts := b.broadcasts()
	require.Len(t, casts, 1)
	assert.Equal(t, models.KindStatusUpdate, casts[0].env.Kind)

	var archived bool
	for _, msg := range pub.messages() {
		if msg.subject == messaging.SubjectRoomsArchived {
			archived = true
		}
	}
	assert.True(t, archived)

	// Archived rooms refuse further transitions.
	_, err = svc.SetStatus(context.Background(), room.ID, &models.SetStatusRequest{Status: "active"}, "alice")
	assert.ErrorIs(t, err, repository.ErrRoomArchived)
}

func TestListRoomsFiltersArchived(t *testing.T) {
	svc, _, _ := newTestService(t)
	open := createRoom(t, svc, "open")
	closed := createRoom(t, svc, "closed")
	require.NoError(t, svc.ArchiveRoom(context.Background(), closed.ID))

	rooms, err := svc.ListRooms(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, open.ID, rooms[0].ID)

	rooms, err = svc.ListRooms(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestStatusHistoryNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	room := createRoom(t, svc, "standup")

	for _, status := range []string{"active", "reviewing", "closed"} {
		_, err := svc.SetStatus(context.Background(), room.ID, &models.SetStatusRequest{Status: status}, "alice")
		require.NoError(t, err)
	}

	history, err := svc.StatusHistory(context.Background(), room.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "closed", history[0].Status)
	assert.Equal(t, "reviewing", history[1].Status)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.EnsureUser(context.Background(), "alice", "s3cret"))

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.EnsureUser(context.Background(), "alice", "s3cret"))

	_, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &models.LoginRequest{Username: "nobody", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.EnsureUser(context.Background(), "alice", "s3cret"))
	require.NoError(t, svc.EnsureUser(context.Background(), "alice", "different"))

	// The original password still works.
	_, err := svc.Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "s3cret"})
	assert.NoError(t, err)
}
