// Package nats bridges bus-originated status transitions into the hub.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/parley-systems/parley-stack/common/logging"
	"github.com/parley-systems/parley-stack/common/messaging"
	"github.com/parley-systems/parley-stack/hub/internal/metrics"
	"github.com/parley-systems/parley-stack/hub/internal/models"
	"github.com/parley-systems/parley-stack/hub/internal/repository"
	"github.com/parley-systems/parley-stack/hub/internal/service"
)

// StatusSubscriber consumes rooms.status.> and applies each transition to
// the hub. Hub instances share a queue group so a transition is persisted
// exactly once.
type StatusSubscriber struct {
	client  messaging.Client
	service *service.Service
	log     *logging.Logger
	sub     messaging.Subscription
}

func NewStatusSubscriber(client messaging.Client, svc *service.Service, log *logging.Logger) *StatusSubscriber {
	if log == nil {
		log = logging.Default()
	}
	return &StatusSubscriber{
		client:  client,
		service: svc,
		log:     log,
	}
}

// Start subscribes to the status subject wildcard.
func (s *StatusSubscriber) Start() error {
	sub, err := s.client.QueueSubscribe(messaging.SubjectRoomsStatusAll, messaging.QueueHubWorkers, s.handleStatus)
	if err != nil {
		return err
	}
	s.sub = sub
	s.log.Info("subscribed to status transitions", "subject", messaging.SubjectRoomsStatusAll)
	return nil
}

// Stop unsubscribes.
func (s *StatusSubscriber) Stop() error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}

func (s *StatusSubscriber) handleStatus(ctx context.Context, msg *messaging.Message) error {
	var env models.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		s.log.Warn("dropping malformed status message", "subject", msg.Subject, "error", err)
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "malformed").Inc()
		return nil
	}

	if env.Kind != models.KindStatusUpdate {
		// Other kinds on this subject are not ours to process.
		return nil
	}

	// Some publishers only fill the subject.
	if env.RoomID == "" {
		env.RoomID = roomIDFromSubject(msg.Subject)
	}

	if err := env.Validate(); err != nil {
		s.log.Warn("dropping invalid envelope", "subject", msg.Subject, "error", err)
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "invalid").Inc()
		return nil
	}
	roomID := env.RoomID

	var payload models.StatusPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.log.Warn("dropping envelope with bad payload", "subject", msg.Subject, "error", err)
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "malformed").Inc()
		return nil
	}

	err := s.service.ApplyStatus(ctx, roomID, payload)
	switch {
	case err == nil:
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "ok").Inc()
		return nil
	case errors.Is(err, repository.ErrRoomNotFound), errors.Is(err, repository.ErrRoomArchived):
		// Not retryable; log and move on.
		s.log.Warn("status transition rejected", "room_id", roomID, "error", err)
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "rejected").Inc()
		return nil
	default:
		metrics.StatusUpdatesTotal.WithLabelValues("nats", "error").Inc()
		return err
	}
}

// roomIDFromSubject extracts the room ID from a rooms.status.{id} subject.
func roomIDFromSubject(subject string) string {
	if rest, ok := strings.CutPrefix(subject, messaging.SubjectRoomsStatus+"."); ok {
		return rest
	}
	return ""
}
