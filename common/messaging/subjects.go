package messaging

// Subject constants for the Parley message bus.
// Pattern: {domain}.{action}.{resource}
const (
	// SubjectRoomsStatus is the prefix for status transitions; append
	// ".{room_id}" for a specific room.
	SubjectRoomsStatus = "rooms.status"

	// SubjectRoomsStatusAll is the wildcard the hub subscribes to for
	// status transitions from every room.
	SubjectRoomsStatusAll = "rooms.status.>"

	// SubjectRoomsCreated and SubjectRoomsArchived announce room lifecycle
	// changes for interested services.
	SubjectRoomsCreated  = "rooms.lifecycle.created"
	SubjectRoomsArchived = "rooms.lifecycle.archived"
)

// Queue group names for load-balanced consumers.
const (
	// QueueHubWorkers is shared by hub instances so each status transition
	// is persisted exactly once even when multiple hubs run.
	QueueHubWorkers = "hub-workers"
)

// RoomStatusSubject returns the subject carrying one room's status
// transitions. Example: rooms.status.9f3c21aa
func RoomStatusSubject(roomID string) string {
	return SubjectRoomsStatus + "." + roomID
}
