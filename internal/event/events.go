package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

// Event is anything the core publishes on the bus.
type Event interface {
	ID() string
	OccurredAt() time.Time
	Message() string
}

type BaseEvent struct {
	id   string
	at   time.Time
	text string
}

// Text builds the base of a new event with a human-readable message.
func Text(message string) BaseEvent {
	return BaseEvent{
		id:   uuid.NewString(),
		at:   time.Now(),
		text: message,
	}
}

func (b BaseEvent) ID() string            { return b.id }
func (b BaseEvent) OccurredAt() time.Time { return b.at }
func (b BaseEvent) Message() string       { return b.text }

// ItemAcquiredEvent fires when an item newly enters the player's possession.
type ItemAcquiredEvent struct {
	BaseEvent
	Item item.ID
}

func ItemAcquired(be BaseEvent, id item.ID) ItemAcquiredEvent {
	return ItemAcquiredEvent{BaseEvent: be, Item: id}
}

// GroundItemSeenEvent fires when an item owned by the player spawns on the
// ground.
type GroundItemSeenEvent struct {
	BaseEvent
	Item item.ID
}

func GroundItemSeen(be BaseEvent, id item.ID) GroundItemSeenEvent {
	return GroundItemSeenEvent{BaseEvent: be, Item: id}
}

// RollCompletedEvent fires after a roll commits its unlock.
type RollCompletedEvent struct {
	BaseEvent
	Trigger  item.ID // zero for manual rolls
	Unlocked item.ID
	Manual   bool
}

func RollCompleted(be BaseEvent, trigger, unlocked item.ID, manual bool) RollCompletedEvent {
	return RollCompletedEvent{BaseEvent: be, Trigger: trigger, Unlocked: unlocked, Manual: manual}
}

// ProfileActivatedEvent fires when a player profile becomes active.
type ProfileActivatedEvent struct {
	BaseEvent
	Profile string
}

func ProfileActivated(be BaseEvent, profile string) ProfileActivatedEvent {
	return ProfileActivatedEvent{BaseEvent: be, Profile: profile}
}

// ProfileDeactivatedEvent fires when the active profile goes away.
type ProfileDeactivatedEvent struct {
	BaseEvent
	Profile string
}

func ProfileDeactivated(be BaseEvent, profile string) ProfileDeactivatedEvent {
	return ProfileDeactivatedEvent{BaseEvent: be, Profile: profile}
}

// ConfigReloadedEvent fires after the configuration is reloaded, triggering
// eligibility rebuilds in subscribers.
type ConfigReloadedEvent struct {
	BaseEvent
}

func ConfigReloaded(be BaseEvent) ConfigReloadedEvent {
	return ConfigReloadedEvent{BaseEvent: be}
}
