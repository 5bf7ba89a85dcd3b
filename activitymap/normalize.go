// Package activitymap flattens account activity events into a
// transport-agnostic record for downstream consumers.
package activitymap

import (
	"strings"
	"time"

	auth "github.com/goliatone/go-tours-auth"
)

const (
	// MetadataKeyActorType stores the actor type derived from auth.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromState stores the source account state for lifecycle transitions.
	MetadataKeyFromState = "from_state"
	// MetadataKeyToState stores the target account state for lifecycle transitions.
	MetadataKeyToState = "to_state"
)

const (
	defaultChannel    = "accounts"
	defaultObjectType = "account"
	defaultActorID    = "system"
)

// Record is the normalized activity shape published to brokers.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
	objectID      func(auth.ActivityEvent) string
}

// Normalize converts an auth.ActivityEvent into a Record. The source
// event metadata is never mutated.
func Normalize(event auth.ActivityEvent, opts ...Option) Record {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	objectID := strings.TrimSpace(event.AccountID)
	if o.objectID != nil {
		objectID = strings.TrimSpace(o.objectID(event))
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Record{
		ActorID: firstNonEmpty(
			strings.TrimSpace(event.Actor.ID),
			strings.TrimSpace(event.AccountID),
			o.actorFallback,
		),
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		ObjectID:   objectID,
		Channel:    o.channel,
		Metadata:   metadataFor(event),
		OccurredAt: occurredAt,
	}
}

// WithChannel sets the channel for normalized records.
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides the default object id, the account id.
func WithObjectIDResolver(resolver func(auth.ActivityEvent) string) Option {
	return func(o *options) {
		o.objectID = resolver
	}
}

// WithActorFallback sets the actor id used when the event names neither an
// actor nor an account.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		if actorID = strings.TrimSpace(actorID); actorID != "" {
			o.actorFallback = actorID
		}
	}
}

func metadataFor(event auth.ActivityEvent) map[string]any {
	metadata := make(map[string]any, len(event.Metadata)+3)
	for key, value := range event.Metadata {
		metadata[key] = value
	}

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			metadata[MetadataKeyActorType] = actorType
		}
	}

	if event.FromState != "" {
		metadata[MetadataKeyFromState] = string(event.FromState)
	}

	if event.ToState != "" {
		metadata[MetadataKeyToState] = string(event.ToState)
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
