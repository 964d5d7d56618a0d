package events

import (
	"github.com/google/uuid"
)

// Category identifies the topic of an outbound event (the "event source").
// Categories are the unit of authorization and of transport group membership.
type Category string

const (
	CategoryDocument          Category = "Document"
	CategoryDocumentBlueprint Category = "DocumentBlueprint"
	CategoryDocumentType      Category = "DocumentType"
	CategoryMedia             Category = "Media"
	CategoryMediaType         Category = "MediaType"
	CategoryMember            Category = "Member"
	CategoryMemberType        Category = "MemberType"
	CategoryMemberGroup       Category = "MemberGroup"
	CategoryDataType          Category = "DataType"
	CategoryDictionary        Category = "Dictionary"
	CategoryLanguage          Category = "Language"
	CategoryScript            Category = "Script"
	CategoryStylesheet        Category = "Stylesheet"
	CategoryTemplate          Category = "Template"
	CategoryPartialView       Category = "PartialView"
	CategoryRelationType      Category = "RelationType"
	CategoryUser              Category = "User"
	CategoryUserGroup         Category = "UserGroup"
	CategoryCurrentUser       Category = "CurrentUser" // self-only
	CategoryWebhook           Category = "Webhook"
	CategoryPublicAccess      Category = "PublicAccess"
)

// allCategories is the vocabulary in a fixed order.
var allCategories = []Category{
	CategoryDocument,
	CategoryDocumentBlueprint,
	CategoryDocumentType,
	CategoryMedia,
	CategoryMediaType,
	CategoryMember,
	CategoryMemberType,
	CategoryMemberGroup,
	CategoryDataType,
	CategoryDictionary,
	CategoryLanguage,
	CategoryScript,
	CategoryStylesheet,
	CategoryTemplate,
	CategoryPartialView,
	CategoryRelationType,
	CategoryUser,
	CategoryUserGroup,
	CategoryCurrentUser,
	CategoryWebhook,
	CategoryPublicAccess,
}

// AllCategories returns every category in the vocabulary
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is part of the vocabulary
func (c Category) Valid() bool {
	_, ok := groupNames[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// EventType is the kind of change an event reports
type EventType string

const (
	EventCreated EventType = "Created"
	EventUpdated EventType = "Updated"
	EventDeleted EventType = "Deleted"
	EventTrashed EventType = "Trashed"
)

// Valid reports whether t is one of the four event types
func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted, EventTrashed:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// Event is the outbound notification sent to clients. Clients key their
// invalidation logic off (EventSource, EventType, Key), so the JSON form is
// a stable contract.
//
// Key is always the external identifier of the entity, never an internal
// numeric id.
type Event struct {
	EventType   EventType `json:"eventType"`
	EventSource Category  `json:"eventSource"`
	Key         uuid.UUID `json:"key"`
}

// New creates an event
func New(eventType EventType, source Category, key uuid.UUID) Event {
	return Event{
		EventType:   eventType,
		EventSource: source,
		Key:         key,
	}
}
