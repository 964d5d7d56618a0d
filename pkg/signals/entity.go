package signals

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity is the part of a changed entity herald needs
type Entity interface {
	Key() uuid.UUID
	CreateDate() time.Time
	UpdateDate() time.Time
}

// Record is the generic entity carried by a signal
type Record struct {
	EntityKey     uuid.UUID `json:"key"`
	ID            int64     `json:"id,omitempty"`
	CreatedAt     time.Time `json:"createDate"`
	LastUpdatedAt time.Time `json:"updateDate"`
}

func (r Record) Key() uuid.UUID        { return r.EntityKey }
func (r Record) CreateDate() time.Time { return r.CreatedAt }
func (r Record) UpdateDate() time.Time { return r.LastUpdatedAt }

// NodeID returns the internal id, zero when the sender left it out
func (r Record) NodeID() int64 { return r.ID }

// UserRecord is a saved or deleted back-office user. The key is the user's
// identity.
type UserRecord struct {
	Record
	Username string `json:"username,omitempty"`
}

// PublicAccessEntry restricts anonymous access to a document. The protected
// document is referenced by its internal id.
type PublicAccessEntry struct {
	Record
	ProtectedNodeID int64 `json:"protectedNodeId"`
}

// ProtectedNode returns the internal id of the protected document
func (e PublicAccessEntry) ProtectedNode() int64 { return e.ProtectedNodeID }

// DecodeEntities decodes the JSON entity list of a signal into the entity
// shape that signal carries
func DecodeEntities(name Name, data []byte) ([]Entity, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("unknown signal %q", name)
	}

	switch name {
	case PublicAccessEntrySaved, PublicAccessEntryDeleted:
		return decode[PublicAccessEntry](data)
	case UserSaved, UserDeleted:
		return decode[UserRecord](data)
	default:
		return decode[Record](data)
	}
}

func decode[T Entity](data []byte) ([]Entity, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	entities := make([]Entity, 0, len(items))
	for i, item := range items {
		if item.Key() == uuid.Nil {
			return nil, fmt.Errorf("entity %d has no key", i)
		}
		entities = append(entities, item)
	}
	return entities, nil
}
