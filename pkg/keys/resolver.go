package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no node has the id and kind
var ErrNotFound = errors.New("key not found")

// ObjectKind is the node object type stored alongside each node
type ObjectKind string

const (
	KindDocument ObjectKind = "c66ba18e-eaf3-4cff-8a22-41b16d66a972"
	KindMedia    ObjectKind = "b796f64c-1f99-4ffb-b886-4bf4bc011a9c"
	KindMember   ObjectKind = "39eb0f98-b348-42a1-8662-e7eb18487560"
)

// Resolver resolves an internal id to its external key
type Resolver interface {
	ResolveKey(ctx context.Context, id int64, kind ObjectKind) (uuid.UUID, error)
}

// SQLResolver looks keys up in the nodes table
type SQLResolver struct {
	db *sql.DB
}

// NewSQLResolver creates a resolver backed by db
func NewSQLResolver(db *sql.DB) *SQLResolver {
	return &SQLResolver{db: db}
}

// ResolveKey implements Resolver
func (r *SQLResolver) ResolveKey(ctx context.Context, id int64, kind ObjectKind) (uuid.UUID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT unique_id FROM nodes WHERE id = $1 AND node_object_type = $2`,
		id, string(kind),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to query node %d: %w", id, err)
	}

	key, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("node %d has invalid key %q: %w", id, raw, err)
	}
	return key, nil
}
