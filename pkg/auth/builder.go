package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPrincipalNotFound is returned when no user exists for an identity
var ErrPrincipalNotFound = errors.New("principal not found")

// Start node types stored in user_start_nodes.node_type
const (
	StartNodeContent = "content"
	StartNodeMedia   = "media"
)

// PrincipalBuilder constructs a fresh principal for an identity
type PrincipalBuilder interface {
	BuildPrincipal(ctx context.Context, identity string) (*Principal, error)
}

// SQLPrincipalBuilder builds principals from the user tables
type SQLPrincipalBuilder struct {
	db *sql.DB
}

// NewSQLPrincipalBuilder creates a principal builder backed by db
func NewSQLPrincipalBuilder(db *sql.DB) *SQLPrincipalBuilder {
	return &SQLPrincipalBuilder{db: db}
}

// BuildPrincipal loads the user identified by its key together with its
// groups, sections and start nodes
func (b *SQLPrincipalBuilder) BuildPrincipal(ctx context.Context, identity string) (*Principal, error) {
	key, err := uuid.Parse(identity)
	if err != nil {
		return nil, fmt.Errorf("invalid identity %q: %w", identity, ErrPrincipalNotFound)
	}

	p := &Principal{Key: key}
	err = b.db.QueryRowContext(ctx, `
		SELECT id, username, is_approved, is_locked_out
		FROM users
		WHERE user_key = $1
	`, key.String()).Scan(&p.UserID, &p.Username, &p.Approved, &p.LockedOut)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("identity %s: %w", identity, ErrPrincipalNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if p.Groups, err = b.queryStrings(ctx, `
		SELECT g.alias
		FROM user_groups g
		JOIN user_group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.alias
	`, p.UserID); err != nil {
		return nil, fmt.Errorf("failed to query user groups: %w", err)
	}
	p.Admin = p.InGroup(AdminGroup)

	if p.AllowedSections, err = b.queryStrings(ctx, `
		SELECT DISTINCT s.section
		FROM user_group_sections s
		JOIN user_group_members m ON m.group_id = s.group_id
		WHERE m.user_id = $1
		ORDER BY s.section
	`, p.UserID); err != nil {
		return nil, fmt.Errorf("failed to query user sections: %w", err)
	}

	if err := b.loadStartNodes(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to query start nodes: %w", err)
	}

	return p, nil
}

func (b *SQLPrincipalBuilder) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (b *SQLPrincipalBuilder) loadStartNodes(ctx context.Context, p *Principal) error {
	rows, err := b.db.QueryContext(ctx, `
		SELECT node_id, node_type
		FROM user_start_nodes
		WHERE user_id = $1
		ORDER BY node_id
	`, p.UserID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			nodeID   int64
			nodeType string
		)
		if err := rows.Scan(&nodeID, &nodeType); err != nil {
			return err
		}
		switch nodeType {
		case StartNodeContent:
			p.ContentStartNodes = append(p.ContentStartNodes, nodeID)
		case StartNodeMedia:
			p.MediaStartNodes = append(p.MediaStartNodes, nodeID)
		}
	}
	return rows.Err()
}
