package auth

import (
	"github.com/google/uuid"
)

// AdminGroup is the group alias that grants access to every policy
const AdminGroup = "admin"

// Principal is a resolved identity and the claims used for authorization
type Principal struct {
	Key               uuid.UUID `json:"key"`
	UserID            int64     `json:"userId"`
	Username          string    `json:"username"`
	Groups            []string  `json:"groups"`
	AllowedSections   []string  `json:"allowedSections"`
	ContentStartNodes []int64   `json:"contentStartNodes"`
	MediaStartNodes   []int64   `json:"mediaStartNodes"`
	Approved          bool      `json:"approved"`
	LockedOut         bool      `json:"lockedOut"`
	Admin             bool      `json:"admin"`
}

// Identity returns the stable identity key the connection registry and the
// principal builder use
func (p *Principal) Identity() string {
	return p.Key.String()
}

// Active reports whether the account may use the back office at all
func (p *Principal) Active() bool {
	return p.Approved && !p.LockedOut
}

// HasSection reports whether one of the principal's groups grants section
func (p *Principal) HasSection(section string) bool {
	for _, s := range p.AllowedSections {
		if s == section {
			return true
		}
	}
	return false
}

// InGroup reports whether the principal is a member of the group alias
func (p *Principal) InGroup(alias string) bool {
	for _, g := range p.Groups {
		if g == alias {
			return true
		}
	}
	return false
}
