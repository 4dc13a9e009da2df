// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role is the closed set of caller roles recognized at the API boundary.
type Role string

const (
	// RoleAdmin is the back-office operator role.
	RoleAdmin Role = "admin"
	// RoleChef is the master craftsman Pro account role.
	RoleChef Role = "chef"
	// RoleAzubi is the apprentice Pro account role.
	RoleAzubi Role = "azubi"
	// RolePartner is the affiliate partner role.
	RolePartner Role = "partner"
)

// ParseRole validates a raw role claim against the closed enumeration.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleChef, RoleAzubi, RolePartner:
		return Role(raw), true
	}
	return "", false
}

// IsProfessional reports whether the role belongs to a craftsman Pro account.
func (r Role) IsProfessional() bool {
	return r == RoleChef || r == RoleAzubi
}

// Identity represents the authenticated caller as resolved by the auth
// middleware. Core services receive this value explicitly and never read
// ambient request state.
type Identity interface {
	// CandidateID returns the authenticated candidate's ID.
	CandidateID() uuid.UUID
	// Role returns the caller's role.
	Role() Role
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	candidateID   uuid.UUID
	role          Role
	authenticated bool
}

func (i *identity) CandidateID() uuid.UUID { return i.candidateID }
func (i *identity) Role() Role             { return i.role }
func (i *identity) IsAuthenticated() bool  { return i.authenticated }

// NewIdentity builds an authenticated Identity. Intended for the auth
// middleware and for tests that exercise service-level authorization.
func NewIdentity(candidateID uuid.UUID, role Role) Identity {
	return &identity{candidateID: candidateID, role: role, authenticated: true}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if caller info is not present.
func GetIdentity(c *gin.Context) Identity {
	candidateID, idOK := c.Get(ContextCandidateIDKey)
	role, roleOK := c.Get(ContextRoleKey)

	if !idOK || !roleOK {
		return &identity{}
	}

	cid, ok := candidateID.(uuid.UUID)
	if !ok {
		return &identity{}
	}
	r, ok := role.(Role)
	if !ok {
		return &identity{}
	}

	return &identity{candidateID: cid, role: r, authenticated: true}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
