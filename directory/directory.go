package directory

import (
	"context"
	"errors"
	"sort"
)

// Provider tags how an identity was created. External identities carry the
// upstream provider name and no credential hash.
type Provider string

// ProviderCredentials marks identities created through direct registration.
const ProviderCredentials Provider = "CREDENTIALS"

// DefaultRoleName is attached to every created user.
const DefaultRoleName = "USER"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("directory record not found")
	// ErrDuplicate is returned when a create collides with an existing
	// unique email or username.
	ErrDuplicate = errors.New("directory record already exists")
)

// Permission defines a public type used by authcore APIs.
//
// Permission instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Permission struct {
	ID   int64
	Name string
}

// Role defines a public type used by authcore APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role struct {
	ID          int64
	Name        string
	Permissions []Permission
}

// User defines a public type used by authcore APIs.
//
// User instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type User struct {
	ID            int64
	Email         string
	Username      string
	Name          string
	PasswordHash  string
	Provider      Provider
	EmailVerified bool
	Image         string
	Coin          int64
	CreatedAt     int64
	UpdatedAt     int64
	Roles         []Role
}

// PermissionUnion returns the deduplicated union of permission names across
// all of the user's roles, sorted for stable output.
func (u *User) PermissionUnion() []string {
	seen := make(map[string]struct{})
	for _, role := range u.Roles {
		for _, perm := range role.Permissions {
			seen[perm.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithoutSecrets returns a copy of the user with the credential hash stripped.
func (u *User) WithoutSecrets() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

type findOptions struct {
	password    bool
	roles       bool
	permissions bool
}

// FindOption narrows or widens what a lookup loads.
type FindOption func(*findOptions)

// WithPassword includes the stored credential hash in the result.
func WithPassword() FindOption {
	return func(o *findOptions) { o.password = true }
}

// WithRoles includes the user's roles (names only) in the result.
func WithRoles() FindOption {
	return func(o *findOptions) { o.roles = true }
}

// WithPermissions includes roles and the permissions they grant.
func WithPermissions() FindOption {
	return func(o *findOptions) {
		o.roles = true
		o.permissions = true
	}
}

func applyFindOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository is the engine's view of user persistence.
type Repository interface {
	// FindByEmailOrUsername resolves a login slug: an exact email match or a
	// username containing the slug.
	FindByEmailOrUsername(ctx context.Context, slug string, opts ...FindOption) (*User, error)
	FindByID(ctx context.Context, id int64, opts ...FindOption) (*User, error)
	// Create persists the candidate and attaches the default role. The stored
	// record, with its assigned id and timestamps, is returned.
	Create(ctx context.Context, candidate *User) (*User, error)
	UpdatePassword(ctx context.Context, email, hash string) error
	MarkEmailVerified(ctx context.Context, email string) error
	Delete(ctx context.Context, id int64) error
	ListRoles(ctx context.Context, nameFilter string) ([]Role, error)
}
