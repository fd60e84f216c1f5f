package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is a thread-safe in-memory [Repository] for tests and the
// wiring example. It seeds the default role on construction.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]*User
	roles  map[string]*Role
	nextID int64
	now    func() time.Time
}

// NewMemoryRepository describes the newmemoryrepository operation and its observable behavior.
//
// NewMemoryRepository does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[int64]*User),
		roles: map[string]*Role{
			DefaultRoleName: {ID: 1, Name: DefaultRoleName},
		},
		nextID: 1,
		now:    time.Now,
	}
}

// SeedRole registers an additional role with its permissions.
func (r *MemoryRepository) SeedRole(name string, permissions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := &Role{ID: int64(len(r.roles) + 1), Name: name}
	for i, perm := range permissions {
		role.Permissions = append(role.Permissions, Permission{ID: int64(i + 1), Name: perm})
	}
	r.roles[name] = role
}

func cloneUser(u *User, o findOptions) *User {
	clone := *u
	clone.Roles = nil
	if !o.password {
		clone.PasswordHash = ""
	}
	if o.roles {
		for _, role := range u.Roles {
			roleCopy := Role{ID: role.ID, Name: role.Name}
			if o.permissions {
				roleCopy.Permissions = append([]Permission(nil), role.Permissions...)
			}
			clone.Roles = append(clone.Roles, roleCopy)
		}
	}
	return &clone
}

// FindByEmailOrUsername describes the findbyemailorusername operation and its observable behavior.
//
// FindByEmailOrUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByEmailOrUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) FindByEmailOrUsername(ctx context.Context, slug string, opts ...FindOption) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o := applyFindOptions(opts)

	// Exact email match wins over a username containing the slug.
	for _, user := range r.users {
		if user.Email == slug {
			return cloneUser(user, o), nil
		}
	}
	for _, user := range r.users {
		if user.Username != "" && strings.Contains(user.Username, slug) {
			return cloneUser(user, o), nil
		}
	}
	return nil, ErrNotFound
}

// FindByID describes the findbyid operation and its observable behavior.
//
// FindByID may return an error when input validation, dependency calls, or security checks fail.
// FindByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) FindByID(ctx context.Context, id int64, opts ...FindOption) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user, applyFindOptions(opts)), nil
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) Create(ctx context.Context, candidate *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == candidate.Email {
			return nil, ErrDuplicate
		}
		if candidate.Username != "" && user.Username == candidate.Username {
			return nil, ErrDuplicate
		}
	}

	now := r.now().UnixMilli()
	stored := *candidate
	stored.ID = r.nextID
	r.nextID++
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Provider == "" {
		stored.Provider = ProviderCredentials
	}

	defaultRole := r.roles[DefaultRoleName]
	stored.Roles = []Role{*defaultRole}

	r.users[stored.ID] = &stored

	result := stored
	result.Roles = append([]Role(nil), stored.Roles...)
	return &result, nil
}

// UpdatePassword describes the updatepassword operation and its observable behavior.
//
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
// UpdatePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) UpdatePassword(ctx context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			user.PasswordHash = hash
			user.UpdatedAt = r.now().UnixMilli()
			return nil
		}
	}
	return ErrNotFound
}

// MarkEmailVerified describes the markemailverified operation and its observable behavior.
//
// MarkEmailVerified may return an error when input validation, dependency calls, or security checks fail.
// MarkEmailVerified does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) MarkEmailVerified(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			user.EmailVerified = true
			user.UpdatedAt = r.now().UnixMilli()
			return nil
		}
	}
	return ErrNotFound
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// ListRoles describes the listroles operation and its observable behavior.
//
// ListRoles may return an error when input validation, dependency calls, or security checks fail.
// ListRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *MemoryRepository) ListRoles(ctx context.Context, nameFilter string) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowered := strings.ToLower(nameFilter)
	var roles []Role
	for _, role := range r.roles {
		if nameFilter != "" && !strings.Contains(strings.ToLower(role.Name), lowered) {
			continue
		}
		roleCopy := *role
		roleCopy.Permissions = append([]Permission(nil), role.Permissions...)
		roles = append(roles, roleCopy)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}
