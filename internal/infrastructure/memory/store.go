// Package memory keeps users, roles and their associations in process memory.
// It backs STORAGE_DRIVER=memory for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
)

type Store struct {
	mu        sync.RWMutex
	users     map[int64]entity.User
	roles     map[int64]entity.Role
	userRoles map[int64]map[int64]struct{}
	nextUser  int64
	nextRole  int64
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]entity.User),
		roles:     make(map[int64]entity.Role),
		userRoles: make(map[int64]map[int64]struct{}),
	}
}

func (s *Store) Users() *UserRepository         { return &UserRepository{s: s} }
func (s *Store) Roles() *RoleRepository         { return &RoleRepository{s: s} }
func (s *Store) UserRoles() *UserRoleRepository { return &UserRoleRepository{s: s} }

// AddRole inserts a role, or returns the existing one with the same name.
func (s *Store) AddRole(name string) entity.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return r
		}
	}
	s.nextRole++
	now := time.Now()
	r := entity.Role{ID: s.nextRole, Name: name, CreatedAt: now, UpdatedAt: now}
	s.roles[r.ID] = r
	return r
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Paginate(_ context.Context, page, perPage int) (entity.Page[entity.User], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	res := entity.Page[entity.User]{Items: []entity.User{}, Total: int64(len(ids)), PerPage: perPage, CurrentPage: page}
	start := (page - 1) * perPage
	if start < 0 || start >= len(ids) {
		return res, nil
	}
	end := start + perPage
	if end > len(ids) {
		end = len(ids)
	}
	for _, id := range ids[start:end] {
		res.Items = append(res.Items, r.s.users[id])
	}
	return res, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// emailTaken must be called with the lock held.
func (r *UserRepository) emailTaken(email string, except int64) bool {
	for id, u := range r.s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, 0) {
		return repository.ErrConflict
	}
	r.s.nextUser++
	now := time.Now()
	u.ID = r.s.nextUser
	u.CreatedAt = now
	u.UpdatedAt = now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repository.ErrConflict
	}
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.userRoles, id)
	return nil
}

type RoleRepository struct{ s *Store }

func (r *RoleRepository) FindByID(_ context.Context, id int64) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *RoleRepository) All(_ context.Context) ([]entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type UserRoleRepository struct{ s *Store }

func (r *UserRoleRepository) Assign(_ context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	set, ok := r.s.userRoles[userID]
	if !ok {
		set = make(map[int64]struct{})
		r.s.userRoles[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}

func (r *UserRoleRepository) Sync(_ context.Context, userID int64, roleIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	set := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := r.s.roles[id]; !ok {
			return repository.ErrNotFound
		}
		set[id] = struct{}{}
	}
	r.s.userRoles[userID] = set
	return nil
}

func (r *UserRoleRepository) Detach(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.userRoles, userID)
	return nil
}

func (r *UserRoleRepository) RolesOf(_ context.Context, userID int64) ([]entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.Role{}
	for id := range r.s.userRoles[userID] {
		if role, ok := r.s.roles[id]; ok {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.RoleRepository     = (*RoleRepository)(nil)
	_ repository.UserRoleRepository = (*UserRoleRepository)(nil)
)
