// Package memory provides in-process implementations of the persistence
// interfaces, used by tests and the no-database dev mode. Semantics mirror
// the Postgres store, including the conditional-update contracts.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/ids"
)

// Directory implements directory.Store with mutex-guarded maps.
type Directory struct {
	mu         sync.RWMutex
	users      map[string]*directory.User
	products   map[string]*directory.Product
	components map[string]*directory.Component
	locations  map[string]*directory.ShelfLocation
}

var _ directory.Store = (*Directory)(nil)

// NewDirectory creates an empty directory store.
func NewDirectory() *Directory {
	return &Directory{
		users:      make(map[string]*directory.User),
		products:   make(map[string]*directory.Product),
		components: make(map[string]*directory.Component),
		locations:  make(map[string]*directory.ShelfLocation),
	}
}

func (d *Directory) Users() directory.UserStore           { return (*userStore)(d) }
func (d *Directory) Products() directory.ProductStore     { return (*productStore)(d) }
func (d *Directory) Components() directory.ComponentStore { return (*componentStore)(d) }
func (d *Directory) Locations() directory.LocationStore   { return (*locationStore)(d) }

// Users ---------------------------------------------------------------------

type userStore Directory

func (s *userStore) Create(ctx context.Context, u *directory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = ids.New()
	}
	if _, ok := s.users[u.ID]; ok {
		return directory.ErrAlreadyExists
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *userStore) List(ctx context.Context) ([]*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*directory.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *userStore) UpdateRole(ctx context.Context, id string, role directory.Role) error {
	if !role.Valid() {
		return directory.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return directory.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Products ------------------------------------------------------------------

type productStore Directory

func (s *productStore) Create(ctx context.Context, p *directory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	if _, ok := s.products[p.ID]; ok {
		return directory.ErrAlreadyExists
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *productStore) Find(ctx context.Context, id string) (*directory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *productStore) FindByQR(ctx context.Context, code string) (*directory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.QRCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *productStore) List(ctx context.Context) ([]*directory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*directory.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Components ----------------------------------------------------------------

type componentStore Directory

func (s *componentStore) Create(ctx context.Context, c *directory.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	if _, ok := s.components[c.ID]; ok {
		return directory.ErrAlreadyExists
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	s.components[c.ID] = &cp
	return nil
}

func (s *componentStore) Find(ctx context.Context, id string) (*directory.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *componentStore) FindByQR(ctx context.Context, code string) (*directory.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.components {
		if c.QRCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *componentStore) List(ctx context.Context) ([]*directory.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*directory.Component, 0, len(s.components))
	for _, c := range s.components {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// Shelf locations -----------------------------------------------------------

type locationStore Directory

func (s *locationStore) Create(ctx context.Context, l *directory.ShelfLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = ids.New()
	}
	if _, ok := s.locations[l.ID]; ok {
		return directory.ErrAlreadyExists
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	cp := *l
	s.locations[l.ID] = &cp
	return nil
}

func (s *locationStore) Find(ctx context.Context, id string) (*directory.ShelfLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *locationStore) FindByQR(ctx context.Context, code string) (*directory.ShelfLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if l.QRCode == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, directory.ErrNotFound
}
