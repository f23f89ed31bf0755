package directory

import "context"

// Store bundles the lookup collaborators the workflow engine depends on.
type Store interface {
	Users() UserStore
	Products() ProductStore
	Components() ComponentStore
	Locations() LocationStore
}

// UserStore manages workshop accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}

// ProductStore manages products under repair.
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Find(ctx context.Context, id string) (*Product, error)
	FindByQR(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
}

// ComponentStore manages stocked parts.
type ComponentStore interface {
	Create(ctx context.Context, c *Component) error
	Find(ctx context.Context, id string) (*Component, error)
	FindByQR(ctx context.Context, code string) (*Component, error)
	List(ctx context.Context) ([]*Component, error)
}

// LocationStore manages shelf locations.
type LocationStore interface {
	Create(ctx context.Context, l *ShelfLocation) error
	Find(ctx context.Context, id string) (*ShelfLocation, error)
	FindByQR(ctx context.Context, code string) (*ShelfLocation, error)
}
