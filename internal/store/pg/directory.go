package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/ids"
)

// Directory returns the lookup stores backed by this pool.
func (s *Store) Directory() directory.Store { return &pgDirectory{db: s.db} }

type pgDirectory struct{ db *sql.DB }

var _ directory.Store = (*pgDirectory)(nil)

func (d *pgDirectory) Users() directory.UserStore           { return &userStore{db: d.db} }
func (d *pgDirectory) Products() directory.ProductStore     { return &productStore{db: d.db} }
func (d *pgDirectory) Components() directory.ComponentStore { return &componentStore{db: d.db} }
func (d *pgDirectory) Locations() directory.LocationStore   { return &locationStore{db: d.db} }

// Users ---------------------------------------------------------------------

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *directory.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, first_name, last_name, role, created_at, updated_at)
		 values($1,$2,$3,$4,nullif($5,''),$6,$7)`,
		u.ID, u.Email, u.FirstName, u.LastName, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*directory.User, error) {
	return s.findBy(ctx, `id=$1`, id)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*directory.User, error) {
	return s.findBy(ctx, `lower(email)=lower($1)`, email)
}

func (s *userStore) findBy(ctx context.Context, where, arg string) (*directory.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, first_name, last_name, coalesce(role,''), created_at, updated_at
		 from users where `+where, arg)
	var u directory.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	u.Role = directory.Role(role)
	return &u, nil
}

func (s *userStore) List(ctx context.Context) ([]*directory.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, email, first_name, last_name, coalesce(role,''), created_at, updated_at
		 from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*directory.User
	for rows.Next() {
		var u directory.User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = directory.Role(role)
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *userStore) UpdateRole(ctx context.Context, id string, role directory.Role) error {
	if !role.Valid() {
		return directory.ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx,
		`update users set role=$2, updated_at=now() where id=$1`, id, string(role))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

// Products ------------------------------------------------------------------

type productStore struct{ db *sql.DB }

func (s *productStore) Create(ctx context.Context, p *directory.Product) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into products(id, name, serial_number, qr_code, shelf_location_id, created_at)
		 values($1,$2,$3,$4,nullif($5,''),$6)`,
		p.ID, p.Name, p.SerialNumber, p.QRCode, p.ShelfLocationID, p.CreatedAt,
	)
	return err
}

func (s *productStore) Find(ctx context.Context, id string) (*directory.Product, error) {
	return s.findBy(ctx, `id=$1`, id)
}

func (s *productStore) FindByQR(ctx context.Context, code string) (*directory.Product, error) {
	return s.findBy(ctx, `qr_code=$1`, code)
}

func (s *productStore) findBy(ctx context.Context, where, arg string) (*directory.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, serial_number, qr_code, coalesce(shelf_location_id,''), created_at
		 from products where `+where, arg)
	var p directory.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SerialNumber, &p.QRCode, &p.ShelfLocationID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *productStore) List(ctx context.Context) ([]*directory.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, serial_number, qr_code, coalesce(shelf_location_id,''), created_at
		 from products order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*directory.Product
	for rows.Next() {
		var p directory.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SerialNumber, &p.QRCode, &p.ShelfLocationID, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// Components ----------------------------------------------------------------

type componentStore struct{ db *sql.DB }

func (s *componentStore) Create(ctx context.Context, c *directory.Component) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into components(id, name, part_number, qr_code, stock_quantity, shelf_location_id, created_at)
		 values($1,$2,$3,$4,$5,nullif($6,''),$7)`,
		c.ID, c.Name, c.PartNumber, c.QRCode, c.StockQuantity, c.ShelfLocationID, c.CreatedAt,
	)
	return err
}

func (s *componentStore) Find(ctx context.Context, id string) (*directory.Component, error) {
	return s.findBy(ctx, `id=$1`, id)
}

func (s *componentStore) FindByQR(ctx context.Context, code string) (*directory.Component, error) {
	return s.findBy(ctx, `qr_code=$1`, code)
}

func (s *componentStore) findBy(ctx context.Context, where, arg string) (*directory.Component, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, part_number, qr_code, stock_quantity, coalesce(shelf_location_id,''), created_at
		 from components where `+where, arg)
	var c directory.Component
	if err := row.Scan(&c.ID, &c.Name, &c.PartNumber, &c.QRCode, &c.StockQuantity, &c.ShelfLocationID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *componentStore) List(ctx context.Context) ([]*directory.Component, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, part_number, qr_code, stock_quantity, coalesce(shelf_location_id,''), created_at
		 from components order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []*directory.Component
	for rows.Next() {
		var c directory.Component
		if err := rows.Scan(&c.ID, &c.Name, &c.PartNumber, &c.QRCode, &c.StockQuantity, &c.ShelfLocationID, &c.CreatedAt); err != nil {
			return nil, err
		}
		comps = append(comps, &c)
	}
	return comps, rows.Err()
}

// Shelf locations -----------------------------------------------------------

type locationStore struct{ db *sql.DB }

func (s *locationStore) Create(ctx context.Context, l *directory.ShelfLocation) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into shelf_locations(id, label, qr_code, created_at) values($1,$2,$3,$4)`,
		l.ID, l.Label, l.QRCode, l.CreatedAt,
	)
	return err
}

func (s *locationStore) Find(ctx context.Context, id string) (*directory.ShelfLocation, error) {
	return s.findBy(ctx, `id=$1`, id)
}

func (s *locationStore) FindByQR(ctx context.Context, code string) (*directory.ShelfLocation, error) {
	return s.findBy(ctx, `qr_code=$1`, code)
}

func (s *locationStore) findBy(ctx context.Context, where, arg string) (*directory.ShelfLocation, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, label, qr_code, created_at from shelf_locations where `+where, arg)
	var l directory.ShelfLocation
	if err := row.Scan(&l.ID, &l.Label, &l.QRCode, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}
