package directory

import "time"

// Role gates access to the dashboards and their API routes.
type Role string

const (
	RoleInventory Role = "inventory"
	RoleEngineer  Role = "engineer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known dashboard roles.
func (r Role) Valid() bool {
	switch r {
	case RoleInventory, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// User is a workshop account. Identity lifecycle (OIDC login, profile
// management) lives outside this service; the core only needs lookups and
// role updates. Role is empty until an admin assigns one or the user picks
// one on first login.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a repair job's subject, identified on the floor by its QR label.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SerialNumber    string    `json:"serial_number"`
	QRCode          string    `json:"qr_code"`
	ShelfLocationID string    `json:"shelf_location_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Component is a stocked part. StockQuantity is informational only; the
// request workflow neither checks nor decrements it.
type Component struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PartNumber      string    `json:"part_number"`
	QRCode          string    `json:"qr_code"`
	StockQuantity   int       `json:"stock_quantity"`
	ShelfLocationID string    `json:"shelf_location_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ShelfLocation is a physical storage spot with its own scannable label.
type ShelfLocation struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	QRCode    string    `json:"qr_code"`
	CreatedAt time.Time `json:"created_at"`
}

// CanAct is the single capability check used by the HTTP layer. Admins pass
// every check; everyone else needs an exact role match. Users without an
// assigned role can do nothing.
func CanAct(u *User, required Role) bool {
	if u == nil || u.Role == "" {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return u.Role == required
}
