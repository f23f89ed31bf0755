package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/ids"
	"benchtrack.org/internal/obs"
	"benchtrack.org/internal/requests"
)

// Requests returns the request ledger / fulfillment engine backed by this
// pool.
func (s *Store) Requests() requests.Service { return &requestStore{db: s.db} }

type requestStore struct{ db *sql.DB }

var _ requests.Service = (*requestStore)(nil)

const summaryColumns = `
	r.id, r.product_id, r.component_id, r.requested_quantity, r.status,
	r.requested_by, r.fulfilled_by, r.fulfilled_at, r.created_at,
	coalesce(p.name,''), coalesce(p.serial_number,''),
	coalesce(c.name,''), coalesce(c.part_number,'')`

func (s *requestStore) Create(ctx context.Context, productID, componentID string, quantity int, requestedBy string) (requests.ComponentRequest, error) {
	if productID == "" || componentID == "" || requestedBy == "" {
		return requests.ComponentRequest{}, fmt.Errorf("%w: product, component and requester ids are required", requests.ErrValidation)
	}
	if quantity <= 0 {
		return requests.ComponentRequest{}, fmt.Errorf("%w: requested quantity must be a positive integer", requests.ErrValidation)
	}

	req := requests.ComponentRequest{
		ID:                ids.New(),
		ProductID:         productID,
		ComponentID:       componentID,
		RequestedQuantity: quantity,
		Status:            requests.StatusPending,
		RequestedBy:       requestedBy,
		CreatedAt:         time.Now().UTC(),
	}
	// Foreign keys on product_id/component_id turn dangling references into
	// a driver error; map them to NotFound via explicit existence checks so
	// the caller gets the right category.
	var exists int
	if err := s.db.QueryRowContext(ctx, `select 1 from products where id=$1`, productID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return requests.ComponentRequest{}, fmt.Errorf("%w: product %s", requests.ErrNotFound, productID)
		}
		return requests.ComponentRequest{}, err
	}
	if err := s.db.QueryRowContext(ctx, `select 1 from components where id=$1`, componentID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return requests.ComponentRequest{}, fmt.Errorf("%w: component %s", requests.ErrNotFound, componentID)
		}
		return requests.ComponentRequest{}, err
	}

	_, err := s.db.ExecContext(ctx,
		`insert into component_requests(id, product_id, component_id, requested_quantity, status, requested_by, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		req.ID, req.ProductID, req.ComponentID, req.RequestedQuantity, req.Status, req.RequestedBy, req.CreatedAt,
	)
	if err != nil {
		return requests.ComponentRequest{}, err
	}
	return req, nil
}

func (s *requestStore) Get(ctx context.Context, id string) (requests.ComponentRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, product_id, component_id, requested_quantity, status, requested_by, fulfilled_by, fulfilled_at, created_at
		 from component_requests where id=$1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return requests.ComponentRequest{}, requests.ErrNotFound
	}
	return req, err
}

func (s *requestStore) ListPending(ctx context.Context) ([]requests.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+summaryColumns+`
		from component_requests r
		left join products p on p.id = r.product_id
		left join components c on c.id = r.component_id
		where r.status = 'pending'
		order by r.created_at asc`)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (s *requestStore) ListForRequester(ctx context.Context, userID string) ([]requests.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+summaryColumns+`
		from component_requests r
		left join products p on p.id = r.product_id
		left join components c on c.id = r.component_id
		where r.requested_by = $1
		order by r.created_at desc`, userID)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

// Fulfill runs the status transition and the log append in one transaction.
// The request row is locked, validated, then updated with a conditional
// WHERE status='pending' whose affected-row count is re-checked: if either
// write fails the transaction rolls back and nothing is observable.
func (s *requestStore) Fulfill(ctx context.Context, requestID, scannedComponentID, fulfilledBy string) (requests.FulfillResult, error) {
	if requestID == "" || scannedComponentID == "" || fulfilledBy == "" {
		return requests.FulfillResult{}, fmt.Errorf("%w: request, component and fulfiller ids are required", requests.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return requests.FulfillResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var comp directory.Component
	var shelf sql.NullString
	err = tx.QueryRowContext(ctx,
		`select id, name, part_number, qr_code, stock_quantity, shelf_location_id, created_at
		 from components where id=$1`, scannedComponentID,
	).Scan(&comp.ID, &comp.Name, &comp.PartNumber, &comp.QRCode, &comp.StockQuantity, &shelf, &comp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return requests.FulfillResult{}, fmt.Errorf("%w: component %s", requests.ErrNotFound, scannedComponentID)
	}
	if err != nil {
		return requests.FulfillResult{}, err
	}
	comp.ShelfLocationID = shelf.String

	row := tx.QueryRowContext(ctx,
		`select id, product_id, component_id, requested_quantity, status, requested_by, fulfilled_by, fulfilled_at, created_at
		 from component_requests where id=$1 for update`, requestID)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return requests.FulfillResult{}, fmt.Errorf("%w: request %s", requests.ErrNotFound, requestID)
	}
	if err != nil {
		return requests.FulfillResult{}, err
	}
	if req.Status != requests.StatusPending {
		return requests.FulfillResult{}, requests.ErrNotPending
	}
	if req.ComponentID != scannedComponentID {
		return requests.FulfillResult{}, requests.ErrComponentMismatch
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`update component_requests
		 set status='fulfilled', fulfilled_by=$2, fulfilled_at=$3
		 where id=$1 and status='pending'`,
		requestID, fulfilledBy, now,
	)
	if err != nil {
		return requests.FulfillResult{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return requests.FulfillResult{}, err
	} else if n != 1 {
		return requests.FulfillResult{}, requests.ErrNotPending
	}

	logID := ids.New()
	if _, err := tx.ExecContext(ctx,
		`insert into fulfillment_logs(id, product_id, component_id, request_id, quantity, inventory_person_id, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		logID, req.ProductID, req.ComponentID, req.ID, req.RequestedQuantity, fulfilledBy, now,
	); err != nil {
		return requests.FulfillResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return requests.FulfillResult{}, err
	}

	req.Status = requests.StatusFulfilled
	req.FulfilledBy = fulfilledBy
	req.FulfilledAt = &now
	obs.Fulfilled()
	return requests.FulfillResult{Request: req, Component: comp}, nil
}

func (s *requestStore) Cancel(ctx context.Context, requestID, cancelledBy string) (requests.ComponentRequest, error) {
	if requestID == "" {
		return requests.ComponentRequest{}, fmt.Errorf("%w: request id is required", requests.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		`update component_requests set status='cancelled' where id=$1 and status='pending'`,
		requestID,
	)
	if err != nil {
		return requests.ComponentRequest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return requests.ComponentRequest{}, err
	}
	if n != 1 {
		// Distinguish missing from already-terminal for the error category.
		if _, err := s.Get(ctx, requestID); err != nil {
			return requests.ComponentRequest{}, err
		}
		return requests.ComponentRequest{}, requests.ErrNotPending
	}
	return s.Get(ctx, requestID)
}

func (s *requestStore) Logs(ctx context.Context, requestID string) ([]requests.FulfillmentLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, product_id, component_id, request_id, quantity, inventory_person_id, created_at
		 from fulfillment_logs where request_id=$1 order by created_at asc`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []requests.FulfillmentLog
	for rows.Next() {
		var l requests.FulfillmentLog
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ComponentID, &l.RequestID, &l.Quantity, &l.InventoryPersonID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (requests.ComponentRequest, error) {
	var (
		req         requests.ComponentRequest
		fulfilledBy sql.NullString
		fulfilledAt sql.NullTime
	)
	err := row.Scan(&req.ID, &req.ProductID, &req.ComponentID, &req.RequestedQuantity,
		&req.Status, &req.RequestedBy, &fulfilledBy, &fulfilledAt, &req.CreatedAt)
	if err != nil {
		return requests.ComponentRequest{}, err
	}
	if fulfilledBy.Valid {
		req.FulfilledBy = fulfilledBy.String
	}
	if fulfilledAt.Valid {
		at := fulfilledAt.Time
		req.FulfilledAt = &at
	}
	return req, nil
}

func scanSummaries(rows *sql.Rows) ([]requests.Summary, error) {
	defer rows.Close()
	var out []requests.Summary
	for rows.Next() {
		var (
			sum         requests.Summary
			fulfilledBy sql.NullString
			fulfilledAt sql.NullTime
		)
		err := rows.Scan(
			&sum.ID, &sum.ProductID, &sum.ComponentID, &sum.RequestedQuantity,
			&sum.Status, &sum.RequestedBy, &fulfilledBy, &fulfilledAt, &sum.CreatedAt,
			&sum.Product.Name, &sum.Product.SerialNumber,
			&sum.Component.Name, &sum.Component.PartNumber,
		)
		if err != nil {
			return nil, err
		}
		if fulfilledBy.Valid {
			sum.FulfilledBy = fulfilledBy.String
		}
		if fulfilledAt.Valid {
			at := fulfilledAt.Time
			sum.FulfilledAt = &at
		}
		sum.Product.ID = sum.ProductID
		sum.Component.ID = sum.ComponentID
		out = append(out, sum)
	}
	return out, rows.Err()
}
