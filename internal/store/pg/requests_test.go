package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"benchtrack.org/internal/requests"
)

func componentRows(id string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "part_number", "qr_code", "stock_quantity", "shelf_location_id", "created_at",
	}).AddRow(id, "Pump 15 bar", "P-015", "CMP:p-015", 7, nil, time.Now().UTC())
}

func requestRows(id, componentID string, status requests.Status) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "product_id", "component_id", "requested_quantity", "status",
		"requested_by", "fulfilled_by", "fulfilled_at", "created_at",
	}).AddRow(id, "prod-1", componentID, 2, string(status), "eng-1", nil, nil, time.Now().UTC())
}

func TestFulfillCommitsUpdateAndLogTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, part_number").
		WithArgs("comp-1").
		WillReturnRows(componentRows("comp-1"))
	mock.ExpectQuery("select id, product_id, component_id").
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", "comp-1", requests.StatusPending))
	mock.ExpectExec("update component_requests").
		WithArgs("req-1", "inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into fulfillment_logs").
		WithArgs(sqlmock.AnyArg(), "prod-1", "comp-1", "req-1", 2, "inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewStore(db).Requests().Fulfill(context.Background(), "req-1", "comp-1", "inv-1")
	if err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	if res.Request.Status != requests.StatusFulfilled {
		t.Fatalf("status = %s, want fulfilled", res.Request.Status)
	}
	if res.Request.FulfilledBy != "inv-1" || res.Request.FulfilledAt == nil {
		t.Fatal("fulfillment fields not set")
	}
	if res.Component.ID != "comp-1" {
		t.Fatalf("unexpected component: %+v", res.Component)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFulfillMismatchRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, part_number").
		WithArgs("comp-2").
		WillReturnRows(componentRows("comp-2"))
	mock.ExpectQuery("select id, product_id, component_id").
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", "comp-1", requests.StatusPending))
	mock.ExpectRollback()

	_, err = NewStore(db).Requests().Fulfill(context.Background(), "req-1", "comp-2", "inv-1")
	if !errors.Is(err, requests.ErrConflict) {
		t.Fatalf("got %v, want Conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFulfillAlreadyFulfilledRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, part_number").
		WithArgs("comp-1").
		WillReturnRows(componentRows("comp-1"))
	mock.ExpectQuery("select id, product_id, component_id").
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", "comp-1", requests.StatusFulfilled))
	mock.ExpectRollback()

	_, err = NewStore(db).Requests().Fulfill(context.Background(), "req-1", "comp-1", "inv-1")
	if !errors.Is(err, requests.ErrConflict) {
		t.Fatalf("got %v, want Conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFulfillLogFailureAbortsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, part_number").
		WithArgs("comp-1").
		WillReturnRows(componentRows("comp-1"))
	mock.ExpectQuery("select id, product_id, component_id").
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", "comp-1", requests.StatusPending))
	mock.ExpectExec("update component_requests").
		WithArgs("req-1", "inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into fulfillment_logs").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	// No fulfilled request without its log row: the whole transaction
	// aborts.
	if _, err := NewStore(db).Requests().Fulfill(context.Background(), "req-1", "comp-1", "inv-1"); err == nil {
		t.Fatal("expected error when log insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFulfillLostRaceReturnsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// The row read as pending, but the conditional update affected nothing:
	// a concurrent fulfiller won between read and write.
	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, part_number").
		WithArgs("comp-1").
		WillReturnRows(componentRows("comp-1"))
	mock.ExpectQuery("select id, product_id, component_id").
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", "comp-1", requests.StatusPending))
	mock.ExpectExec("update component_requests").
		WithArgs("req-1", "inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = NewStore(db).Requests().Fulfill(context.Background(), "req-1", "comp-1", "inv-1")
	if !errors.Is(err, requests.ErrConflict) {
		t.Fatalf("got %v, want Conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateValidatesQuantity(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	svc := NewStore(db).Requests()
	for _, qty := range []int{0, -3} {
		if _, err := svc.Create(context.Background(), "prod-1", "comp-1", qty, "eng-1"); !errors.Is(err, requests.ErrValidation) {
			t.Fatalf("quantity %d: got %v, want ErrValidation", qty, err)
		}
	}
}
