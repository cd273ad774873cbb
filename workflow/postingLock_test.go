package workflow

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newLockTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func expectGetLock(mock sqlmock.Sqlmock, name string, granted int) {
	mock.ExpectQuery(`SELECT GET_LOCK\(\?, 30\)`).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(granted))
}

func expectReleaseLock(mock sqlmock.Sqlmock, name string) {
	mock.ExpectQuery(`SELECT RELEASE_LOCK\(\?\)`).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))
}

// GET_LOCK survives COMMIT on the pooled connection, so every acquire must be
// paired with a RELEASE_LOCK on the same connection before it returns to the
// pool. The helpers must issue exactly that pair, with matching lock names.
func TestDrawerPostingLock_AcquireReleasePair(t *testing.T) {
	db, mock := newLockTestDB(t)

	expectGetLock(mock, "drawer:7", 1)
	expectReleaseLock(mock, "drawer:7")

	if err := AcquireDrawerPostingLock(db, 7); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ReleaseDrawerPostingLock(db, 7)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("lock pair not issued as expected: %v", err)
	}
}

func TestLoanAndAccountPostingLock_Names(t *testing.T) {
	db, mock := newLockTestDB(t)

	expectGetLock(mock, "loan:12", 1)
	expectReleaseLock(mock, "loan:12")
	expectGetLock(mock, "savings:34", 1)
	expectReleaseLock(mock, "savings:34")

	if err := AcquireLoanPostingLock(db, 12); err != nil {
		t.Fatalf("loan acquire: %v", err)
	}
	ReleaseLoanPostingLock(db, 12)

	if err := AcquireAccountPostingLock(db, 34); err != nil {
		t.Fatalf("account acquire: %v", err)
	}
	ReleaseAccountPostingLock(db, 34)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("lock pairs not issued as expected: %v", err)
	}
}

func TestPostingLock_TimeoutIsAnError(t *testing.T) {
	db, mock := newLockTestDB(t)

	// GET_LOCK returns 0 when the 30s wait expires; the caller must get an
	// error and must NOT issue a release for a lock it never held.
	expectGetLock(mock, "drawer:7", 0)

	if err := AcquireDrawerPostingLock(db, 7); err == nil {
		t.Fatal("expected error when lock is not granted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected lock traffic: %v", err)
	}
}
