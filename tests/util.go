// Package testutil sets up migrated SQLite databases and fixtures for tests.
package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

// Config returns the default configuration pointed at SQLite.
func Config() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Database.Engine = database.EngineSQLite
	return conf
}

// PrepareDB opens a fresh migrated SQLite database, closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlx.Open(database.EngineSQLite, database.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("PrepareDB(): opening: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, database.EngineSQLite); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// CreateAccount inserts an account, and its profile for students, parents and teachers.
func CreateAccount(t *testing.T, db *sqlx.DB, role account.Role, name, uname, email, pwd string) account.Account {
	t.Helper()

	ctx := context.Background()
	repo := sqlxrepos.NewAccountRepository(db)
	ts := time.Now().UTC().Truncate(time.Microsecond)
	acc := account.Account{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if pwd == "" {
		pwd = "Secret-123"
	}
	if err := acc.SetPassword(pwd); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}

	acc, err := repo.CreateAccount(ctx, acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	switch role {
	case account.RoleStudent:
		err = repo.CreateStudentProfile(ctx, account.StudentProfile{AccountID: acc.ID})
	case account.RoleParent:
		err = repo.CreateParentProfile(ctx, acc.ID)
	case account.RoleTeacher:
		err = repo.CreateTeacherProfile(ctx, account.TeacherProfile{AccountID: acc.ID})
	}
	if err != nil {
		t.Fatalf("CreateAccount() profile failed: %v", err)
	}
	return acc
}

func insertID(t *testing.T, db *sqlx.DB, q string, args ...interface{}) int {
	t.Helper()

	var id int
	if err := db.Get(&id, db.Rebind(q+" RETURNING id"), args...); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return id
}

func CreateCourse(t *testing.T, db *sqlx.DB, title string) int {
	return insertID(t, db, `INSERT INTO courses (title) VALUES (?)`, title)
}

func CreateLesson(t *testing.T, db *sqlx.DB, courseID int, title string, order int) int {
	return insertID(t, db, `INSERT INTO lessons (course_id, title, order_number) VALUES (?, ?, ?)`, courseID, title, order)
}

func SetLessonOrder(t *testing.T, db *sqlx.DB, lessonID, order int) {
	t.Helper()
	if _, err := db.Exec(db.Rebind(`UPDATE lessons SET order_number = ? WHERE id = ?`), order, lessonID); err != nil {
		t.Fatalf("SetLessonOrder() failed: %v", err)
	}
}

func CreateAssignment(t *testing.T, db *sqlx.DB, courseID int, title string) int {
	return insertID(t, db, `INSERT INTO assignments (course_id, title) VALUES (?, ?)`, courseID, title)
}

// Count returns the number of rows of table matching where.
func Count(t *testing.T, db *sqlx.DB, table, where string, args ...interface{}) int {
	t.Helper()

	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.Get(&n, db.Rebind(q), args...); err != nil {
		t.Fatalf("Count(%s) failed: %v", table, err)
	}
	return n
}
