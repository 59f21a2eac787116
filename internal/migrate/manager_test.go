package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatements(t *testing.T) {
	script := `
create table t (id bigint);
-- a comment; with a semicolon
insert into t values (1);
insert into t (name) values ('a;b');
`
	stmts := SplitStatements(script)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if want := "('a;b')"; !strings.Contains(stmts[2], want) {
		t.Fatalf("quoted semicolon split the statement: %q", stmts[2])
	}
}

func TestCollectSQLOrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_tasks.up.sql", "0001_users.up.sql", "0001_users.down.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	files, err := collectSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Base != "0001_users.up.sql" || files[1].Base != "0002_tasks.up.sql" {
		t.Fatalf("wrong order: %v", files)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "absent"), ".sql")
	if err != nil {
		t.Fatalf("expected nil error for missing dir, got %v", err)
	}
	if files != nil {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestUpAppliesPendingMigrations(t *testing.T) {
	dir := t.TempDir()
	mig := filepath.Join(dir, "0001_users.up.sql")
	if err := os.WriteFile(mig, []byte("create table users (id text primary key);"), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("create table users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0001_users.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManager(db, dir, "")
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
