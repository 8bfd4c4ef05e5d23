package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rest-errors/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error for the parent directory, got %v", err)
	}
}

func TestOpenSQLite_PragmasPoolAndMigrate(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for pragma, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"foreign_keys": "1",
		"busy_timeout": "5000",
	} {
		var got string
		if err := db.Raw("PRAGMA " + pragma + ";").Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", pragma, err)
		}
		if strings.ToLower(got) != want {
			t.Fatalf("PRAGMA %s = %q, want %q", pragma, got, want)
		}
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if !db.Migrator().HasTable(&domain.User{}) {
		t.Fatalf("expected users table to exist")
	}

	// The schema is usable with the tracing plugin installed.
	u, err := CreateUser(context.Background(), db, "a@example.com", "A", domain.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := GetUser(context.Background(), db, u.ID); err != nil || got.Email != "a@example.com" {
		t.Fatalf("readback user failed: err=%v got=%+v", err, got)
	}
}

func TestOpenSQLite_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "app.db"), WithLogger(zerolog.New(&buf), 0))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if _, ok := db.Config.Logger.(*queryLogger); !ok {
		t.Fatalf("expected queryLogger, got %T", db.Config.Logger)
	}
	// no users table yet
	if err := db.Exec("SELECT * FROM users").Error; err == nil {
		t.Fatalf("expected query error")
	}
	if !strings.Contains(buf.String(), `"message":"query failed"`) {
		t.Fatalf("failed statement not logged: %s", buf.String())
	}
}

// logLines decodes one JSON object per line.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestQueryLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 3 }
	begin := time.Now().Add(-50 * time.Millisecond)

	cases := []struct {
		name      string
		level     logger.LogLevel
		slow      time.Duration
		err       error
		wantLevel string
		wantMsg   string
	}{
		{"failure", logger.Info, 0, errors.New("disk I/O error"), "error", "query failed"},
		{"not found is not a failure", logger.Info, 0, gorm.ErrRecordNotFound, "debug", "query"},
		{"slow", logger.Info, time.Millisecond, nil, "warn", "slow query"},
		{"fast", logger.Info, time.Hour, nil, "debug", "query"},
		{"warn level hides plain statements", logger.Warn, 0, nil, "", ""},
		{"silent", logger.Silent, 0, errors.New("boom"), "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewQueryLogger(zerolog.New(&buf), tc.slow).LogMode(tc.level)
			l.Trace(context.Background(), begin, sql, tc.err)

			lines := logLines(t, &buf)
			if tc.wantMsg == "" {
				if len(lines) != 0 {
					t.Fatalf("expected no output, got %v", lines)
				}
				return
			}
			if len(lines) != 1 {
				t.Fatalf("expected 1 line, got %v", lines)
			}
			got := lines[0]
			if got["level"] != tc.wantLevel || got["message"] != tc.wantMsg {
				t.Fatalf("got level=%v msg=%v", got["level"], got["message"])
			}
			if got["sql"] != "SELECT 1" || got["rows"] != float64(3) || got["component"] != "gorm" {
				t.Fatalf("missing statement fields: %v", got)
			}
		})
	}
}

func TestQueryLogger_Messages(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(zerolog.New(&buf), 0).LogMode(logger.Warn)
	ctx := context.Background()

	l.Info(ctx, "hidden %d", 1)
	l.Warn(ctx, "careful %s", "now")
	l.Error(ctx, "broken %s", "pipe")

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected warn+error lines, got %v", lines)
	}
	if lines[0]["message"] != "careful now" || lines[1]["message"] != "broken pipe" {
		t.Fatalf("unexpected messages: %v", lines)
	}
}

// Compile-time guards.
var (
	_ func(string, ...Option) (*gorm.DB, error) = OpenSQLite
	_ logger.Interface                          = (*queryLogger)(nil)
)
