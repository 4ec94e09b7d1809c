package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"ludo-arena/internal/config"
	"ludo-arena/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OpenTestStore opens a Postgres store in a throwaway schema with the init
// migration applied. The test is skipped when TEST_POSTGRES_DSN is unset.
func OpenTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil || cfg.TestPostgresDSN == "" {
		t.Skip("skip test db: TEST_POSTGRES_DSN not set")
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("ludo_test_%d", time.Now().UnixNano())
	if err := execBase(dsn, "CREATE SCHEMA %s", schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	st, err := store.New(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := applyMigration(st); err != nil {
		st.Close()
		t.Fatalf("apply schema: %v", err)
	}
	return st, func() {
		st.Close()
		_ = execBase(dsn, "DROP SCHEMA %s CASCADE", schema)
	}
}

func execBase(dsn, format, schema string) error {
	if !testSchemaNamePattern.MatchString(schema) {
		return fmt.Errorf("schema %q does not match required pattern", schema)
	}
	base, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return err
	}
	defer base.Close()
	_, err = base.Exec(context.Background(), fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()))
	return err
}

func applyMigration(st *store.Store) error {
	path, err := FindUpward(filepath.Join("migrations", "000001_init.up.sql"))
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(context.Background(), string(b))
	return err
}

// FindUpward looks for rel in the working directory and its parents.
func FindUpward(rel string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found from %s", rel, dir)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
