package repositories_test

import (
	_ "embed"
	"testing"

	"github.com/jkorri/gumshoe/internal/sqlite"
)

//go:embed testdata/fixtures.sql
var testFixtures string

// newTestDB creates a new in-memory database with test fixtures.
func newTestDB(t *testing.T) *sqlite.Database {
	var (
		dbs *sqlite.Database
		err error
	)

	if dbs, err = sqlite.NewDatabase(":memory:"); err != nil {
		t.Fatal(err)
	}

	// Set the read pool to read-only mode. The mode=ro flag doesn't seem to
	// work with :memory: and cache=shared.
	if _, err = dbs.ReadOnly.Exec("PRAGMA query_only = TRUE;"); err != nil {
		t.Fatal(err)
	}

	if _, err = dbs.ReadWrite.Exec(testFixtures); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err = dbs.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return dbs
}
