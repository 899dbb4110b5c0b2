package pg

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/wikigraph/snapshot/store/storetest"
)

const testBaseURL = "https://wiki.example.com"

// Initialize and register an instance of the postgresStoreTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(postgresStoreTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// postgresStoreTestSuite embeds and runs the BaseSuite tests methods.
type postgresStoreTestSuite struct {
	// Keep track of the sql.DB instance from the store implementation
	// so we can execute SQL statements to reset the db between tests.
	db *sql.DB
	storetest.BaseSuite
}

// SetUpSuite runs only once before all tests in the test suite. it's
// responsible for setting up required resources necessary for running
// the entire suite. ie database setup.
func (s *postgresStoreTestSuite) SetUpSuite(c *check.C) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		c.Skip("Missing PG_DSN envvar: skipping postgres backed test suite")
	}

	store, err := NewPostgresStore(dsn, testBaseURL)
	if err != nil {
		c.Fatalf("Failed to make a database connection: %v", err)
	}

	c.Assert(store.EnsureSchema(), check.IsNil)

	s.SetStore(store, testBaseURL)
	// Pass the store db instance reference forward to the suite.
	s.db = store.db
}

// TearDownSuite runs only once after the entire test suite has completed
// running. it resets the database and closes the db connection if open.
func (s *postgresStoreTestSuite) TearDownSuite(c *check.C) {
	if s.db != nil {
		s.flushDB(c)
		c.Assert(s.db.Close(), check.IsNil)
	}
}

// SetUpTest runs before each test in the test suite. it's responsible
// for setting up the necessary environment for running that specific
// test. ie database reset.
func (s *postgresStoreTestSuite) SetUpTest(c *check.C) {
	s.flushDB(c)
}

// flushDB helper resets the database by deleting all rows from the
// connections, pages and builds tables in FK order.
func (s *postgresStoreTestSuite) flushDB(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"connections", "pages", "builds"} {
		_, err := s.db.ExecContext(ctx, "DELETE FROM "+table)
		c.Assert(err, check.IsNil)
	}
}
