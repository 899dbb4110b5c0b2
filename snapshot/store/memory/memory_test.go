package memory

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/wikigraph/snapshot/store/storetest"
)

const testBaseURL = "https://wiki.example.com"

// Initialize and register an instance of the inMemoryStoreTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(inMemoryStoreTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryStoreTestSuite embeds and runs the BaseSuite tests methods.
type inMemoryStoreTestSuite struct {
	storetest.BaseSuite
}

// SetUpTest runs before each test in the test suite. it's responsible
// for setting up the requirements necessary for running that specific
// test. ie store reset.
func (s *inMemoryStoreTestSuite) SetUpTest(c *check.C) {
	s.SetStore(NewInMemoryStore(testBaseURL), testBaseURL)
}
