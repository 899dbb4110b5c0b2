package pg

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/mycok/wikigraph/snapshot"
)

// Static and compile-time check to ensure pageIterator implements
// snapshot.PageIterator interface.
var _ snapshot.PageIterator = (*pageIterator)(nil)

// pageIterator is a snapshot.PageIterator implementation for the
// PostgreSQL store. It wraps the [database/sql] Rows type that serves as
// an iterator for the returned query data.
type pageIterator struct {
	rows    *sql.Rows
	lastErr error
	page    *snapshot.Page
}

// Next loads the next item, returns false when no more pages are
// available or when an error occurs.
func (i *pageIterator) Next() bool {
	// Check if an error occurred during the most recent [rows.Scan]
	// operation or if there are no more row data to return.
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	p := new(snapshot.Page)
	i.lastErr = i.rows.Scan(
		&p.ID, &p.WikiID, &p.Title, &p.URL, &p.HTML, &p.TextContent,
		pq.Array(&p.Links), &p.BuildID,
	)
	if i.lastErr != nil {
		return false
	}

	i.page = p

	return true
}

// Error returns the last error encountered by the iterator.
func (i *pageIterator) Error() error {
	return i.lastErr
}

// Close releases any resources allocated to the iterator.
func (i *pageIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("page iterator: %w", err)
	}

	return nil
}

// Page returns the currently fetched page object.
func (i *pageIterator) Page() *snapshot.Page {
	return i.page
}
