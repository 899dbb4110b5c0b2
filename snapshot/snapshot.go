/*
	snapshot package defines the types that outline the behavior of wiki
	snapshot data stores. A snapshot is made up of builds / generations,
	the pages captured during each build and the connections / edges that
	link pages within the same build.
*/

package snapshot

import (
	"time"

	"github.com/google/uuid"
)

// Build lifecycle status values.
const (
	// StatusBuilding marks a build whose crawl is still in progress or
	// that terminated with a recorded error.
	StatusBuilding = "building"

	// StatusActive marks the single build whose data is authoritative
	// for readers.
	StatusActive = "active"

	// StatusArchived marks a previously active build retained for
	// history until pruned.
	StatusArchived = "archived"
)

// Store should be implemented by snapshot data stores / types. A single
// backend owns both the build metadata and the page / connection rows so
// that generation cleanup can honor referential integrity.
type Store interface {
	BuildStore
	PageStore
}

// BuildStore should be implemented by types that persist build / generation
// metadata.
type BuildStore interface {
	// StartBuild creates a new build row with [StatusBuilding] status and
	// a unique, monotonically increasing build timestamp.
	StartBuild() (*Build, error)

	// CompleteBuild promotes the build with the provided id to
	// [StatusActive], records its completion time and counters, and
	// demotes every other active build to [StatusArchived]. Both writes
	// execute as one logical transition.
	CompleteBuild(id uuid.UUID, stats BuildStats) error

	// FailBuild records an error message and completion time for the
	// build with the provided id. The build status is left as-is and the
	// build never becomes active.
	FailBuild(id uuid.UUID, errMsg string) error

	// ActiveBuildTimestamp returns the build timestamp of the currently
	// active build or ErrNotFound if no build is active.
	ActiveBuildTimestamp() (time.Time, error)

	// CleanupOldBuilds retains the [keepLast] most recent archived builds
	// and deletes every older archived build together with the pages and
	// connections it owns. The scan is bounded to the 100 most recent
	// archived builds.
	CleanupOldBuilds(keepLast int) error
}

// PageStore should be implemented by types that persist page captures and
// the connections between them.
type PageStore interface {
	// UpsertPage creates a new or updates an existing page. The conflict
	// target is the (wiki id, build id) natural key. On return the page
	// id field is populated with the stored row id.
	UpsertPage(page *Page) error

	// Pages returns an iterator for the set of pages that belong to the
	// build with the provided id. A uuid.Nil build id matches every page.
	Pages(buildID uuid.UUID) (PageIterator, error)

	// FindPage performs a page lookup by id. It returns ErrNotFound when
	// no such page exists.
	FindPage(id uuid.UUID) (*Page, error)

	// FindPageByLink performs a page lookup by the page URL obtained by
	// concatenating the store's base wiki URL with the provided relative
	// link, scoped to the build with the provided id. It returns
	// ErrNotFound when no such page exists.
	FindPageByLink(link string, buildID uuid.UUID) (*Page, error)

	// CreateConnection inserts a connection / edge row originating from
	// the origin page and terminating at the target page within the
	// provided build. It returns ErrUnknownConnectionPages when either
	// end or the build does not exist.
	CreateConnection(originID, targetID, buildID uuid.UUID) error

	// Connections resolves each connection originating from the page
	// with the provided id to its full target page row. It returns
	// ErrNotFound when any target page is missing.
	Connections(pageID uuid.UUID) ([]*Page, error)

	// RemoveConnections deletes every connection originating from the
	// page with the provided id within the provided build.
	RemoveConnections(pageID, buildID uuid.UUID) error
}

// PageIterator is implemented by types that iterate stored pages.
type PageIterator interface {
	// Next loads the next page, returns false when no more pages are
	// available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error

	// Page returns the currently fetched page object.
	Page() *Page
}

// Build represents one crawl generation. it serves as a model / schema
// object.
type Build struct {
	ID                 uuid.UUID  // Build unique identifier
	BuildTimestamp     time.Time  // Unique logical clock for the generation
	Status             string     // One of the Status* constants
	StartedAt          time.Time  // Crawl start time
	CompletedAt        *time.Time // Crawl completion time, nil while building
	PagesProcessed     int        // Number of pages captured
	ConnectionsCreated int        // Number of connections created
	ErrorMessage       string     // Failure message, empty on success
}

// BuildStats carries the counters recorded when a build completes.
type BuildStats struct {
	PagesCount       int
	ConnectionsCount int
}

// Page represents a wiki page captured during a single build. The same
// wiki page captured by different builds yields distinct rows.
type Page struct {
	ID          uuid.UUID // Page row unique identifier
	WikiID      int       // Stable wiki page identifier (natural key)
	Title       string    // Wiki page title
	URL         string    // Canonical page URL
	HTML        string    // Raw page HTML as fetched
	TextContent string    // Plain-text body stripped from HTML
	Links       []string  // Valid internal hrefs extracted from HTML, document order
	BuildID     uuid.UUID // Owning build identifier
}
