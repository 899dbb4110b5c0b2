package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mycok/wikigraph/snapshot"
)

// cleanupScanWindow bounds the number of archived builds examined by a
// single cleanup pass.
const cleanupScanWindow = 100

var (
	// clock_timestamp() rather than NOW() keeps build timestamps unique
	// when two builds start within the same transaction timestamp.
	startBuildQuery = `
					INSERT INTO builds (build_timestamp, status, started_at)
					VALUES (clock_timestamp(), 'building', NOW())
					RETURNING id, build_timestamp, started_at
					`

	activateBuildQuery = `
					UPDATE builds
					SET status='active', completed_at=NOW(),
						pages_processed=$2, connections_created=$3
					WHERE id=$1
					`

	archiveOtherBuildsQuery = `
					UPDATE builds SET status='archived'
					WHERE status='active' AND id <> $1
					`

	failBuildQuery = `
					UPDATE builds SET error_message=$2, completed_at=NOW()
					WHERE id=$1
					`

	activeBuildTimestampQuery = `
					SELECT build_timestamp FROM builds
					WHERE status='active'
					ORDER BY build_timestamp DESC LIMIT 1
					`

	archivedBuildsQuery = `
					SELECT id FROM builds
					WHERE status='archived'
					ORDER BY build_timestamp DESC LIMIT $1
					`

	upsertPageQuery = `
					INSERT INTO pages (wiki_id, title, url, html, text_content, links, build_id)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					ON CONFLICT (wiki_id, build_id)
					DO UPDATE SET title=$2, url=$3, html=$4, text_content=$5, links=$6
					RETURNING id
					`

	pageColumns = "id, wiki_id, title, url, html, text_content, links, build_id"

	findPageQuery       = "SELECT " + pageColumns + " FROM pages WHERE id=$1"
	findPageByURLQuery  = "SELECT " + pageColumns + " FROM pages WHERE url=$1 AND build_id=$2"
	pagesByBuildQuery   = "SELECT " + pageColumns + " FROM pages WHERE build_id=$1"
	allPagesQuery       = "SELECT " + pageColumns + " FROM pages"

	createConnectionQuery = `
					INSERT INTO connections (origin, target, build_id)
					VALUES ($1, $2, $3)
					`

	connectionTargetsQuery  = "SELECT target FROM connections WHERE origin=$1 ORDER BY id"
	removeConnectionsQuery  = "DELETE FROM connections WHERE origin=$1 AND build_id=$2"
	deleteBuildConnsQuery   = "DELETE FROM connections WHERE build_id=$1"
	deleteBuildPagesQuery   = "DELETE FROM pages WHERE build_id=$1"
	deleteBuildQuery        = "DELETE FROM builds WHERE id=$1"
)

// Static and compile-time check to ensure PostgresStore implements
// Store interface.
var _ snapshot.Store = (*PostgresStore)(nil)

// PostgresStore implements a persistent wiki snapshot store backed by a
// PostgreSQL instance.
type PostgresStore struct {
	db      *sql.DB
	baseURL string
}

// NewPostgresStore returns a PostgresStore instance connected to the
// provided DSN. Relative page links are resolved against baseURL.
func NewPostgresStore(dsn, baseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db, baseURL: baseURL}, nil
}

// Close terminates the connection to the PostgreSQL instance.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the builds, pages and connections tables and their
// indexes when they do not exist yet.
func (s *PostgresStore) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}

// StartBuild creates a new build row with a building status.
func (s *PostgresStore) StartBuild() (*snapshot.Build, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	build := &snapshot.Build{Status: snapshot.StatusBuilding}

	err := s.db.QueryRowContext(ctx, startBuildQuery).Scan(
		&build.ID, &build.BuildTimestamp, &build.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("start build: %w", err)
	}

	build.BuildTimestamp = build.BuildTimestamp.UTC()
	build.StartedAt = build.StartedAt.UTC()

	return build, nil
}

// CompleteBuild promotes the build with the provided id to active and
// demotes every other active build to archived. Both updates execute in
// a single transaction so that the single-active-build invariant holds.
func (s *PostgresStore) CompleteBuild(id uuid.UUID, stats snapshot.BuildStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("complete build: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx, activateBuildQuery, id, stats.PagesCount, stats.ConnectionsCount,
	)
	if err != nil {
		return fmt.Errorf("complete build: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("complete build: %w", snapshot.ErrNotFound)
	}

	if _, err = tx.ExecContext(ctx, archiveOtherBuildsQuery, id); err != nil {
		return fmt.Errorf("complete build: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("complete build: %w", err)
	}

	return nil
}

// FailBuild records an error message and completion time for the build
// with the provided id without changing its status.
func (s *PostgresStore) FailBuild(id uuid.UUID, errMsg string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(ctx, failBuildQuery, id, errMsg)
	if err != nil {
		return fmt.Errorf("fail build: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fail build: %w", snapshot.ErrNotFound)
	}

	return nil
}

// ActiveBuildTimestamp returns the build timestamp of the currently
// active build.
func (s *PostgresStore) ActiveBuildTimestamp() (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ts time.Time

	err := s.db.QueryRowContext(ctx, activeBuildTimestampQuery).Scan(&ts)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, fmt.Errorf("active build timestamp: %w", snapshot.ErrNotFound)
		}

		return time.Time{}, fmt.Errorf("active build timestamp: %w", err)
	}

	return ts.UTC(), nil
}

// CleanupOldBuilds retains the keepLast most recent archived builds and
// deletes every older archived build together with the pages and
// connections it owns.
func (s *PostgresStore) CleanupOldBuilds(keepLast int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, archivedBuildsQuery, cleanupScanWindow)
	if err != nil {
		return fmt.Errorf("cleanup old builds: %w", err)
	}

	var archived []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			_ = rows.Close()

			return fmt.Errorf("cleanup old builds: %w", err)
		}

		archived = append(archived, id)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()

		return fmt.Errorf("cleanup old builds: %w", err)
	}
	if err = rows.Close(); err != nil {
		return fmt.Errorf("cleanup old builds: %w", err)
	}

	if keepLast < 0 {
		keepLast = 0
	}
	if keepLast >= len(archived) {
		return nil
	}

	for _, id := range archived[keepLast:] {
		if err = s.deleteBuild(ctx, id); err != nil {
			return fmt.Errorf("cleanup old builds: %w", err)
		}
	}

	return nil
}

// deleteBuild removes the build's connections, then its pages, then the
// build row itself within a single transaction to satisfy the foreign
// key constraints.
func (s *PostgresStore) deleteBuild(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, deleteBuildConnsQuery, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, deleteBuildPagesQuery, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, deleteBuildQuery, id); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertPage creates a new or updates an existing page. The conflict
// target is the (wiki id, build id) natural key.
func (s *PostgresStore) UpsertPage(page *snapshot.Page) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.db.QueryRowContext(
		ctx, upsertPageQuery,
		page.WikiID, page.Title, page.URL, page.HTML, page.TextContent,
		pq.Array(page.Links), page.BuildID,
	).Scan(&page.ID)
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}

	return nil
}

// Pages returns an iterator for the set of pages that belong to the
// build with the provided id. A uuid.Nil build id matches every page.
func (s *PostgresStore) Pages(buildID uuid.UUID) (snapshot.PageIterator, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if buildID == uuid.Nil {
		rows, err = s.db.Query(allPagesQuery)
	} else {
		rows, err = s.db.Query(pagesByBuildQuery, buildID)
	}
	if err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	return &pageIterator{rows: rows}, nil
}

// FindPage performs a page lookup by id.
func (s *PostgresStore) FindPage(id uuid.UUID) (*snapshot.Page, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.scanPage(s.db.QueryRowContext(ctx, findPageQuery, id), "find page")
}

// FindPageByLink performs a page lookup by the URL obtained by
// concatenating the store's base wiki URL with the provided relative
// link, scoped to the build with the provided id.
func (s *PostgresStore) FindPageByLink(link string, buildID uuid.UUID) (*snapshot.Page, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.scanPage(
		s.db.QueryRowContext(ctx, findPageByURLQuery, s.baseURL+link, buildID),
		"find page by link",
	)
}

func (s *PostgresStore) scanPage(row *sql.Row, op string) (*snapshot.Page, error) {
	p := new(snapshot.Page)

	err := row.Scan(
		&p.ID, &p.WikiID, &p.Title, &p.URL, &p.HTML, &p.TextContent,
		pq.Array(&p.Links), &p.BuildID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, snapshot.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// CreateConnection inserts a connection / edge row originating from the
// origin page and terminating at the target page within the provided
// build.
func (s *PostgresStore) CreateConnection(originID, targetID, buildID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, createConnectionQuery, originID, targetID, buildID)
	if err != nil {
		if isForeignKeyViolationError(err) {
			err = snapshot.ErrUnknownConnectionPages
		}

		return fmt.Errorf("create connection: %w", err)
	}

	return nil
}

// Connections resolves each connection originating from the page with
// the provided id to its full target page row.
func (s *PostgresStore) Connections(pageID uuid.UUID) ([]*snapshot.Page, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, connectionTargetsQuery, pageID)
	if err != nil {
		return nil, fmt.Errorf("connections: %w", err)
	}

	var targetIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			_ = rows.Close()

			return nil, fmt.Errorf("connections: %w", err)
		}

		targetIDs = append(targetIDs, id)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()

		return nil, fmt.Errorf("connections: %w", err)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("connections: %w", err)
	}

	var targets []*snapshot.Page
	for _, id := range targetIDs {
		target, err := s.FindPage(id)
		if err != nil {
			return nil, fmt.Errorf("connections: %w", err)
		}

		targets = append(targets, target)
	}

	return targets, nil
}

// RemoveConnections deletes every connection originating from the page
// with the provided id within the provided build.
func (s *PostgresStore) RemoveConnections(pageID, buildID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, removeConnectionsQuery, pageID, buildID)
	if err != nil {
		return fmt.Errorf("remove connections: %w", err)
	}

	return nil
}

// isForeignKeyViolationError returns true if error is a foreign key
// constraint violation error.
func isForeignKeyViolationError(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code.Name() == "foreign_key_violation"
}
