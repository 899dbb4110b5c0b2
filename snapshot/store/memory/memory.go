package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mycok/wikigraph/snapshot"
)

// cleanupScanWindow bounds the number of archived builds examined by a
// single cleanup pass.
const cleanupScanWindow = 100

// Static and compile-time check to ensure InMemoryStore implements
// Store interface.
var _ snapshot.Store = (*InMemoryStore)(nil)

// pageKey is the natural key for a page capture within a build.
type pageKey struct {
	wikiID  int
	buildID uuid.UUID
}

// urlKey indexes a page capture by its canonical URL within a build.
type urlKey struct {
	url     string
	buildID uuid.UUID
}

// connection represents a stored edge row.
type connection struct {
	id      uuid.UUID
	origin  uuid.UUID
	target  uuid.UUID
	buildID uuid.UUID
}

// InMemoryStore implements an in-memory wiki snapshot store that can be
// concurrently accessed by multiple clients.
type InMemoryStore struct {
	mu sync.RWMutex

	baseURL string

	builds map[uuid.UUID]*snapshot.Build
	pages  map[uuid.UUID]*snapshot.Page

	pageKeyIndex map[pageKey]*snapshot.Page
	pageURLIndex map[urlKey]*snapshot.Page

	connections map[uuid.UUID]*connection
	// Maps origin page ids to the edges originating from them, in
	// insertion order.
	originToConnMap map[uuid.UUID][]uuid.UUID

	// Most recently issued build timestamp. Used to keep timestamps
	// unique and monotonically increasing.
	lastBuildTimestamp time.Time
}

// NewInMemoryStore creates a new in-memory snapshot store. Relative page
// links are resolved against baseURL.
func NewInMemoryStore(baseURL string) *InMemoryStore {
	return &InMemoryStore{
		baseURL:         baseURL,
		builds:          make(map[uuid.UUID]*snapshot.Build),
		pages:           make(map[uuid.UUID]*snapshot.Page),
		pageKeyIndex:    make(map[pageKey]*snapshot.Page),
		pageURLIndex:    make(map[urlKey]*snapshot.Page),
		connections:     make(map[uuid.UUID]*connection),
		originToConnMap: make(map[uuid.UUID][]uuid.UUID),
	}
}

// StartBuild creates a new build row with a building status and a unique,
// monotonically increasing build timestamp.
func (s *InMemoryStore) StartBuild() (*snapshot.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	// The build timestamp acts as a logical clock so it must keep
	// increasing even when two builds start within the wall-clock
	// resolution.
	if !now.After(s.lastBuildTimestamp) {
		now = s.lastBuildTimestamp.Add(time.Millisecond)
	}
	s.lastBuildTimestamp = now

	build := &snapshot.Build{
		BuildTimestamp: now,
		Status:         snapshot.StatusBuilding,
		StartedAt:      now,
	}

	// Try to assign a random ID to the new build. in case the generated
	// ID is already used, run the ID generator until a unique ID is found.
	for {
		build.ID = uuid.New()
		if _, exists := s.builds[build.ID]; !exists {
			break
		}
	}

	bCopy := new(snapshot.Build)
	*bCopy = *build

	s.builds[bCopy.ID] = bCopy

	return build, nil
}

// CompleteBuild promotes the build with the provided id to active and
// demotes every other active build to archived.
func (s *InMemoryStore) CompleteBuild(id uuid.UUID, stats snapshot.BuildStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	build, exists := s.builds[id]
	if !exists {
		return fmt.Errorf("complete build: %w", snapshot.ErrNotFound)
	}

	now := time.Now().UTC()
	build.Status = snapshot.StatusActive
	build.CompletedAt = &now
	build.PagesProcessed = stats.PagesCount
	build.ConnectionsCreated = stats.ConnectionsCount

	for otherID, other := range s.builds {
		if otherID != id && other.Status == snapshot.StatusActive {
			other.Status = snapshot.StatusArchived
		}
	}

	return nil
}

// FailBuild records an error message and completion time for the build
// with the provided id without changing its status.
func (s *InMemoryStore) FailBuild(id uuid.UUID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	build, exists := s.builds[id]
	if !exists {
		return fmt.Errorf("fail build: %w", snapshot.ErrNotFound)
	}

	now := time.Now().UTC()
	build.ErrorMessage = errMsg
	build.CompletedAt = &now

	return nil
}

// ActiveBuildTimestamp returns the build timestamp of the currently
// active build.
func (s *InMemoryStore) ActiveBuildTimestamp() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found  bool
		latest time.Time
	)
	for _, build := range s.builds {
		if build.Status != snapshot.StatusActive {
			continue
		}

		if !found || build.BuildTimestamp.After(latest) {
			latest = build.BuildTimestamp
			found = true
		}
	}

	if !found {
		return time.Time{}, fmt.Errorf("active build timestamp: %w", snapshot.ErrNotFound)
	}

	return latest, nil
}

// CleanupOldBuilds retains the keepLast most recent archived builds and
// deletes every older archived build together with the pages and
// connections it owns.
func (s *InMemoryStore) CleanupOldBuilds(keepLast int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archived []*snapshot.Build
	for _, build := range s.builds {
		if build.Status == snapshot.StatusArchived {
			archived = append(archived, build)
		}
	}

	sort.Slice(archived, func(i, j int) bool {
		return archived[i].BuildTimestamp.After(archived[j].BuildTimestamp)
	})

	if len(archived) > cleanupScanWindow {
		archived = archived[:cleanupScanWindow]
	}

	if keepLast < 0 {
		keepLast = 0
	}
	if keepLast >= len(archived) {
		return nil
	}

	for _, build := range archived[keepLast:] {
		s.deleteBuild(build.ID)
	}

	return nil
}

// deleteBuild removes the build's connections, then its pages, then the
// build row itself. Callers must hold the write lock.
func (s *InMemoryStore) deleteBuild(buildID uuid.UUID) {
	for connID, conn := range s.connections {
		if conn.buildID != buildID {
			continue
		}

		delete(s.connections, connID)
		s.originToConnMap[conn.origin] = removeID(
			s.originToConnMap[conn.origin], connID,
		)
	}

	for pageID, page := range s.pages {
		if page.BuildID != buildID {
			continue
		}

		delete(s.pages, pageID)
		delete(s.pageKeyIndex, pageKey{wikiID: page.WikiID, buildID: buildID})
		delete(s.pageURLIndex, urlKey{url: page.URL, buildID: buildID})
		delete(s.originToConnMap, pageID)
	}

	delete(s.builds, buildID)
}

// UpsertPage creates a new or updates an existing page. The conflict
// target is the (wiki id, build id) natural key.
func (s *InMemoryStore) UpsertPage(page *snapshot.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.builds[page.BuildID]; !exists {
		return fmt.Errorf("upsert page: unknown build %q", page.BuildID)
	}

	key := pageKey{wikiID: page.WikiID, buildID: page.BuildID}

	// When a capture of the same wiki page already exists within this
	// build, convert the operation into an update: keep the existing row
	// id and replace the row contents with the provided fields.
	if existing, exists := s.pageKeyIndex[key]; exists {
		page.ID = existing.ID

		delete(s.pageURLIndex, urlKey{url: existing.URL, buildID: existing.BuildID})
		*existing = *page
		existing.Links = append([]string(nil), page.Links...)
		s.pageURLIndex[urlKey{url: existing.URL, buildID: existing.BuildID}] = existing

		return nil
	}

	// Try to assign a random ID to the new page. in case the generated ID
	// is already used, run the ID generator until a unique ID is found.
	for {
		page.ID = uuid.New()
		if _, exists := s.pages[page.ID]; !exists {
			break
		}
	}

	// Make a new local pointer to the page provided by the caller. This
	// step protects the stored page data from side-effects triggered
	// outside this method.
	pCopy := new(snapshot.Page)
	*pCopy = *page
	pCopy.Links = append([]string(nil), page.Links...)

	s.pages[pCopy.ID] = pCopy
	s.pageKeyIndex[key] = pCopy
	s.pageURLIndex[urlKey{url: pCopy.URL, buildID: pCopy.BuildID}] = pCopy

	return nil
}

// Pages returns an iterator for the set of pages that belong to the build
// with the provided id. A uuid.Nil build id matches every page.
func (s *InMemoryStore) Pages(buildID uuid.UUID) (snapshot.PageIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*snapshot.Page
	for _, page := range s.pages {
		if buildID == uuid.Nil || page.BuildID == buildID {
			list = append(list, page)
		}
	}

	return &pageIterator{store: s, pages: list}, nil
}

// FindPage performs a page lookup by id.
func (s *InMemoryStore) FindPage(id uuid.UUID) (*snapshot.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, exists := s.pages[id]
	if !exists {
		return nil, fmt.Errorf("find page: %w", snapshot.ErrNotFound)
	}

	return clonePage(page), nil
}

// FindPageByLink performs a page lookup by the URL obtained by
// concatenating the store's base wiki URL with the provided relative
// link, scoped to the build with the provided id.
func (s *InMemoryStore) FindPageByLink(link string, buildID uuid.UUID) (*snapshot.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, exists := s.pageURLIndex[urlKey{url: s.baseURL + link, buildID: buildID}]
	if !exists {
		return nil, fmt.Errorf("find page by link: %w", snapshot.ErrNotFound)
	}

	return clonePage(page), nil
}

// CreateConnection inserts a connection / edge row originating from the
// origin page and terminating at the target page within the provided
// build.
func (s *InMemoryStore) CreateConnection(originID, targetID, buildID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, originExists := s.pages[originID]
	_, targetExists := s.pages[targetID]
	_, buildExists := s.builds[buildID]
	if !originExists || !targetExists || !buildExists {
		return fmt.Errorf("create connection: %w", snapshot.ErrUnknownConnectionPages)
	}

	conn := &connection{
		origin:  originID,
		target:  targetID,
		buildID: buildID,
	}

	for {
		conn.id = uuid.New()
		if _, exists := s.connections[conn.id]; !exists {
			break
		}
	}

	s.connections[conn.id] = conn
	s.originToConnMap[originID] = append(s.originToConnMap[originID], conn.id)

	return nil
}

// Connections resolves each connection originating from the page with
// the provided id to its full target page row.
func (s *InMemoryStore) Connections(pageID uuid.UUID) ([]*snapshot.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []*snapshot.Page
	for _, connID := range s.originToConnMap[pageID] {
		conn := s.connections[connID]

		target, exists := s.pages[conn.target]
		if !exists {
			return nil, fmt.Errorf("connections: %w", snapshot.ErrNotFound)
		}

		targets = append(targets, clonePage(target))
	}

	return targets, nil
}

// RemoveConnections deletes every connection originating from the page
// with the provided id within the provided build.
func (s *InMemoryStore) RemoveConnections(pageID, buildID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var retained []uuid.UUID
	for _, connID := range s.originToConnMap[pageID] {
		conn := s.connections[connID]
		if conn.buildID == buildID {
			delete(s.connections, connID)

			continue
		}

		retained = append(retained, connID)
	}

	s.originToConnMap[pageID] = retained

	return nil
}

// clonePage makes a defensive copy of a stored page, including its links
// slice.
func clonePage(page *snapshot.Page) *snapshot.Page {
	pCopy := new(snapshot.Page)
	*pCopy = *page
	pCopy.Links = append([]string(nil), page.Links...)

	return pCopy
}

// removeID returns ids with the first occurrence of id removed.
func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}
