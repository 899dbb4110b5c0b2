/*
	dataset package answers dataset queries directly against the live
	wiki source rather than the snapshot store: callers get the page set
	and page connections as the wiki reports them right now, independent
	of any build generation.
*/

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/links"
	"github.com/mycok/wikigraph/wikisource"
)

// ErrPageNotFound is returned when a named page does not exist on the
// wiki.
var ErrPageNotFound = errors.New("page not found")

// Page describes a single wiki page as reported by the live source.
type Page struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// Config defines configurations for the dataset query service.
type Config struct {
	// An API for enumerating and fetching wiki pages.
	Source wikisource.Source

	// The number of concurrent workers used for fetching pages. If not
	// specified, the number of available CPUs will be used instead.
	NumWorkers int

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Source == nil {
		err = multierror.Append(err, fmt.Errorf("wiki source API not provided"))
	}

	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Service resolves dataset queries against the live wiki source.
type Service struct {
	config Config
}

// New creates and returns a fully configured dataset query service.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("dataset: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// GetAllPages returns the full set of pages the wiki currently reports,
// in listing order. Pages that cannot be fetched are skipped.
func (s *Service) GetAllPages(ctx context.Context) []Page {
	names := s.config.Source.ListPageNames(ctx)

	pages := make([]Page, 0, len(names))
	for i, data := range s.fetchAll(ctx, names) {
		if data == nil {
			s.config.Logger.WithField("title", names[i]).Warn("skipping page: fetch failed")

			continue
		}

		pages = append(pages, Page{
			ID:   data.WikiID,
			Name: data.Title,
			Link: data.URL,
		})
	}

	return pages
}

// GetPageConnections returns the ids of the pages the named page links
// to, in document order. Links that point to pages the wiki cannot
// resolve are skipped.
func (s *Service) GetPageConnections(ctx context.Context, name string) ([]int, error) {
	data := s.config.Source.FetchPage(ctx, name)
	if data == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrPageNotFound)
	}

	linkSet := links.ExtractLinks(data.HTML)

	titles := make([]string, 0, len(linkSet))
	seen := make(map[string]struct{}, len(linkSet))
	for _, link := range linkSet {
		if link.Title == "" {
			continue
		}

		if _, ok := seen[link.Title]; ok {
			continue
		}

		seen[link.Title] = struct{}{}
		titles = append(titles, link.Title)
	}

	titleToID := make(map[string]int, len(titles))
	for i, linked := range s.fetchAll(ctx, titles) {
		if linked == nil {
			s.config.Logger.WithField("title", titles[i]).Warn("skipping link target: fetch failed")

			continue
		}

		titleToID[linked.Title] = linked.WikiID
	}

	return links.ResolvePageIDs(linkSet, titleToID), nil
}

// fetchAll fetches the named pages using a pool of workers and returns
// the results in input order. Pages that fail to fetch come back nil.
func (s *Service) fetchAll(ctx context.Context, names []string) []*wikisource.PageData {
	results := make([]*wikisource.PageData, len(names))

	var wg sync.WaitGroup

	indexCh := make(chan int)

	for i := 0; i < s.config.NumWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range indexCh {
				if ctx.Err() != nil {
					continue
				}

				results[idx] = s.config.Source.FetchPage(ctx, names[idx])
			}
		}()
	}

	for i := range names {
		indexCh <- i
	}

	close(indexCh)
	wg.Wait()

	return results
}
