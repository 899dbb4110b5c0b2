/*
	mediawiki package implements the wikisource.Source capability against
	a MediaWiki-compatible api.php endpoint.
*/

package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/wikisource"
)

const (
	// listPageBatchSize is the aplimit value used when enumerating pages.
	listPageBatchSize = "500"

	// maxAttempts bounds the retries for a single API call.
	maxAttempts = 2

	defaultRequestTimeout = 10 * time.Second
)

// HTTPDoer should be implemented by objects that perform HTTP requests
// to fetch wiki API data.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Static and compile-time check to ensure Client implements
// wikisource.Source interface.
var _ wikisource.Source = (*Client)(nil)

// Client is a wikisource.Source implementation backed by the MediaWiki
// action API.
type Client struct {
	apiURL     string
	httpClient HTTPDoer
	logger     *logrus.Entry
}

// NewClient returns a Client that issues requests against the provided
// api.php URL. When httpClient is nil, a default client with a per-call
// timeout is used. When logger is nil, log output is discarded.
func NewClient(apiURL string, httpClient HTTPDoer, logger *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return &Client{
		apiURL:     apiURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type allPagesResponse struct {
	Continue struct {
		APContinue string `json:"apcontinue"`
	} `json:"continue"`
	Query struct {
		AllPages []struct {
			PageID int    `json:"pageid"`
			Title  string `json:"title"`
		} `json:"allpages"`
	} `json:"query"`
}

type pageInfoResponse struct {
	Query struct {
		Pages []struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			FullURL string `json:"fullurl"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}

type parseResponse struct {
	Parse struct {
		PageID int    `json:"pageid"`
		Title  string `json:"title"`
		Text   string `json:"text"`
	} `json:"parse"`
}

// ListPageNames enumerates the titles of all content pages, following
// the API continuation cursor. Any source failure yields an empty slice.
func (c *Client) ListPageNames(ctx context.Context) []string {
	var (
		names        []string
		continueFrom string
	)

	for {
		params := url.Values{
			"action":  {"query"},
			"list":    {"allpages"},
			"aplimit": {listPageBatchSize},
		}
		if continueFrom != "" {
			params.Set("apcontinue", continueFrom)
		}

		var resp allPagesResponse
		if err := c.call(ctx, params, &resp); err != nil {
			c.logger.WithField("err", err).Error("could not list wiki page names")

			return nil
		}

		for _, page := range resp.Query.AllPages {
			names = append(names, page.Title)
		}

		if resp.Continue.APContinue == "" {
			return names
		}

		continueFrom = resp.Continue.APContinue
	}
}

// FetchPage retrieves the metadata and rendered HTML for the page with
// the provided title. Any source failure, including a missing page,
// yields nil.
func (c *Client) FetchPage(ctx context.Context, title string) *wikisource.PageData {
	var info pageInfoResponse

	err := c.call(ctx, url.Values{
		"action": {"query"},
		"prop":   {"info"},
		"inprop": {"url"},
		"titles": {title},
	}, &info)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"title": title,
			"err":   err,
		}).Error("could not fetch wiki page info")

		return nil
	}

	if len(info.Query.Pages) == 0 || info.Query.Pages[0].Missing {
		c.logger.WithField("title", title).Warn("wiki page not found")

		return nil
	}

	meta := info.Query.Pages[0]

	var parsed parseResponse
	err = c.call(ctx, url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"text"},
	}, &parsed)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"title": title,
			"err":   err,
		}).Error("could not fetch wiki page content")

		return nil
	}

	return &wikisource.PageData{
		WikiID: meta.PageID,
		Title:  meta.Title,
		URL:    meta.FullURL,
		HTML:   parsed.Parse.Text,
	}
}

// call performs a single API action with bounded retries and decodes the
// JSON response into target.
func (c *Client) call(ctx context.Context, params url.Values, target interface{}) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	requestURL := c.apiURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if lastErr = c.doCall(ctx, requestURL, target); lastErr == nil {
			return nil
		}

		// Do not retry calls the caller has already abandoned.
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) doCall(ctx context.Context, requestURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("wiki api call: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wiki api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wiki api call: unexpected status %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("wiki api call: decode response: %w", err)
	}

	return nil
}
