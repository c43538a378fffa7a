package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/types"
)

var (
	// ErrArxivUnavailable means the arXiv API could not be reached or refused the query
	ErrArxivUnavailable = errors.New("failed to connect to arXiv API")
	// ErrArxivResponse means the arXiv API answered with something other than an Atom feed
	ErrArxivResponse = errors.New("failed to parse arXiv API response")
)

// ArxivInterface searches the arXiv catalogue
type ArxivInterface interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.Paper, error)
}

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// ArxivClient queries the arXiv export API
type ArxivClient struct {
	httpClient *HTTPClient
}

// NewArxivClient creates a client for the configured export API endpoint
func NewArxivClient(c config.PaperSearchServerConfig) *ArxivClient {
	return &ArxivClient{
		httpClient: NewHTTPClient(c.ArxivURL, HTTPClientConfig{Timeout: c.Timeout}),
	}
}

// Search returns up to maxResults papers matching query, newest first
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) ([]types.Paper, error) {
	resp, err := c.httpClient.DoRequest(ctx, Request{
		Method: http.MethodGet,
		QueryParams: map[string]string{
			"search_query": "all:" + query,
			"start":        "0",
			"max_results":  strconv.Itoa(maxResults),
			"sortBy":       "submittedDate",
			"sortOrder":    "descending",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArxivUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s for url: %s", ErrArxivUnavailable, resp.Status, resp.Request.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArxivUnavailable, err)
	}

	papers, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	logger.Info("arXiv search finished",
		zap.String("query", query),
		zap.Int("maxResults", maxResults),
		zap.Int("papers", len(papers)),
	)
	return papers, nil
}

func parseFeed(data []byte) ([]types.Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArxivResponse, err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p := types.Paper{
			Title:     strings.Join(strings.Fields(e.Title), " "),
			Summary:   strings.TrimSpace(e.Summary),
			Published: strings.TrimSpace(e.Published),
			Authors:   make([]string, 0, len(e.Authors)),
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		for _, l := range e.Links {
			if l.Title == "pdf" {
				p.PdfURL = l.Href
				break
			}
		}
		papers = append(papers, p)
	}
	return papers, nil
}
