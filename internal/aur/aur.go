package aur

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/frederic-klein/pkgquery/internal/pkg"
)

// DefaultURL is the public AUR instance.
const DefaultURL = "https://aur.archlinux.org"

// maxInfoArgs bounds the names sent in one info request.
const maxInfoArgs = 150

// Client queries the AUR RPC interface (version 5).
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

type rpcResponse struct {
	Type        string      `json:"type"`
	Error       string      `json:"error"`
	ResultCount int         `json:"resultcount"`
	Results     []rpcResult `json:"results"`
}

type rpcResult struct {
	ID          int      `json:"ID"`
	Name        string   `json:"Name"`
	PackageBase string   `json:"PackageBase"`
	Version     string   `json:"Version"`
	Description string   `json:"Description"`
	URL         string   `json:"URL"`
	URLPath     string   `json:"URLPath"`
	Maintainer  *string  `json:"Maintainer"`
	NumVotes    int      `json:"NumVotes"`
	Popularity  float64  `json:"Popularity"`
	OutOfDate   *int64   `json:"OutOfDate"`
	License     []string `json:"License"`
	Depends     []string `json:"Depends"`
}

// NewClient creates a client for the AUR at baseURL. With insecure set, TLS
// certificates are not verified.
func NewClient(baseURL string, insecure bool, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Info returns the records for the given package names, in the order the
// service reports them. Long name lists are split into several requests
// sent in parallel. Failed requests are logged and yield no records.
func (c *Client) Info(ctx context.Context, names []string) []*pkg.AURPackage {
	var out []*pkg.AURPackage
	for _, r := range c.fetchBatches(ctx, splitBatches(names, maxInfoArgs)) {
		if r.err != nil {
			c.logger.Warn("AUR info request failed", "names", len(r.job.names), "err", r.err)
			continue
		}
		out = append(out, r.records...)
	}
	return out
}

// Search returns the records whose name or description matches term.
func (c *Client) Search(ctx context.Context, term string) []*pkg.AURPackage {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "search")
	q.Set("arg", term)
	results, err := c.call(ctx, q)
	if err != nil {
		c.logger.Warn("AUR search failed", "term", term, "err", err)
		return nil
	}
	return results
}

func (c *Client) call(ctx context.Context, q url.Values) ([]*pkg.AURPackage, error) {
	apiURL := fmt.Sprintf("%s/rpc/?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("querying AUR", "url", apiURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying AUR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AUR RPC error: HTTP %d", resp.StatusCode)
	}

	var body rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if body.Type == "error" {
		return nil, fmt.Errorf("AUR RPC error: %s", body.Error)
	}

	records := make([]*pkg.AURPackage, 0, len(body.Results))
	for _, r := range body.Results {
		records = append(records, r.record())
	}
	return records, nil
}

func (r rpcResult) record() *pkg.AURPackage {
	a := &pkg.AURPackage{
		ID:          r.ID,
		Name:        r.Name,
		PackageBase: r.PackageBase,
		Version:     r.Version,
		Description: r.Description,
		URL:         r.URL,
		URLPath:     r.URLPath,
		Votes:       r.NumVotes,
		Popularity:  r.Popularity,
		Licenses:    r.License,
		Depends:     r.Depends,
	}
	if r.Maintainer != nil {
		a.Maintainer = *r.Maintainer
	}
	if r.OutOfDate != nil {
		a.OutOfDate = time.Unix(*r.OutOfDate, 0)
	}
	return a
}
