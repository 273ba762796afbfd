// Package ranges consumes the published IP-ranges feed and extracts the
// per-service, per-family CIDR lists selected by the configuration.
package ranges

import (
	"context"
	"crypto/md5" // #nosec G501 -- feed integrity contract is MD5, not authentication
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultFeedURL is the published location of the IP-ranges feed.
const DefaultFeedURL = "https://ip-ranges.amazonaws.com/ip-ranges.json"

// PrefixRecord is one IPv4 entry of the feed.
type PrefixRecord struct {
	IPPrefix string `json:"ip_prefix"`
	Region   string `json:"region"`
	Service  string `json:"service"`
}

// IPv6PrefixRecord is one IPv6 entry of the feed.
type IPv6PrefixRecord struct {
	IPv6Prefix string `json:"ipv6_prefix"`
	Region     string `json:"region"`
	Service    string `json:"service"`
}

// Document is the feed file. Only service, region and the prefix fields are
// consumed; syncToken and createDate are logged for traceability.
type Document struct {
	SyncToken    string             `json:"syncToken"`
	CreateDate   string             `json:"createDate"`
	Prefixes     []PrefixRecord     `json:"prefixes"`
	IPv6Prefixes []IPv6PrefixRecord `json:"ipv6_prefixes"`
}

// Fetcher retrieves and integrity-checks the feed document.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a feed fetcher with a sane request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewFetcherWithClient creates a fetcher using the given HTTP client
// (for testing).
func NewFetcherWithClient(c *http.Client) *Fetcher {
	return &Fetcher{httpClient: c}
}

// Fetch downloads the feed from url and verifies its MD5 hex digest
// against expectedMD5 before parsing. An empty expectedMD5 skips
// verification. Any failure here is fatal to the run.
func (f *Fetcher) Fetch(ctx context.Context, url, expectedMD5 string) (*Document, error) {
	if !strings.HasPrefix(strings.ToLower(url), "http") {
		return nil, fmt.Errorf("expecting an HTTP protocol URL, got %q", url)
	}

	log.Info("Fetching IP ranges feed", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected feed response status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	sum := md5.Sum(body) // #nosec G401
	digest := hex.EncodeToString(sum[:])
	if expectedMD5 == "" {
		log.Warn("No feed checksum supplied, skipping integrity verification")
	} else if !strings.EqualFold(digest, expectedMD5) {
		return nil, fmt.Errorf("feed integrity mismatch: got MD5 %q, expected %q", digest, expectedMD5)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	log.Info("Fetched IP ranges feed",
		"syncToken", doc.SyncToken,
		"createDate", doc.CreateDate,
		"ipv4Prefixes", len(doc.Prefixes),
		"ipv6Prefixes", len(doc.IPv6Prefixes))
	return &doc, nil
}
