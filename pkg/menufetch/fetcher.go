// Package menufetch retrieves a user-supplied menu URL and extracts the
// plain text used for analysis. All outbound requests go through an
// SSRF-hardened client so the service never reaches private networks.
package menufetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"go.uber.org/zap"
)

// Fetcher resolves a menu URL into plain text suitable for prompting.
type Fetcher interface {
	// FetchText downloads the URL and returns the extracted menu text.
	FetchText(ctx context.Context, rawURL string) (string, error)
}

type fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// Compile-time check that fetcher implements Fetcher
var _ Fetcher = (*fetcher)(nil)

// NewFetcher creates a Fetcher with the given timeout and response size cap.
// The underlying client validates resolved addresses at dial time, so
// requests to private, loopback, and link-local ranges are refused even
// when the hostname resolves there after this package's static check.
func NewFetcher(timeout time.Duration, maxBytes int64, logger *zap.Logger) *fetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &fetcher{
		client:   safeurl.Client(config).Client,
		maxBytes: maxBytes,
		logger:   logger.Named("menufetch"),
	}
}

// FetchText downloads the URL and returns the extracted menu text.
func (f *fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	return f.fetch(ctx, rawURL)
}

func (f *fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid menu URL: %w", err)
	}
	req.Header.Set("Accept", "text/html, text/plain")
	req.Header.Set("User-Agent", "menuguard-engine/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch menu URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("menu URL returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read menu page: %w", err)
	}

	text := ExtractText(string(body))
	if text == "" {
		return "", fmt.Errorf("menu URL contained no readable text")
	}

	f.logger.Debug("fetched menu URL",
		zap.String("host", req.URL.Hostname()),
		zap.Int("bytes", len(body)),
		zap.Int("text_length", len(text)))

	return text, nil
}

// blockedNetworks are rejected before any request is made. The safeurl
// dialer re-checks resolved addresses, which also covers DNS rebinding.
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// ValidateURL performs a static safety check before any request is sent.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("disallowed scheme: %s", scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL")
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}
