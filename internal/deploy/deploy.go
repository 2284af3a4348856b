// Package deploy hands a project's file set to the hosting pipeline and
// resolves the public URL it ends up on. The pipeline is content-addressed:
// every upload carries a manifest of path to content hash so unchanged files
// are skipped server-side.
package deploy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/parchlabs/sitesmith/internal/logger"
)

// PlaceholderURL is returned by the pipeline while the real domain is still
// being provisioned. It must never be surfaced to the user as a result.
const PlaceholderURL = "https://test.pages.dev"

var urlRe = regexp.MustCompile(`Take a peek over at\s+(https://[^\s]+)`)

// Normalize rewrites file names to the form the pipeline requires: no
// leading slash. Colliding names after normalization are last-write-wins.
func Normalize(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for name, content := range files {
		out[strings.TrimPrefix(name, "/")] = content
	}
	return out
}

// Manifest maps each file path to the hex SHA-256 of its content.
func Manifest(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for name, content := range files {
		sum := sha256.Sum256([]byte(content))
		out[name] = hex.EncodeToString(sum[:])
	}
	return out
}

// ExtractURL finds the public URL in the pipeline's log output. Wrangler
// prints it on the "Take a peek over at" line, sometimes with a trailing
// period that is not part of the URL.
func ExtractURL(logs string) (string, bool) {
	m := urlRe.FindStringSubmatch(logs)
	if m == nil {
		return "", false
	}
	url := strings.TrimSpace(m[1])
	url = strings.TrimSuffix(url, ".")
	return url, true
}

// Options configures a Client.
type Options struct {
	Endpoint     string        // Base URL of the deployment pipeline
	Token        string        // Bearer token, optional
	PollAttempts int           // Domain polling budget, default 40
	PollInterval time.Duration // Delay between polls, default 3s
	Timeout      time.Duration // Per-request HTTP timeout
}

// Client talks to the deployment pipeline.
type Client struct {
	endpoint     string
	token        string
	pollAttempts int
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewClient creates a deployment client.
func NewClient(opts Options) *Client {
	if opts.PollAttempts == 0 {
		opts.PollAttempts = 40
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Client{
		endpoint:     strings.TrimRight(opts.Endpoint, "/"),
		token:        opts.Token,
		pollAttempts: opts.PollAttempts,
		pollInterval: opts.PollInterval,
		httpClient:   &http.Client{Timeout: opts.Timeout},
	}
}

// Result is a successful deployment.
type Result struct {
	URL  string `json:"url"`
	Logs string `json:"logs,omitempty"`
}

type deployRequest struct {
	Project  string            `json:"project"`
	Files    map[string]string `json:"files"`
	Manifest map[string]string `json:"manifest"`
}

type deployResponse struct {
	URL   string `json:"url"`
	Logs  string `json:"logs"`
	Error string `json:"error"`
}

type domainResponse struct {
	Domain string `json:"domain"`
}

// Deploy uploads the file set and returns the public URL. The pipeline may
// answer with a placeholder domain before provisioning finishes; in that
// case the logs are checked for the real URL first and the domain endpoint
// is polled as a fallback.
func (c *Client) Deploy(ctx context.Context, project string, files map[string]string) (*Result, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to deploy: project has no files")
	}

	normalized := Normalize(files)
	body, err := json.Marshal(deployRequest{
		Project:  project,
		Files:    normalized,
		Manifest: Manifest(normalized),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deploy request: %w", err)
	}

	logger.Info("Deploying project %s: %d files", project, len(normalized))

	resp, err := c.post(ctx, c.endpoint+"/deploy", body)
	if err != nil {
		return nil, err
	}

	if resp.Error != "" {
		// Keep the logs around even on failure; the repair loop runs off them.
		return &Result{Logs: resp.Logs}, fmt.Errorf("deployment failed: %s", resp.Error)
	}

	url := resp.URL
	if url == "" || url == PlaceholderURL {
		// Provisioning lag: the real domain shows up in the logs before
		// the API reports it
		if real, ok := ExtractURL(resp.Logs); ok {
			url = real
		} else {
			url, err = c.ResolveURL(ctx, project)
			if err != nil {
				return nil, err
			}
		}
	}

	logger.Info("Deployed project %s at %s", project, url)
	return &Result{URL: url, Logs: resp.Logs}, nil
}

// ResolveURL polls the pipeline's domain endpoint until a real domain is
// reported or the attempt budget runs out.
func (c *Client) ResolveURL(ctx context.Context, project string) (string, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		domain, err := c.fetchDomain(ctx, project)
		if err != nil {
			logger.Debug("Domain poll %d/%d failed: %v", attempt+1, c.pollAttempts, err)
			continue
		}
		if domain != "" && domain != PlaceholderURL {
			return domain, nil
		}
	}
	return "", fmt.Errorf("domain not available after %d attempts", c.pollAttempts)
}

func (c *Client) fetchDomain(ctx context.Context, project string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/deploy/%s/domain", c.endpoint, project), nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("domain endpoint returned %d", resp.StatusCode)
	}

	var parsed domainResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Domain, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*deployResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deploy request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy response: %w", err)
	}

	var parsed deployResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("deploy endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("failed to unmarshal deploy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && parsed.Error == "" {
		return nil, fmt.Errorf("deploy endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return &parsed, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
