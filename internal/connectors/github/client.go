package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// comparePageSize is the number of changed files per compare page.
	comparePageSize = 100
)

// ClientConfig configures API access.
type ClientConfig struct {
	// Token is a personal access token. Empty means unauthenticated.
	Token string

	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string

	// RequestsPerSecond throttles requests (0 = ProactiveRate, <0 = unlimited).
	RequestsPerSecond float64

	// HTTPClient is the base transport. The token, if any, is layered on top.
	HTTPClient *http.Client
}

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}

	hc := base
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
		hc.Timeout = base.Timeout
	}

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:          client,
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// BranchHead returns the commit SHA at the tip of branch.
func (c *Client) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	b, resp, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		err = c.wrapError(err, "get branch")
		if IsNotFound(err) {
			return "", fmt.Errorf("%w: %s/%s@%s: %w", ErrBranchNotFound, owner, repo, branch, err)
		}
		return "", err
	}

	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("github: branch %s has no head commit", branch)
	}
	return sha, nil
}

// Tree returns the paths of every blob in the recursive tree at sha.
// truncated is true when GitHub cut the listing short.
func (c *Client) Tree(ctx context.Context, owner, repo, sha string) (paths []string, truncated bool, err error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, sha, true)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, false, c.wrapError(err, "get tree")
	}

	paths = make([]string, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			paths = append(paths, entry.GetPath())
		}
	}
	return paths, tree.GetTruncated(), nil
}

// Compare lists the files changed between base and head, following pages.
func (c *Client) Compare(ctx context.Context, owner, repo, base, head string) ([]*gh.CommitFile, error) {
	var files []*gh.CommitFile
	opts := &gh.ListOptions{PerPage: comparePageSize}

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		cmp, resp, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			return nil, c.wrapError(err, "compare commits")
		}
		files = append(files, cmp.Files...)

		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// FileContent returns the bytes of path at ref. Files over 1 MB come back
// from the contents API without a body and are downloaded instead.
func (c *Client) FileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "get contents")
	}
	if file == nil {
		return nil, fmt.Errorf("github: %s is a directory, not a file", path)
	}

	if file.GetEncoding() != "none" && file.Content != nil {
		decoded, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		return []byte(decoded), nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	rc, resp, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "download contents")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt: time.Now().Add(abuseErr.GetRetryAfter()),
			Limit:   c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
