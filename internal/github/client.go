package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Client fetches release metadata and assets for one GitHub repository.
type Client struct {
	repo         string // "owner/name"
	apiBase      string
	downloadBase string
	httpClient   *http.Client
}

// NewClient creates a release client for the given "owner/name" repository.
func NewClient(repo string) *Client {
	return &Client{
		repo:         repo,
		apiBase:      "https://api.github.com",
		downloadBase: "https://github.com",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Release is one GitHub release of the firmware repository.
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// ListReleases fetches all releases, newest first.
func (c *Client) ListReleases() ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", c.apiBase, c.repo)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", url, resp.StatusCode, body)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("parsing releases: %w", err)
	}
	sort.Slice(releases, func(i, j int) bool {
		return releases[i].PublishedAt.After(releases[j].PublishedAt)
	})
	return releases, nil
}

// DownloadAsset streams a release asset to w. The progress callback, if not
// nil, receives a percentage after each chunk; it is only called when the
// asset size is known.
func (c *Client) DownloadAsset(tag, name string, w io.Writer, progress func(int)) error {
	url := fmt.Sprintf("%s/%s/releases/download/%s/%s", c.downloadBase, c.repo, tag, name)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}

	total := resp.ContentLength
	buf := make([]byte, 8192)
	var copied int64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing asset %s: %w", name, werr)
			}
			copied += int64(n)
			if progress != nil && total > 0 {
				progress(int(copied * 100 / total))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("downloading asset %s: %w", name, rerr)
		}
	}
}
