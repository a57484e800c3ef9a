package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/cratemod/pkg/cache"
	"github.com/matzehuels/cratemod/pkg/integrations"
)

// ErrNoMatch is returned when a crate exists but no published version
// satisfies the requested version requirement.
var ErrNoMatch = errors.New("no matching version")

// VersionInfo is one published version of a crate.
type VersionInfo struct {
	// Num is the version number (e.g., "1.0.219").
	Num string `json:"num"`
	// Yanked versions still exist but are never resolved to.
	Yanked bool `json:"yanked"`
	// Features maps each feature name to the features and dependencies
	// it activates.
	Features map[string][]string `json:"features"`
}

// CrateInfo holds metadata for a crate fetched from crates.io.
//
// Versions are ordered as the API returns them (newest first). All
// fields are safe for concurrent reads after construction.
type CrateInfo struct {
	Name             string        // Crate name as published
	MaxVersion       string        // Highest version, including pre-releases
	MaxStableVersion string        // Highest stable version (may be empty)
	Description      string        // Crate description (may be empty)
	Repository       string        // Repository URL (may be empty)
	Documentation    string        // Documentation URL (may be empty)
	Downloads        int           // Total download count across all versions
	Versions         []VersionInfo // Published versions with feature maps
}

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
//
// Parameters:
//   - backend: cache backend for response caching (use cache.NewNullCache() for none)
//   - cacheTTL: how long responses are cached (typical: 1-24 hours)
//
// The client includes a User-Agent header as required by crates.io API policy.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": "cratemod/1.0 (https://github.com/matzehuels/cratemod)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// FetchCrate retrieves metadata and the published version list for a
// crate. If refresh is true, the cache is bypassed.
//
// Returns [integrations.ErrNotFound] if the crate doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchCrate(ctx context.Context, crate string, refresh bool) (*CrateInfo, error) {
	var info CrateInfo
	err := c.Cached(ctx, crate, refresh, &info, func() error {
		return c.fetch(ctx, crate, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Resolve picks the best published version of a crate for an optional
// version requirement: the newest non-yanked version that satisfies it.
// With an empty requirement, stable versions win over pre-releases.
//
// Returns ErrNoMatch when the crate exists but nothing satisfies req.
func (c *Client) Resolve(ctx context.Context, crate, req string, refresh bool) (*VersionInfo, error) {
	info, err := c.FetchCrate(ctx, crate, refresh)
	if err != nil {
		return nil, err
	}

	var best *VersionInfo
	for i := range info.Versions {
		v := &info.Versions[i]
		if v.Yanked || !matchesReq(v.Num, req) {
			continue
		}
		if req == "" && isPrerelease(v.Num) {
			continue
		}
		if best == nil || newerVersion(v.Num, best.Num) {
			best = v
		}
	}
	if best == nil && req == "" {
		// Only pre-releases published; take the newest one.
		for i := range info.Versions {
			v := &info.Versions[i]
			if v.Yanked {
				continue
			}
			if best == nil || newerVersion(v.Num, best.Num) {
				best = v
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: crate `%s` has no version matching `%s`", ErrNoMatch, crate, req)
	}
	return best, nil
}

func (c *Client) fetch(ctx context.Context, crate string, info *CrateInfo) error {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, integrations.URLEncode(crate)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}

	*info = CrateInfo{
		Name:             data.Crate.Name,
		MaxVersion:       data.Crate.MaxVersion,
		MaxStableVersion: data.Crate.MaxStableVersion,
		Description:      data.Crate.Description,
		Repository:       data.Crate.Repository,
		Documentation:    data.Crate.Documentation,
		Downloads:        data.Crate.Downloads,
		Versions:         data.Versions,
	}
	return nil
}

func isPrerelease(num string) bool {
	v, ok := parseVersion(num)
	return ok && v.pre != ""
}

type crateResponse struct {
	Crate struct {
		Name             string `json:"name"`
		MaxVersion       string `json:"max_version"`
		MaxStableVersion string `json:"max_stable_version"`
		Description      string `json:"description"`
		Repository       string `json:"repository"`
		Documentation    string `json:"documentation"`
		Downloads        int    `json:"downloads"`
	} `json:"crate"`
	Versions []VersionInfo `json:"versions"`
}
