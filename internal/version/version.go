package version

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/analytics-api/internal/httpclient"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "v0.0.0"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
}

// Checker compares the running version against the latest published release.
type Checker struct {
	url     string
	current string
	client  *http.Client
}

func NewChecker(url, current string) *Checker {
	return &Checker{
		url:     url,
		current: current,
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

// Latest fetches the tag of the latest release.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	var release GitHubRelease
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if err := httpclient.GetJSON(ctx, c.client, c.url, headers, &release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

// Outdated reports whether a newer release exists, and its tag.
func (c *Checker) Outdated(ctx context.Context) (bool, string, error) {
	tag, err := c.Latest(ctx)
	if err != nil {
		return false, "", err
	}

	current, err := version.NewVersion(c.current)
	if err != nil {
		return false, "", fmt.Errorf("parsing current version %q: %w", c.current, err)
	}
	latest, err := version.NewVersion(tag)
	if err != nil {
		return false, "", fmt.Errorf("parsing release tag %q: %w", tag, err)
	}

	return current.LessThan(latest), tag, nil
}

// CheckForUpdates logs a warning when the running build is outdated. Lookup
// failures are logged at debug level only.
func (c *Checker) CheckForUpdates(ctx context.Context, logger *zap.Logger) {
	outdated, latest, err := c.Outdated(ctx)
	if err != nil {
		logger.Debug("Update check failed", zap.Error(err))
		return
	}
	if outdated {
		logger.Warn("You are running an outdated version",
			zap.String("current", c.current),
			zap.String("latest", latest),
		)
	}
}
