package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/guezito-dev/gigachads/internal/ranking"
)

// ErrDataUnavailable means neither the remote nor the local ranking could be
// read. Widgets render the static error panel for it.
var ErrDataUnavailable = errors.New("ranking data unavailable")

// Loader reads the published ranking, preferring the remote copy and falling
// back to the local file. A successful load is reused for ttl.
type Loader struct {
	httpClient *http.Client
	remoteURL  string
	localPath  string
	ttl        time.Duration

	mu       sync.RWMutex
	cached   *ranking.Artifact
	loadedAt time.Time
	now      func() time.Time
}

// NewLoader creates a loader. Either source may be empty. A zero ttl reloads
// on every call.
func NewLoader(remoteURL, localPath string, timeout, ttl time.Duration) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		remoteURL:  remoteURL,
		localPath:  localPath,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Load returns the ranking artifact or an error wrapping ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (*ranking.Artifact, error) {
	l.mu.RLock()
	cached, loadedAt := l.cached, l.loadedAt
	l.mu.RUnlock()
	if cached != nil && l.now().Sub(loadedAt) < l.ttl {
		return cached, nil
	}

	art, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cached, l.loadedAt = art, l.now()
	l.mu.Unlock()
	return art, nil
}

func (l *Loader) load(ctx context.Context) (*ranking.Artifact, error) {
	var remoteErr error
	if l.remoteURL != "" {
		art, err := l.fetchRemote(ctx)
		if err == nil {
			return art, nil
		}
		remoteErr = err
		slog.Warn("Remote ranking unavailable, trying local copy", "url", l.remoteURL, "error", err)
	}

	if l.localPath != "" {
		art, err := ranking.Load(l.localPath)
		if err == nil {
			return art, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, errors.Join(remoteErr, err))
	}

	if remoteErr == nil {
		remoteErr = errors.New("no ranking source configured")
	}
	return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, remoteErr)
}

func (l *Loader) fetchRemote(ctx context.Context) (*ranking.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote ranking returned %d", resp.StatusCode)
	}

	var art ranking.Artifact
	if err := json.NewDecoder(resp.Body).Decode(&art); err != nil {
		return nil, fmt.Errorf("failed to decode remote ranking: %w", err)
	}
	return &art, nil
}
