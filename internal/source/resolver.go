// Package source arbitrates between the cache, the primary remote endpoint,
// and the local fallback document when loading a subject's dataset.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/lessonloop/scenario-backend/internal/cache"
	"github.com/lessonloop/scenario-backend/internal/config"
	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/normalize"
	"github.com/lessonloop/scenario-backend/internal/scene"
	"github.com/lessonloop/scenario-backend/internal/types"
)

// DatasetTTL bounds how long a cached dataset stays servable.
const DatasetTTL = 60 * time.Minute

const maxRemoteBody = 8 << 20

var (
	// ErrAllSourcesExhausted means no source produced a dataset. Fatal for
	// the session; the caller shows a terminal error state.
	ErrAllSourcesExhausted = errors.New("all dataset sources exhausted")
	// ErrUnknownSubject means the subject has no configured sources.
	ErrUnknownSubject = errors.New("unknown subject")
)

// Resolver tries sources in order until one yields a dataset containing the
// requested scene. Sources are tried sequentially, never concurrently, so
// the first sufficient one short-circuits the rest.
type Resolver struct {
	cfg    *config.Config
	cache  cache.Store
	client *http.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewResolver(cfg *config.Config, store cache.Store, baseLog *logger.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		cache:  store,
		client: &http.Client{Timeout: 15 * time.Second},
		ttl:    DatasetTTL,
		log:    baseLog.With("service", "SourceResolver"),
	}
}

// Resolve loads the subject's dataset from the first sufficient source:
// cache, then remote, then local fallback. Failures on one source demote to
// the next; only exhaustion is an error.
func (r *Resolver) Resolve(ctx context.Context, subject, requestedScene string) (*types.Dataset, error) {
	src, ok := r.cfg.Source(subject)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}

	if lines, ok := r.fromCache(ctx, subject, requestedScene); ok {
		r.log.Debug("dataset served from cache", "subject", subject)
		return &types.Dataset{Subject: subject, Lines: lines}, nil
	}

	if src.RemoteURL != "" {
		lines, err := r.fromRemote(ctx, src.RemoteURL)
		switch {
		case err != nil:
			r.log.Warn("remote source failed, falling back", "subject", subject, "error", err)
		case !r.sufficient(lines, requestedScene):
			// A successful response that lacks the needed scene is still a
			// miss; accepting it would strand the requested topic.
			r.log.Warn("remote dataset lacks requested scene, falling back",
				"subject", subject, "scene", requestedScene)
		default:
			r.writeThrough(ctx, subject, lines)
			return &types.Dataset{Subject: subject, Lines: lines}, nil
		}
	}

	if src.FallbackCSV != "" {
		lines, err := r.fromLocal(src.FallbackCSV)
		if err != nil {
			r.log.Warn("local fallback source failed", "subject", subject, "error", err)
		} else {
			// The dataset of last resort is accepted regardless of scene
			// containment; the scene index falls back to a default scene.
			r.writeThrough(ctx, subject, lines)
			return &types.Dataset{Subject: subject, Lines: lines}, nil
		}
	}

	return nil, fmt.Errorf("%w: subject %q", ErrAllSourcesExhausted, subject)
}

// sufficient reports whether a dataset can serve the requested scene. A
// request for the default entry scene accepts any dataset.
func (r *Resolver) sufficient(lines []types.Line, requestedScene string) bool {
	if requestedScene == "" || requestedScene == scene.DefaultScene {
		return true
	}
	return scene.Contains(lines, requestedScene)
}

func (r *Resolver) fromCache(ctx context.Context, subject, requestedScene string) ([]types.Line, bool) {
	entry, ok, err := r.cache.Get(ctx, subject)
	if err != nil {
		r.log.Warn("cache read failed", "subject", subject, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if entry.Age >= r.ttl {
		r.log.Debug("cache entry stale", "subject", subject, "age", entry.Age)
		return nil, false
	}

	var lines []types.Line
	if err := json.Unmarshal(entry.Payload, &lines); err != nil {
		r.log.Warn("cache entry undecodable", "subject", subject, "error", err)
		return nil, false
	}
	if !r.sufficient(lines, requestedScene) {
		// Fresh but incomplete: the entry predates this scene's authoring.
		r.log.Debug("cache entry lacks requested scene", "subject", subject, "scene", requestedScene)
		return nil, false
	}
	return lines, true
}

func (r *Resolver) fromRemote(ctx context.Context, url string) ([]types.Line, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rows: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("read rows body: %w", err)
	}
	rows, err := normalize.ParseJSONRows(body)
	if err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	return normalize.Normalize(rows), nil
}

func (r *Resolver) fromLocal(path string) ([]types.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fallback: %w", err)
	}
	defer f.Close()

	rows, err := normalize.ParseCSVRows(f)
	if err != nil {
		return nil, fmt.Errorf("parse fallback: %w", err)
	}
	return normalize.Normalize(rows), nil
}

// writeThrough caches a freshly loaded dataset. Storage failures degrade to
// "no cache": logged, never surfaced to the caller.
func (r *Resolver) writeThrough(ctx context.Context, subject string, lines []types.Line) {
	payload, err := json.Marshal(lines)
	if err != nil {
		r.log.Warn("cache write-through encode failed", "subject", subject, "error", err)
		return
	}
	if err := r.cache.Put(ctx, subject, payload); err != nil {
		r.log.Warn("cache write-through failed", "subject", subject, "error", err)
	}
}
