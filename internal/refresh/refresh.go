package refresh

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/logging"
)

// DefaultFiles are the IMDb exports the builder reads.
var DefaultFiles = []string{
	"title.basics.tsv.gz",
	"title.principals.tsv.gz",
	"name.basics.tsv.gz",
}

// Options configures a Refresher. Zero values fall back to the defaults of
// config.Load.
type Options struct {
	BaseURL          string
	DataDir          string
	Files            []string
	StaleAfter       time.Duration
	MaxRetries       int
	RetryWait        time.Duration
	BreakerThreshold uint32
	Client           *http.Client
	Logger           *slog.Logger
	Now              func() time.Time
}

// Refresher keeps local copies of the IMDb exports up to date.
type Refresher struct {
	opts    Options
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a Refresher.
func New(opts Options) *Refresher {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://datasets.imdbws.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if len(opts.Files) == 0 {
		opts.Files = DefaultFiles
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 24 * time.Hour
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryWait < 0 {
		opts.RetryWait = 0
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 5
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.Component(opts.Logger, "refresh")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "imdb-datasets",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Refresher{opts: opts, breaker: breaker, logger: logger}
}

// NewFromConfig wires a Refresher from application configuration.
func NewFromConfig(cfg config.RefreshConfig, dataDir string, logger *slog.Logger) *Refresher {
	return New(Options{
		BaseURL:    cfg.BaseURL,
		DataDir:    dataDir,
		StaleAfter: cfg.StaleAfter,
		MaxRetries: cfg.MaxRetries,
		RetryWait:  cfg.RetryWait,
		Client:     &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	})
}

// Run refreshes every file concurrently and reports whether any local copy
// changed. A failed download is only an error when no previous copy exists.
func (r *Refresher) Run(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(r.opts.DataDir, 0o755); err != nil {
		return false, fmt.Errorf("create data dir: %w", err)
	}

	var updated atomic.Bool
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range r.opts.Files {
		name := name
		g.Go(func() error {
			changed, err := r.refreshFile(ctx, name)
			if changed {
				updated.Store(true)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return updated.Load(), err
	}
	return updated.Load(), nil
}

func (r *Refresher) refreshFile(ctx context.Context, name string) (bool, error) {
	uri := r.opts.BaseURL + "/" + name
	gzPath := filepath.Join(r.opts.DataDir, name)
	logger := r.logger.With("file", name)

	if !r.NeedsUpdate(ctx, gzPath, uri) {
		logger.Info("file is up to date")
		return false, nil
	}

	logger.Info("downloading", "uri", uri)
	if err := r.download(ctx, uri, gzPath); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if _, statErr := os.Stat(gzPath); statErr == nil {
			logger.Warn("download failed, keeping existing copy", "error", err)
			return false, nil
		}
		return false, fmt.Errorf("download %s: %w", uri, err)
	}

	tsvPath := strings.TrimSuffix(gzPath, ".gz")
	if err := Decompress(gzPath, tsvPath); err != nil {
		return true, err
	}
	logger.Info("file refreshed", "path", tsvPath)
	return true, nil
}

// NeedsUpdate reports whether the copy at path is missing or older than the
// remote resource. Without a usable Last-Modified header the copy is
// considered stale once it is older than StaleAfter.
func (r *Refresher) NeedsUpdate(ctx context.Context, path, uri string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	localTime := info.ModTime()

	remoteTime, err := r.lastModified(ctx, uri)
	if err != nil {
		r.logger.Warn("could not read Last-Modified", "uri", uri, "error", err)
	}
	if !remoteTime.IsZero() {
		return remoteTime.After(localTime)
	}
	return r.opts.Now().Sub(localTime) >= r.opts.StaleAfter
}

func (r *Refresher) lastModified(ctx context.Context, uri string) (time.Time, error) {
	var modified time.Time
	err := r.retry(ctx, func() error {
		_, err := r.breaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
			if err != nil {
				return nil, err
			}
			resp, err := r.opts.Client.Do(req)
			if err != nil {
				return nil, err
			}
			resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("HEAD %s: %s", uri, resp.Status)
			}
			if header := resp.Header.Get("Last-Modified"); header != "" {
				if t, err := http.ParseTime(header); err == nil {
					modified = t
				}
			}
			return nil, nil
		})
		return err
	})
	return modified, err
}

func (r *Refresher) download(ctx context.Context, uri, path string) error {
	return r.retry(ctx, func() error {
		_, err := r.breaker.Execute(func() (interface{}, error) {
			return nil, r.fetch(ctx, uri, path)
		})
		return err
	})
}

func (r *Refresher) fetch(ctx context.Context, uri, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	resp, err := r.opts.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", uri, resp.Status)
	}
	return writeAtomic(path, resp.Body)
}

// retry runs fn up to MaxRetries times with a fixed wait between attempts.
func (r *Refresher) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.opts.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || attempt == r.opts.MaxRetries {
			break
		}
		r.logger.Debug("attempt failed", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.RetryWait):
		}
	}
	return fmt.Errorf("after %d attempts: %w", r.opts.MaxRetries, err)
}

// Decompress gunzips src into dst, replacing dst only once fully written.
func Decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	defer zr.Close()

	if err := writeAtomic(dst, zr); err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	return nil
}

func writeAtomic(path string, body io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
