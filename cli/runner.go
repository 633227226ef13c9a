// Command execution for CLI commands.
//
// Information Hiding:
// - Host, cache and engine wiring hidden behind Open
// - Query construction from flags hidden
// - Output formatting hidden (render.go)

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/config"
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/engine/builtin"
	"github.com/richinex/periscope/federation"
	"github.com/richinex/periscope/fixture"
	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/metrics"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/storage"
)

// Options holds CLI execution options.
type Options struct {
	ConfigPath string
	Fixture    string // overrides the configured fixture
	CachePath  string // overrides the configured cache path
	NoCache    bool   // skip cached answers; fresh ones are still stored
	JSON       bool
	Metrics    bool // print engine metrics after the command
	Verbose    bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{}
}

// Session is everything a command needs: settings, the host and a manager
// with every configured camera initialized.
type Session struct {
	Settings config.Settings
	Manager  *federation.Manager
	Cache    *storage.RequestCache[engine.Results]
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	opts  Options
	store *storage.SqliteStorage
}

// Open loads settings and the fixture host and initializes every camera.
// Cameras that fail to initialize are logged and left out.
func Open(ctx context.Context, opts Options, stderr io.Writer) (*Session, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Fixture != "" {
		settings.Fixture = opts.Fixture
	}
	if opts.CachePath != "" {
		settings.Cache.Path = opts.CachePath
	}

	logger, err := newLogger(settings, opts, stderr)
	if err != nil {
		return nil, err
	}
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}
	if settings.Fixture == "" {
		return nil, errors.New("no fixture configured: set fixture in the config file, PERISCOPE_FIXTURE or --fixture")
	}
	host, err := fixture.Load(settings.Fixture)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Settings: settings,
		Metrics:  metrics.New(),
		Logger:   logger,
		opts:     opts,
	}
	clk := clock.Real()
	if settings.Cache.Path != "" {
		s.store, err = storage.OpenSqlite(settings.Cache.Path)
		if err != nil {
			return nil, err
		}
		s.Cache = storage.NewPersistentRequestCache[engine.Results](clk, s.store, logger)
	} else {
		s.Cache = storage.NewRequestCache[engine.Results](clk)
	}

	deps := engine.Dependencies{
		Registry:     host,
		States:       host,
		Requester:    host,
		Fetcher:      browse.NewRPCFetcher(host),
		RequestCache: s.Cache,
		BrowseCache:  browse.NewCache[browse.Metadata](clk),
		BrowseTTL:    settings.Cache.BrowseTTL,
		ResultTTL:    settings.Cache.ResultTTL,
		Clock:        clk,
		Location:     loc,
		Logger:       logger,
		Metrics:      s.Metrics,
	}
	s.Manager = federation.NewManager(builtin.NewFactory(host, host), deps)
	if err := s.Manager.Initialize(ctx, settings.Cameras); err != nil {
		logger.Warn("some cameras were not initialized", "error", err)
	}
	return s, nil
}

// Close releases the persistent cache.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Session) engineOptions() engine.Options {
	return engine.Options{UseCache: !s.opts.NoCache}
}

func newLogger(settings config.Settings, opts Options, stderr io.Writer) (*slog.Logger, error) {
	level, err := settings.Level()
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), nil
}

// EventsArgs are the filters of the events command.
type EventsArgs struct {
	Cameras     []string
	Since       time.Duration // look back from now; 0 means unbounded
	Start, End  string        // RFC 3339 or YYYY-MM-DD; override Since
	Limit       int
	Clips       bool
	Snapshots   bool
	Favorites   bool
	What, Where []string
	Tags        []string
}

// Query builds the event query the args describe.
func (a EventsArgs) Query(now time.Time, loc *time.Location) (model.EventQuery, error) {
	q := model.EventQuery{
		CameraIDs: setOf(a.Cameras),
		Limit:     a.Limit,
		What:      setOf(a.What),
		Where:     setOf(a.Where),
		Tags:      setOf(a.Tags),
	}
	if a.Since > 0 {
		q.Start = model.Time(now.Add(-a.Since))
	}
	if a.Start != "" {
		start, err := parseTime(a.Start, loc, false)
		if err != nil {
			return q, fmt.Errorf("invalid --start: %w", err)
		}
		q.Start = &start
	}
	if a.End != "" {
		end, err := parseTime(a.End, loc, true)
		if err != nil {
			return q, fmt.Errorf("invalid --end: %w", err)
		}
		q.End = &end
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return q, errors.New("--end is before --start")
	}
	if a.Clips && a.Snapshots {
		return q, errors.New("--clips and --snapshots are mutually exclusive")
	}
	if a.Clips {
		q.HasClip = model.Bool(true)
	}
	if a.Snapshots {
		q.HasSnapshot = model.Bool(true)
	}
	if a.Favorites {
		q.Favorite = model.Bool(true)
	}
	return q, nil
}

// parseTime accepts RFC 3339 or a bare day. A bare end day covers the
// whole day.
func parseTime(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(model.DayFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
	}
	return day, nil
}

// Events prints the events matching args.
func (s *Session) Events(ctx context.Context, w io.Writer, args EventsArgs) error {
	loc, _ := s.Settings.Location()
	q, err := args.Query(time.Now(), loc)
	if err != nil {
		return err
	}
	results, err := s.Manager.GetEvents(ctx, q, s.engineOptions())
	if err != nil {
		return err
	}
	items := results.Results("")
	if s.opts.JSON {
		return writeJSON(w, eventRows(items, loc))
	}
	fmt.Fprint(w, newStyles().renderEvents(items, loc))
	return s.printMetrics(w)
}

// Days prints the days that have media.
func (s *Session) Days(ctx context.Context, w io.Writer, cameras []string) error {
	metadata, err := s.Manager.GetMediaMetadata(ctx, model.MediaMetadataQuery{
		CameraIDs: setOf(cameras),
	}, s.engineOptions())
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return writeJSON(w, metadata)
	}
	fmt.Fprint(w, newStyles().renderMetadata(metadata))
	return s.printMetrics(w)
}

// Detect prints each camera with its engine, capabilities and endpoints.
func (s *Session) Detect(w io.Writer) error {
	var rows []cameraRow
	for _, camera := range s.Manager.Cameras() {
		meta, err := s.Manager.CameraMetadata(camera.ID())
		if err != nil {
			return err
		}
		endpoints, err := s.Manager.CameraEndpoints(camera.ID(), nil)
		if err != nil {
			return err
		}
		rows = append(rows, newCameraRow(camera, meta, endpoints))
	}
	if s.opts.JSON {
		return writeJSON(w, rows)
	}
	fmt.Fprint(w, newStyles().renderCameras(rows))
	return nil
}

// PurgeCache removes expired results from the persistent cache, or every
// result of the given cameras.
func (s *Session) PurgeCache(ctx context.Context, w io.Writer, cameras []string) error {
	if s.store == nil {
		return errors.New("no persistent cache configured: set cache.path or --cache")
	}
	if len(cameras) == 0 {
		n, err := s.Cache.Purge(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "removed %d expired results\n", n)
		return nil
	}
	for _, camera := range cameras {
		if _, err := s.Cache.InvalidateCamera(ctx, camera); err != nil {
			return fmt.Errorf("invalidate %s: %w", camera, err)
		}
		fmt.Fprintf(w, "invalidated results of %s\n", camera)
	}
	return nil
}

func (s *Session) printMetrics(w io.Writer) error {
	if !s.opts.Metrics {
		return nil
	}
	out, err := newStyles().renderMetrics(s.Metrics.Registry())
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setOf returns nil for no values so flag-built queries key like the
// zero query.
func setOf(values []string) model.StringSet {
	if len(values) == 0 {
		return nil
	}
	return model.NewStringSet(values...)
}
