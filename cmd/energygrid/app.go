package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/auth"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/cache"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/config"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/metrics"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// app wires config, session store, API client, response cache and call
// metrics for one command invocation. Client and cache are built lazily
// so commands like "config init" and "version" work without a server.
type app struct {
	cfg        *config.Config
	configPath string

	store *auth.Store
	mgr   *auth.Manager

	client  *gridapi.Client
	cache   *cache.Store
	tracker *metrics.Tracker

	cacheOpened bool
}

// loadApp resolves the config file, loads it with env overrides applied,
// and prepares the session store. No network traffic happens here.
func loadApp() (*app, error) {
	path := flagConfig
	if path == "" {
		path = os.Getenv("ENERGYGRID_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if flagServer != "" {
		cfg.Server.BaseURL = flagServer
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	// File logging is best-effort: a read-only home must not break the CLI.
	if err := logging.Initialize(config.Dir()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	if flagVerbose || cfg.Logging.Debug {
		logging.EnableDebug()
	}
	logging.Boot("config loaded from %s, server %s", path, cfg.Server.BaseURL)

	store := auth.NewStore(config.Dir())
	return &app{
		cfg:        cfg,
		configPath: path,
		store:      store,
		mgr:        auth.NewManager(store),
	}, nil
}

// shutdown flushes metrics and closes the cache.
func (a *app) shutdown() {
	if a.tracker != nil {
		if err := a.tracker.Flush(); err != nil {
			logging.ConfigWarn("failed to flush metrics: %v", err)
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
}

// staticToken satisfies gridapi.TokenSource with a fixed token from the
// environment. CI pipelines set ENERGYGRID_ACCESS_TOKEN instead of
// running an interactive login; there is nothing to refresh.
type staticToken string

func (s staticToken) Token(ctx context.Context) (string, error)        { return string(s), nil }
func (s staticToken) ForceRefresh(ctx context.Context) (string, error) { return string(s), nil }
func (s staticToken) Invalidate()                                      {}

// api returns the wired API client, building it on first use.
func (a *app) api() (*gridapi.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if a.cfg.Server.BaseURL == "" {
		return nil, fmt.Errorf("no server configured: set server.base_url in %s or pass --server", a.configPath)
	}

	apiCfg := gridapi.Config{
		BaseURL:            a.cfg.Server.BaseURL,
		Timeout:            a.cfg.GetServerTimeout(),
		MaxRetries:         a.cfg.Server.MaxRetries,
		RetryBaseDelay:     a.cfg.GetRetryBaseDelay(),
		RetryMaxDelay:      a.cfg.GetRetryMaxDelay(),
		UserAgent:          "energygrid-cli/" + Version,
		InsecureSkipVerify: a.cfg.Server.InsecureSkipVerify,
	}

	opts := []gridapi.Option{}
	envToken := os.Getenv("ENERGYGRID_ACCESS_TOKEN")
	if envToken != "" {
		opts = append(opts, gridapi.WithTokenSource(staticToken(envToken)))
	} else {
		opts = append(opts, gridapi.WithTokenSource(a.mgr))
	}
	if t := a.metricsTracker(); t != nil {
		opts = append(opts, gridapi.WithMetrics(t))
	}

	client, err := gridapi.New(apiCfg, opts...)
	if err != nil {
		return nil, err
	}
	if envToken == "" {
		// The manager refreshes sessions through the same client it guards.
		a.mgr.Bind(client)
	}
	a.client = client
	return client, nil
}

// metricsTracker lazily opens the on-disk call tracker. Returns nil when
// metrics are disabled or the file cannot be prepared.
func (a *app) metricsTracker() *metrics.Tracker {
	if a.tracker != nil {
		return a.tracker
	}
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	t, err := metrics.NewTracker(a.cfg.MetricsPath())
	if err != nil {
		logging.ConfigWarn("metrics disabled: %v", err)
		return nil
	}
	a.tracker = t
	return t
}

// cacheStore lazily opens the response cache. Returns nil when caching
// is disabled by config or --no-cache, or when the database cannot be
// opened; callers treat nil as "no cache".
func (a *app) cacheStore() *cache.Store {
	if a.cacheOpened {
		return a.cache
	}
	a.cacheOpened = true
	if !a.cfg.Cache.Enabled || flagNoCache {
		return nil
	}
	s, err := cache.Open(a.cfg.CachePath(), a.cfg.GetCacheTTL(), a.cfg.Cache.MaxEntries)
	if err != nil {
		logging.CacheError("cache disabled: %v", err)
		return nil
	}
	a.cache = s
	return s
}

// invalidate drops cached responses under an endpoint prefix after a
// mutation. Best-effort.
func (a *app) invalidate(prefix string) {
	s := a.cacheStore()
	if s == nil {
		return
	}
	if _, err := s.InvalidatePrefix(prefix); err != nil {
		logging.CacheError("invalidate %s: %v", prefix, err)
	}
}

// cacheInfo describes where a response came from when it was not served
// fresh off the API.
type cacheInfo struct {
	Age     time.Duration
	Stale   bool
	Offline bool // set when the API was unreachable and the cache stood in
}

// cachedEnvelope is the stored shape for list responses.
type cachedEnvelope[T any] struct {
	Data []T            `json:"data"`
	Meta types.ListMeta `json:"meta"`
}

// cachedList wraps a collection fetch with the read-through cache.
//
// Normal path: call the API, store the result, return it fresh. When
// --cached is set a valid cached copy short-circuits the network. When
// the API is unreachable (transport error, not an HTTP error) a cached
// copy is served instead, flagged Offline so the caller can label it.
func cachedList[T any](ctx context.Context, a *app, endpoint string, query url.Values, fetch func(context.Context) ([]T, types.ListMeta, error)) ([]T, types.ListMeta, *cacheInfo, error) {
	store := a.cacheStore()
	key := cache.Key(endpoint, query)

	if flagCached && store != nil {
		if items, meta, info, ok := readCachedList[T](store, key); ok {
			return items, meta, info, nil
		}
	}

	items, meta, err := fetch(ctx)
	if err == nil {
		if store != nil {
			if body, mErr := json.Marshal(cachedEnvelope[T]{Data: items, Meta: meta}); mErr == nil {
				if pErr := store.Put(key, body); pErr != nil {
					logging.CacheError("store %s: %v", key, pErr)
				}
			}
		}
		return items, meta, nil, nil
	}

	var apiErr *gridapi.APIError
	if store != nil && !errors.As(err, &apiErr) {
		if items, meta, info, ok := readCachedList[T](store, key); ok {
			info.Offline = true
			logging.Cache("serving %s from cache: %v", endpoint, err)
			return items, meta, info, nil
		}
	}
	return nil, types.ListMeta{}, nil, err
}

func readCachedList[T any](store *cache.Store, key string) ([]T, types.ListMeta, *cacheInfo, bool) {
	e, ok, err := store.Get(key)
	if err != nil || !ok {
		return nil, types.ListMeta{}, nil, false
	}
	var env cachedEnvelope[T]
	if err := json.Unmarshal(e.Body, &env); err != nil {
		logging.CacheError("decode %s: %v", key, err)
		return nil, types.ListMeta{}, nil, false
	}
	return env.Data, env.Meta, &cacheInfo{Age: e.Age, Stale: e.Stale}, true
}

// cachedGet is the single-resource counterpart of cachedList.
func cachedGet[T any](ctx context.Context, a *app, endpoint string, fetch func(context.Context) (*T, error)) (*T, *cacheInfo, error) {
	store := a.cacheStore()
	key := cache.Key(endpoint, nil)

	if flagCached && store != nil {
		if v, info, ok := readCachedOne[T](store, key); ok {
			return v, info, nil
		}
	}

	v, err := fetch(ctx)
	if err == nil {
		if store != nil {
			if body, mErr := json.Marshal(v); mErr == nil {
				if pErr := store.Put(key, body); pErr != nil {
					logging.CacheError("store %s: %v", key, pErr)
				}
			}
		}
		return v, nil, nil
	}

	var apiErr *gridapi.APIError
	if store != nil && !errors.As(err, &apiErr) {
		if v, info, ok := readCachedOne[T](store, key); ok {
			info.Offline = true
			logging.Cache("serving %s from cache: %v", endpoint, err)
			return v, info, nil
		}
	}
	return nil, nil, err
}

func readCachedOne[T any](store *cache.Store, key string) (*T, *cacheInfo, bool) {
	e, ok, err := store.Get(key)
	if err != nil || !ok {
		return nil, nil, false
	}
	var v T
	if err := json.Unmarshal(e.Body, &v); err != nil {
		logging.CacheError("decode %s: %v", key, err)
		return nil, nil, false
	}
	return &v, &cacheInfo{Age: e.Age, Stale: e.Stale}, true
}

// commandContext returns a context cancelled on SIGINT/SIGTERM so long
// polls and downloads abort cleanly.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
