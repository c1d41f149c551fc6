// Package svc wires the gateway's collaborators together: config, the
// shared upstream HTTP client, the credential provider, the wire codec, the
// model catalog, the telemetry store, the observability hub, and the
// per-process session state.
package svc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halcyon-ai/relaygw/internal/codec"
	"github.com/halcyon-ai/relaygw/internal/config"
	"github.com/halcyon-ai/relaygw/internal/credential"
	"github.com/halcyon-ai/relaygw/internal/modelcatalog"
	"github.com/halcyon-ai/relaygw/internal/observability"
	"github.com/halcyon-ai/relaygw/internal/session"
	"github.com/halcyon-ai/relaygw/internal/telemetry"
	"github.com/halcyon-ai/relaygw/internal/upstream"
)

// Context bundles every collaborator a request handler needs.
type Context struct {
	Config     config.Config
	HTTPClient *http.Client
	Credential credential.Provider
	Codec      codec.Codec
	Catalog    *modelcatalog.Catalog
	Telemetry  *telemetry.Store
	Hub        *observability.Hub
	Session    *session.State
	Streamer   *upstream.Streamer

	refresher *credential.Refresher
}

// New builds a Context from a loaded Config. Callers own shutdown via Close.
func New(cfg config.Config) (*Context, error) {
	httpClient := upstream.NewHTTPClient(upstream.ClientConfig{
		ConnectTimeout:     time.Duration(cfg.Timeouts.ConnectSeconds) * time.Second,
		ReadTimeout:        time.Duration(cfg.Timeouts.ReadSeconds) * time.Second,
		WriteTimeout:       time.Duration(cfg.Timeouts.WriteSeconds) * time.Second,
		PoolAcquireTimeout: time.Duration(cfg.Timeouts.PoolAcquireSeconds) * time.Second,
		IdleKeepalive:      time.Duration(cfg.Timeouts.IdleKeepaliveSeconds) * time.Second,
		DNSCacheTTL:        time.Duration(cfg.Timeouts.DNSCacheTTLSeconds) * time.Second,
	})

	cred := credential.NewKeyringProvider(refreshFetcher(httpClient, cfg.Upstream.BaseURL), cfg.IsKeyringDisabled())

	catalog, err := modelcatalog.Load(cfg.ModelCatalog.Path)
	if err != nil {
		return nil, fmt.Errorf("svc: loading model catalog: %w", err)
	}

	store, err := telemetry.Open(cfg.Telemetry.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("svc: opening telemetry store: %w", err)
	}

	hub := observability.NewHub()

	streamer := upstream.NewStreamer(upstream.Config{
		BaseURL:          cfg.Upstream.BaseURL,
		SendPath:         cfg.Upstream.SendPath,
		ClientVersion:    cfg.Upstream.ClientVersion,
		OSCategory:       cfg.Upstream.OSCategory,
		OSVersion:        cfg.Upstream.OSVersion,
		MaxAttempts:      cfg.Security.MaxUpstreamAttempts,
		QuotaBackoffBase: time.Duration(cfg.Security.QuotaBackoffBaseSeconds) * time.Second,
	}, httpClient, cred, codec.JSONCodec{})

	refresher := credential.StartRefresher(cred, cfg.CredentialRefreshInterval())

	return &Context{
		Config:     cfg,
		HTTPClient: httpClient,
		Credential: cred,
		Codec:      codec.JSONCodec{},
		Catalog:    catalog,
		Telemetry:  store,
		Hub:        hub,
		Session:    session.New(),
		Streamer:   streamer,
		refresher:  refresher,
	}, nil
}

// Run starts the background collaborators (currently just the observability
// hub's register/unregister loop) until ctx is cancelled.
func (c *Context) Run(ctx context.Context) {
	c.Hub.Run(ctx)
}

func (c *Context) Close() error {
	if c.refresher != nil {
		c.refresher.Stop()
	}
	if err := c.Telemetry.Close(); err != nil {
		return err
	}
	return c.Catalog.Close()
}

type refreshResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// refreshFetcher performs the `POST <upstream>/refresh` exchange the
// credential collaborator invokes on a recognized quota-exhaustion 429.
func refreshFetcher(client *http.Client, baseURL string) credential.Fetcher {
	return func(ctx context.Context) (string, time.Time, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/refresh", nil)
		if err != nil {
			return "", time.Time{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", time.Time{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, fmt.Errorf("credential refresh: upstream returned %d", resp.StatusCode)
		}

		var body refreshResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", time.Time{}, fmt.Errorf("credential refresh: decoding response: %w", err)
		}
		if body.Token == "" {
			return "", time.Time{}, fmt.Errorf("credential refresh: empty token in response")
		}

		var expiresAt time.Time
		if body.ExpiresAt > 0 {
			expiresAt = time.Unix(body.ExpiresAt, 0)
		}
		return body.Token, expiresAt, nil
	}
}
