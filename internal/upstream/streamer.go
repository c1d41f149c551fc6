package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halcyon-ai/relaygw/internal/apierr"
	"github.com/halcyon-ai/relaygw/internal/codec"
	"github.com/halcyon-ai/relaygw/internal/credential"
	"github.com/halcyon-ai/relaygw/internal/logging"
)

// Config holds the upstream endpoint identity and retry tuning.
type Config struct {
	BaseURL          string
	SendPath         string
	ClientVersion    string
	OSCategory       string
	OSVersion        string
	MaxAttempts      int
	QuotaBackoffBase time.Duration
}

// Streamer drives a single request's worth of upstream traffic: one POST,
// one frame-by-frame SSE read, with quota-refresh and transport-backoff
// retry built in.
type Streamer struct {
	cfg        Config
	httpClient *http.Client
	credential credential.Provider
	codec      codec.Codec
}

func NewStreamer(cfg Config, httpClient *http.Client, cred credential.Provider, c codec.Codec) *Streamer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.QuotaBackoffBase <= 0 {
		cfg.QuotaBackoffBase = 2 * time.Second
	}
	return &Streamer{cfg: cfg, httpClient: httpClient, credential: cred, codec: c}
}

// Stream posts body to the upstream send endpoint and returns a channel of
// decoded events in arrival order. The channel is closed when the upstream
// sends its sentinel, the stream ends, or a terminal error occurs. The
// terminal error, if any, is sent on the second returned channel before
// either channel closes.
func (s *Streamer) Stream(ctx context.Context, body []byte) (<-chan Event, <-chan error) {
	events, errc, _ := s.StreamWithRefreshInfo(ctx, body)
	return events, errc
}

// StreamWithRefreshInfo is Stream plus a third channel that receives exactly
// one bool, before the others close, reporting whether a quota refresh
// occurred during this call — telemetry's QuotaRefreshed column needs this.
func (s *Streamer) StreamWithRefreshInfo(ctx context.Context, body []byte) (<-chan Event, <-chan error, <-chan bool) {
	events := make(chan Event, 16)
	errc := make(chan error, 1)
	refreshedc := make(chan bool, 1)

	go s.run(ctx, body, events, errc, refreshedc)

	return events, errc, refreshedc
}

func (s *Streamer) run(ctx context.Context, body []byte, events chan<- Event, errc chan<- error, refreshedc chan<- bool) {
	defer close(events)
	defer close(errc)

	refreshedOnce := false
	defer func() { refreshedc <- refreshedOnce; close(refreshedc) }()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		resp, err := s.post(ctx, body)
		if err != nil {
			lastErr = apierr.Wrap(apierr.UpstreamTransport, "upstream connection failed", err)
			if attempt == s.cfg.MaxAttempts {
				break
			}
			if !sleepBackoff(ctx, s.cfg.QuotaBackoffBase, attempt) {
				lastErr = apierr.New(apierr.UpstreamTransport, "cancelled during backoff")
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && !refreshedOnce {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if isQuotaExhausted(respBody) {
				refreshedOnce = true
				if _, refreshErr := s.credential.Refresh(ctx); refreshErr != nil {
					lastErr = apierr.Wrap(apierr.UpstreamQuota, "quota refresh failed", refreshErr)
					break
				}
				continue
			}
			lastErr = apierr.WithBody(apierr.UpstreamHTTP, "upstream rejected request", string(respBody))
			break
		}

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = apierr.WithBody(apierr.UpstreamHTTP, fmt.Sprintf("upstream returned %d", resp.StatusCode), string(respBody))
			break
		}

		// 200 OK: consume the frame stream to completion. Transport failures
		// mid-stream are NOT retried — only the initial connect is.
		err = s.consume(ctx, resp.Body, events)
		resp.Body.Close()
		if err != nil {
			errc <- err
		}
		return
	}

	if lastErr != nil {
		errc <- lastErr
	}
}

func (s *Streamer) post(ctx context.Context, body []byte) (*http.Response, error) {
	token, err := s.credential.Token(ctx)
	if err != nil {
		return nil, apierr.Wrap(apierr.AuthError, "no credential available", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+s.cfg.SendPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "text/event-stream")
	req.Header.Set("content-type", "application/x-protobuf")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("x-client-version", s.cfg.ClientVersion)
	req.Header.Set("x-os-category", s.cfg.OSCategory)
	req.Header.Set("x-os-version", s.cfg.OSVersion)

	return s.httpClient.Do(req)
}

// consume reads SSE frames from r: lines are buffered until a blank line,
// multi-line data payloads are concatenated before decoding, and a literal
// "data: [DONE]" line terminates the stream cleanly.
func (s *Streamer) consume(ctx context.Context, r io.Reader, events chan<- Event) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var payload strings.Builder

	flush := func() error {
		if payload.Len() == 0 {
			return nil
		}
		line := payload.String()
		payload.Reset()

		if line == "[DONE]" {
			return io.EOF
		}

		raw, err := decodeFramePayload(line)
		if err != nil {
			logging.Warnf("upstream: skipping undecodable frame: %v", err)
			return nil
		}

		decoded, err := s.codec.Decode("server_event", raw)
		if err != nil {
			logging.Warnf("upstream: skipping unparseable frame: %v", err)
			return nil
		}

		select {
		case events <- ParseEvent(decoded):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if err := flush(); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			continue
		}

		if data, ok := strings.CutPrefix(trimmed, "data:"); ok {
			payload.WriteString(strings.TrimSpace(data))
		}
	}

	if err := flush(); err != nil && err != io.EOF {
		return err
	}
	if err := scanner.Err(); err != nil {
		return apierr.Wrap(apierr.UpstreamTransport, "upstream stream read failed", err)
	}
	return nil
}

// decodeFramePayload tries hex first, then base64url (with or without
// padding), since the wire format allows either encoding per frame.
func decodeFramePayload(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("frame payload is neither hex nor base64url: %q", s)
}

func isQuotaExhausted(body []byte) bool {
	s := string(body)
	return strings.Contains(s, "No remaining quota") || strings.Contains(s, "No AI requests remaining")
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) bool {
	d := base << (attempt - 1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
