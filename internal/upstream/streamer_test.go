package upstream

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/relaygw/internal/codec"
)

type stubProvider struct {
	token      string
	refreshes  int
	refreshErr error
}

func (s *stubProvider) Token(ctx context.Context) (string, error) { return s.token, nil }

func (s *stubProvider) Refresh(ctx context.Context) (string, error) {
	s.refreshes++
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.token = fmt.Sprintf("refreshed-%d", s.refreshes)
	return s.token, nil
}

func frame(payload string) string {
	return "data: " + base64.RawURLEncoding.EncodeToString([]byte(payload)) + "\n\n"
}

func TestStreamerHappyPath(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("content-type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, frame(`{"type":"init","conversation_id":"c1"}`))
		fmt.Fprint(w, frame(`{"type":"finished"}`))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	s := NewStreamer(Config{BaseURL: srv.URL, SendPath: "/send"}, srv.Client(), &stubProvider{token: "tok"}, codec.JSONCodec{})
	events, errc := s.Stream(context.Background(), []byte("body"))

	var got []Event
	for e := range events {
		got = append(got, e)
	}
	require.NoError(t, <-errc)
	require.Len(t, got, 2)
	assert.Equal(t, EventInit, got[0].Type)
	assert.Equal(t, "c1", got[0].ConversationID)
	assert.Equal(t, EventFinished, got[1].Type)
	assert.Equal(t, 1, attempts)
}

func TestStreamerQuotaRefreshRetriesOnce(t *testing.T) {
	attempts := 0
	var sawTokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		sawTokens = append(sawTokens, r.Header.Get("authorization"))
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"No remaining quota"}`)
			return
		}
		w.Header().Set("content-type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, frame(`{"type":"finished"}`))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	prov := &stubProvider{token: "stale"}
	s := NewStreamer(Config{BaseURL: srv.URL, SendPath: "/send"}, srv.Client(), prov, codec.JSONCodec{})
	events, errc := s.Stream(context.Background(), []byte("body"))

	var got []Event
	for e := range events {
		got = append(got, e)
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, prov.refreshes)
	assert.Equal(t, "Bearer stale", sawTokens[0])
	assert.Equal(t, "Bearer refreshed-1", sawTokens[1])
	require.Len(t, got, 1)
}

func TestStreamerNonQuota429IsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"some other throttle"}`)
	}))
	defer srv.Close()

	prov := &stubProvider{token: "tok"}
	s := NewStreamer(Config{BaseURL: srv.URL, SendPath: "/send"}, srv.Client(), prov, codec.JSONCodec{})
	events, errc := s.Stream(context.Background(), []byte("body"))

	for range events {
	}
	err := <-errc
	require.Error(t, err)
	assert.Equal(t, 0, prov.refreshes)
}

func TestStreamerTransportFailureRetriesWithBackoff(t *testing.T) {
	s := NewStreamer(
		Config{BaseURL: "http://127.0.0.1:1", SendPath: "/send", MaxAttempts: 2, QuotaBackoffBase: 10 * time.Millisecond},
		&http.Client{Timeout: 200 * time.Millisecond},
		&stubProvider{token: "tok"},
		codec.JSONCodec{},
	)
	events, errc := s.Stream(context.Background(), []byte("body"))

	for range events {
	}
	err := <-errc
	require.Error(t, err)
}

func TestStreamerUndecodableFrameIsSkippedNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: not-valid-hex-or-base64!!!\n\n")
		fmt.Fprint(w, frame(`{"type":"finished"}`))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	s := NewStreamer(Config{BaseURL: srv.URL, SendPath: "/send"}, srv.Client(), &stubProvider{token: "tok"}, codec.JSONCodec{})
	events, errc := s.Stream(context.Background(), []byte("body"))

	var got []Event
	for e := range events {
		got = append(got, e)
	}
	require.NoError(t, <-errc)
	require.Len(t, got, 1)
	assert.Equal(t, EventFinished, got[0].Type)
}
