package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halcyon-ai/relaygw/internal/apierr"
	"github.com/halcyon-ai/relaygw/internal/chatapi"
	"github.com/halcyon-ai/relaygw/internal/history"
	"github.com/halcyon-ai/relaygw/internal/httputil"
	"github.com/halcyon-ai/relaygw/internal/logging"
	"github.com/halcyon-ai/relaygw/internal/observability"
	"github.com/halcyon-ai/relaygw/internal/packet"
	"github.com/halcyon-ai/relaygw/internal/sse"
	"github.com/halcyon-ai/relaygw/internal/upstream"
)

// chatCompletions implements POST /v1/chat/completions end to end: C1 runs
// inside packet.Build (tool schema sanitization), C2 reorders history, C3
// builds and encodes the envelope, C4 streams the upstream response, and C5
// (or the aggregator, for non-streaming callers) converts it back to the
// OpenAI-compatible shape.
func (h *handlers) chatCompletions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatapi.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.ErrorWithCode(w, apierr.HTTPStatus(apierr.CallerError), "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		httputil.ErrorWithCode(w, apierr.HTTPStatus(apierr.CallerError), "messages must not be empty")
		return
	}

	reordered := history.Reorder(req.Messages)
	env := packet.Build(reordered, req.Tools, req.Model, h.ctx.Config.Model.Default, h.ctx.Session)

	body, err := packet.Encode(env)
	if err != nil {
		httputil.InternalError(w, "failed to encode upstream envelope")
		return
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = env.TaskContext.ActiveTaskID
	}

	h.ctx.Hub.Broadcast(observability.Event{Type: observability.EventRequestStarted, RequestID: requestID, Model: req.Model})

	ctx := r.Context()
	rawEvents, errc, refreshedc := h.ctx.Streamer.StreamWithRefreshInfo(ctx, body)
	events := h.tapSessionInit(rawEvents)

	created := start.Unix()
	model := req.Model
	if model == "" {
		model = h.ctx.Config.Model.Default
	}

	if req.Stream {
		h.streamResponse(w, r, requestID, model, created, events, errc, refreshedc, start)
		return
	}
	h.aggregateResponse(w, ctx, requestID, model, created, events, errc, refreshedc, start)
}

// tapSessionInit forwards every event unchanged but also feeds an `init`
// event's conversation/task ids into the session state via
// session.State.Update.
func (h *handlers) tapSessionInit(in <-chan upstream.Event) <-chan upstream.Event {
	out := make(chan upstream.Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			if ev.Type == upstream.EventInit {
				h.ctx.Session.Update(ev.ConversationID, ev.TaskID)
			}
			out <- ev
		}
	}()
	return out
}

func (h *handlers) streamResponse(w http.ResponseWriter, r *http.Request, requestID, model string, created int64, events <-chan upstream.Event, errc <-chan error, refreshedc <-chan bool, start time.Time) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalError(w, "streaming unsupported")
		return
	}

	w.Header().Set("content-type", "text/event-stream")
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	translator := sse.NewTranslator(model, created)
	chunks := translator.Translate(r.Context(), events, errc)

	bw := bufio.NewWriter(w)
	errKind := ""

	for chunk := range chunks {
		if chunk.Error != nil {
			errKind = string(apierr.InternalError)
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			logging.Errorf("sse: failed to marshal chunk: %v", err)
			continue
		}
		fmt.Fprintf(bw, "data: %s\n\n", data)
		bw.Flush()
		flusher.Flush()
	}
	fmt.Fprint(bw, "data: [DONE]\n\n")
	bw.Flush()
	flusher.Flush()

	h.ctx.Hub.Broadcast(observability.Event{Type: observability.EventRequestFinished, RequestID: requestID, Model: model})
	h.ctx.Telemetry.Record(context.Background(), telemetryRecord(requestID, model, true, <-refreshedc, errKind, start))
}

func (h *handlers) aggregateResponse(w http.ResponseWriter, ctx context.Context, requestID, model string, created int64, events <-chan upstream.Event, errc <-chan error, refreshedc <-chan bool, start time.Time) {
	result, err := sse.Aggregate(ctx, model, created, events, errc)
	errKind := ""
	if err != nil {
		apiErr, ok := err.(*apierr.Error)
		if !ok {
			apiErr = apierr.Wrap(apierr.InternalError, "aggregation failed", err)
		}
		errKind = string(apiErr.Kind)
		httputil.ErrorWithCode(w, apierr.HTTPStatus(apiErr.Kind), apiErr.Error())
	} else {
		httputil.OkJSON(w, result)
	}

	h.ctx.Hub.Broadcast(observability.Event{Type: observability.EventRequestFinished, RequestID: requestID, Model: model})
	h.ctx.Telemetry.Record(context.Background(), telemetryRecord(requestID, model, false, <-refreshedc, errKind, start))
}
