package sse

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/halcyon-ai/relaygw/internal/upstream"
)

type state int

const (
	stateOpened state = iota
	stateStreaming
	stateTerminatedOK
	stateTerminatedError
)

// Translator turns one request's stream of upstream.Events into the OpenAI
// chunk sequence defined by §4.5: one opening chunk, content/tool-call
// deltas in arrival order, one terminal chunk, and (by the caller, once the
// returned channel closes) the `[DONE]` sentinel.
type Translator struct {
	id      string
	created int64
	model   string

	state        state
	toolCallSeen bool
}

func NewTranslator(model string, created int64) *Translator {
	return &Translator{
		id:      "chatcmpl-" + uuid.NewString(),
		created: created,
		model:   model,
		state:   stateOpened,
	}
}

// Translate consumes events until the channel closes, then consults errc for
// a terminal failure. The returned channel is closed once the terminal chunk
// has been sent; the caller is responsible for writing the final `[DONE]`
// line after that.
func (t *Translator) Translate(ctx context.Context, events <-chan upstream.Event, errc <-chan error) <-chan ChatCompletionChunk {
	out := make(chan ChatCompletionChunk, 16)

	go func() {
		defer close(out)

		send := func(c ChatCompletionChunk) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(t.envelope(Choice{Index: 0, Delta: Delta{Role: "assistant"}})) {
			return
		}
		t.state = stateStreaming

		toolIndex := 0

	loop:
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					break loop
				}
				for _, chunk := range t.chunksForEvent(ev, &toolIndex) {
					if !send(chunk) {
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}

		if err := drainErr(errc); err != nil {
			t.state = stateTerminatedError
			send(t.terminalError(err))
			return
		}

		t.state = stateTerminatedOK
		reason := FinishReasonStop
		if t.toolCallSeen {
			reason = FinishReasonToolCalls
		}
		send(t.terminal(reason))
	}()

	return out
}

func drainErr(errc <-chan error) error {
	if errc == nil {
		return nil
	}
	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
	default:
	}
	return nil
}

func (t *Translator) chunksForEvent(ev upstream.Event, toolIndex *int) []ChatCompletionChunk {
	var chunks []ChatCompletionChunk

	switch ev.Type {
	case upstream.EventClientActions:
		for _, a := range ev.Actions {
			switch a.Type {
			case upstream.ActionAppendToMessageContent:
				if a.Text != "" {
					chunks = append(chunks, t.envelope(Choice{Index: 0, Delta: Delta{Content: a.Text}}))
				}
			case upstream.ActionAddMessagesToTask:
				for _, msg := range a.Messages {
					name, args, toolCallID, ok := upstream.ToolCallFromMessage(msg)
					if !ok {
						continue
					}
					t.toolCallSeen = true
					id := toolCallID
					if id == "" {
						id = uuid.NewString()
					}
					argsJSON, err := json.Marshal(args)
					if err != nil {
						argsJSON = []byte("{}")
					}
					chunks = append(chunks, t.envelope(Choice{
						Index: 0,
						Delta: Delta{ToolCalls: []ToolCall{{
							Index:    *toolIndex,
							ID:       id,
							Type:     "function",
							Function: ToolCallFunc{Name: name, Arguments: string(argsJSON)},
						}}},
					}))
					*toolIndex++
				}
			}
		}
	case upstream.EventInit, upstream.EventFinished, upstream.EventOpaque:
		// init carries no deltas; finished ends the loop naturally when the
		// channel closes; opaque events are forwarded nowhere per §4.5.
	}

	return chunks
}

func (t *Translator) envelope(c Choice) ChatCompletionChunk {
	return ChatCompletionChunk{
		ID:      t.id,
		Object:  "chat.completion.chunk",
		Created: t.created,
		Model:   t.model,
		Choices: []Choice{c},
	}
}

func (t *Translator) terminal(reason string) ChatCompletionChunk {
	c := t.envelope(Choice{Index: 0, Delta: Delta{}})
	c.Choices[0].FinishReason = &reason
	return c
}

func (t *Translator) terminalError(err error) ChatCompletionChunk {
	reason := FinishReasonError
	c := t.envelope(Choice{Index: 0, Delta: Delta{}})
	c.Choices[0].FinishReason = &reason
	c.Error = &ErrInfo{Message: err.Error()}
	return c
}
