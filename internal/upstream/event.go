package upstream

// Event is the tagged union of upstream stream events: init, client_actions,
// finished, or opaque for forward-compatibility with unknown tags.
type Event struct {
	Type           string
	ConversationID string // init
	TaskID         string // init
	Actions        []Action
	Raw            map[string]any
}

const (
	EventInit          = "init"
	EventClientActions = "client_actions"
	EventFinished      = "finished"
	EventOpaque        = "opaque"
)

// Action is one entry of a client_actions event's actions[] list.
type Action struct {
	Type     string
	Text     string           // append_to_message_content
	TaskID   string           // add_messages_to_task
	Messages []map[string]any // add_messages_to_task
	Raw      map[string]any
}

const (
	ActionCreateTask             = "create_task"
	ActionAppendToMessageContent = "append_to_message_content"
	ActionAddMessagesToTask      = "add_messages_to_task"
	ActionToolCall               = "tool_call"
	ActionToolResponse           = "tool_response"
	ActionUnknown                = "unknown"
)

// ParseEvent converts a decoded, JSON-shaped value (as returned by
// codec.Codec.Decode) into an Event. Unrecognized shapes pass through as
// an opaque variant so the translator stays forward-compatible.
func ParseEvent(raw any) Event {
	m, ok := raw.(map[string]any)
	if !ok {
		return Event{Type: EventOpaque}
	}

	typ := getString(m, "type", "type")
	ev := Event{Type: typ, Raw: m}

	switch typ {
	case EventInit:
		ev.ConversationID = getString(m, "conversation_id", "conversationId")
		ev.TaskID = getString(m, "task_id", "taskId")
	case EventClientActions:
		for _, raw := range getSlice(m, "actions", "actions") {
			if am, ok := raw.(map[string]any); ok {
				ev.Actions = append(ev.Actions, parseAction(am))
			}
		}
	case EventFinished:
		// no payload fields defined
	default:
		ev.Type = EventOpaque
		ev.Raw = m
	}

	return ev
}

func parseAction(m map[string]any) Action {
	typ := getString(m, "type", "type")
	a := Action{Type: typ, Raw: m}

	switch typ {
	case ActionAppendToMessageContent:
		if msg := getMap(m, "message", "message"); msg != nil {
			if agentOutput := getMap(msg, "agent_output", "agentOutput"); agentOutput != nil {
				a.Text = getString(agentOutput, "text", "text")
			}
		}
	case ActionAddMessagesToTask:
		a.TaskID = getString(m, "task_id", "taskId")
		for _, raw := range getSlice(m, "messages", "messages") {
			if mm, ok := raw.(map[string]any); ok {
				a.Messages = append(a.Messages, mm)
			}
		}
	case ActionCreateTask, ActionToolCall, ActionToolResponse:
		// raw payload is sufficient for current consumers
	default:
		a.Type = ActionUnknown
	}

	return a
}

// ToolCallFromMessage extracts a tool_call.call_mcp_tool{name, args,
// tool_call_id} triple from one add_messages_to_task message, the shape C5
// needs to emit a tool-call delta chunk.
func ToolCallFromMessage(msg map[string]any) (name string, args map[string]any, toolCallID string, ok bool) {
	toolCall := getMap(msg, "tool_call", "toolCall")
	if toolCall == nil {
		return "", nil, "", false
	}
	callTool := getMap(toolCall, "call_mcp_tool", "callMcpTool")
	if callTool == nil {
		return "", nil, "", false
	}
	name = getString(callTool, "name", "name")
	if name == "" {
		return "", nil, "", false
	}
	args = getMap(callTool, "args", "args")
	toolCallID = getString(callTool, "tool_call_id", "toolCallId")
	return name, args, toolCallID, true
}
