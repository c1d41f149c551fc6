package packet

import "github.com/halcyon-ai/relaygw/internal/wire"

// ReplaceServerMessageData walks a generic JSON-shaped value (the result of
// marshaling then unmarshaling an Envelope into map[string]any) and
// replaces every object keyed "server_message_data" with its wire-form
// base64url string, per §6. Any other key's value is recursed into
// unchanged.
func ReplaceServerMessageData(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "server_message_data" {
				if m, ok := val.(map[string]any); ok {
					out[k] = wire.Encode(dataFromMap(m))
					continue
				}
			}
			out[k] = ReplaceServerMessageData(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ReplaceServerMessageData(val)
		}
		return out
	default:
		return v
	}
}

// ExpandServerMessageData is the inverse: it decodes any string value keyed
// "server_message_data" back into its {uuid, seconds, nanos} record.
func ExpandServerMessageData(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "server_message_data" {
				if s, ok := val.(string); ok {
					if d, err := wire.Decode(s); err == nil {
						out[k] = mapFromData(d)
						continue
					}
				}
			}
			out[k] = ExpandServerMessageData(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ExpandServerMessageData(val)
		}
		return out
	default:
		return v
	}
}

func dataFromMap(m map[string]any) wire.Data {
	var d wire.Data
	if u, ok := m["uuid"].(string); ok && u != "" {
		d.UUID = u
		d.HasUUID = true
	}
	if s, ok := asInt64(m["seconds"]); ok {
		d.Seconds = s
		d.HasTimestamp = true
	}
	if n, ok := asInt64(m["nanos"]); ok {
		d.Nanos = n
		d.HasTimestamp = true
	}
	return d
}

func mapFromData(d wire.Data) map[string]any {
	out := map[string]any{}
	if d.HasUUID {
		out["uuid"] = d.UUID
	}
	if d.HasTimestamp {
		out["seconds"] = d.Seconds
		out["nanos"] = d.Nanos
	}
	return out
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}
