// Package schema sanitizes tool-call JSON-Schema subtrees so the upstream
// backend accepts them. Operation is purely structural, idempotent, and
// never fails — unknown keys pass through unchanged.
package schema

import "strings"

const draft07 = "http://json-schema.org/draft-07/schema#"

var stringNames = map[string]bool{"url": true, "uri": true, "href": true, "link": true}
var objectNames = map[string]bool{"headers": true, "options": true, "params": true, "payload": true, "data": true}

// Sanitize applies the full rule set to a tool's input_schema and returns a
// new map; the input is not mutated in place beyond what map-of-map
// structural sharing implies for untouched branches.
func Sanitize(inputSchema map[string]any) map[string]any {
	node := sanitizeNode(inputSchema, true)
	out, _ := node.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// sanitizeNode recurses over map/slice/scalar variants (a visitor, not ad
// hoc rewrites, keeps idempotence obvious).
func sanitizeNode(v any, isRoot bool) any {
	switch t := v.(type) {
	case map[string]any:
		return sanitizeObject(t, isRoot)
	case []any:
		out := make([]any, 0, len(t))
		for _, elem := range t {
			sanitized := sanitizeNode(elem, false)
			if !isEmpty(sanitized) {
				out = append(out, sanitized)
			}
		}
		return out
	default:
		return v
	}
}

func sanitizeObject(m map[string]any, isRoot bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if props, ok := v.(map[string]any); ok && k == "properties" && len(props) > 0 {
			// Property definitions are kept even when empty: rule 4 fills
			// them in below.
			kept := make(map[string]any, len(props))
			for name, p := range props {
				s := sanitizeNode(p, false)
				if _, isMap := s.(map[string]any); !isMap && isEmpty(s) {
					continue
				}
				kept[name] = s
			}
			out[k] = kept
			continue
		}
		sanitized := sanitizeNode(v, false)
		if isEmpty(sanitized) {
			continue // rule 1
		}
		out[k] = sanitized
	}

	if _, hasType := out["type"]; !hasType {
		if _, hasProps := out["properties"]; hasProps {
			out["type"] = "object" // rule 2
		}
	}

	if isRoot {
		if s, ok := out["$schema"].(string); !ok || s == "" {
			out["$schema"] = draft07 // rule 3
		}
	}

	if props, ok := out["properties"].(map[string]any); ok {
		sanitizeProperties(props)
		out["properties"] = props
	}

	pruneRequired(out)     // rule 6
	pruneAdditional(out)   // rule 7

	return out
}

// sanitizeProperties applies rule 4 (and rule 5 for "headers") to every
// named property in place.
func sanitizeProperties(props map[string]any) {
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if name == "headers" {
			sanitizeHeaders(prop)
		} else {
			defaultTypeAndDescription(prop, name)
		}
		props[name] = prop
	}
}

// defaultTypeAndDescription implements rule 4's per-property defaulting.
func defaultTypeAndDescription(prop map[string]any, name string) {
	if t, ok := prop["type"].(string); !ok || t == "" {
		prop["type"] = heuristicType(name)
	}
	if d, ok := prop["description"].(string); !ok || d == "" {
		prop["description"] = name + " parameter"
	}
}

// sanitizeHeaders implements rule 5.
func sanitizeHeaders(prop map[string]any) {
	prop["type"] = "object"
	sub, ok := prop["properties"].(map[string]any)
	if !ok || len(sub) == 0 {
		sub = map[string]any{
			"user-agent": map[string]any{
				"type":        "string",
				"description": "User-Agent header for the request",
			},
		}
	}
	for subName, rawSub := range sub {
		subProp, ok := rawSub.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := subProp["type"].(string); !ok || t == "" {
			subProp["type"] = "string"
		}
		if d, ok := subProp["description"].(string); !ok || d == "" {
			subProp["description"] = subName + " parameter"
		}
		sub[subName] = subProp
	}
	prop["properties"] = sub
}

func heuristicType(name string) string {
	lower := strings.ToLower(name)
	if stringNames[lower] {
		return "string"
	}
	if objectNames[lower] {
		return "object"
	}
	return "string"
}

// pruneRequired implements rule 6.
func pruneRequired(out map[string]any) {
	req, ok := out["required"].([]any)
	if !ok {
		return
	}
	props, _ := out["properties"].(map[string]any)
	pruned := make([]any, 0, len(req))
	for _, r := range req {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, exists := props[name]; exists {
			pruned = append(pruned, name)
		}
	}
	if len(pruned) == 0 {
		delete(out, "required")
		return
	}
	out["required"] = pruned
}

// pruneAdditional implements rule 7.
func pruneAdditional(out map[string]any) {
	ap, ok := out["additionalProperties"]
	if !ok {
		return
	}
	if m, ok := ap.(map[string]any); ok && len(m) == 0 {
		delete(out, "additionalProperties")
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
