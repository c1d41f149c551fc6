package packet

import "encoding/json"

// Encode marshals env to its generic JSON-shaped tree, replaces every
// server_message_data object with its wire-form string, and re-marshals the
// result to JSON bytes, which the chat handler sends as the upstream
// request body.
func Encode(env Envelope) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}

	tree = ReplaceServerMessageData(tree)
	return json.Marshal(tree)
}
