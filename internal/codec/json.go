package codec

import "encoding/json"

// JSONCodec encodes every message type as plain JSON. msgType is accepted
// but unused — it exists only to satisfy the Codec interface's shape, since
// a real schema-registry client would dispatch on it.
type JSONCodec struct{}

func (JSONCodec) Encode(msgType string, v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(msgType string, data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
