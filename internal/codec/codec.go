// Package codec defines the boundary between the pipeline and the
// upstream's schema-typed serialization ("the schema registry" in spec
// terms). The pipeline only ever calls Encode/Decode by message-type name;
// it never depends on a specific wire format.
package codec

// Codec turns a named message type and a Go value into upstream bytes and
// back. relaygw ships JSONCodec as a documented stand-in sufficient to
// drive the pipeline end-to-end; it is not claimed to be the upstream's
// actual envelope wire format (only server_message_data, which is fully
// specified, has a real implementation — see internal/wire).
type Codec interface {
	Encode(msgType string, v any) ([]byte, error)
	Decode(msgType string, data []byte) (any, error)
}
