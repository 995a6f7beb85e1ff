package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aprendecomigo-edu/courier/core"
)

var (
	// ErrMalformedFrame is returned when an inbound payload is not valid JSON
	// or does not decode into a frame.
	ErrMalformedFrame = fmt.Errorf("malformed frame")
	// ErrInvalidFrame is returned when a payload is well-formed JSON but does
	// not satisfy the frame schema (e.g. missing type).
	ErrInvalidFrame = fmt.Errorf("invalid frame")
)

// frameSchema is the structural contract for inbound frames. Validation
// failures are protocol errors: logged and dropped, never surfaced.
const frameSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string", "minLength": 1},
    "data": {"type": "object"},
    "user_id": {"type": "string"},
    "timestamp": {"type": "string"}
  }
}`

var compiledFrameSchema = mustCompileFrameSchema()

func mustCompileFrameSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const schemaURL = "https://courier.schemas.local/frame.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(frameSchema)); err != nil {
		panic(fmt.Sprintf("frame schema load failed: %v", err))
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("frame schema compile failed: %v", err))
	}
	return compiled
}

// Decode parses a raw inbound payload into a Frame. Non-JSON payloads return
// ErrMalformedFrame; structurally invalid ones return ErrInvalidFrame. The
// caller is expected to log and drop on error, never to crash the pipeline.
func Decode(raw []byte) (core.Frame, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return core.Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := compiledFrameSchema.Validate(probe); err != nil {
		return core.Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	var f core.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		// Schema passed but a field (typically timestamp) has the wrong shape.
		return core.Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return f, nil
}

// Encode serializes an outbound frame for the transport.
func Encode(f core.Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}
