package store

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// marshalBody converts a document to JSON TEXT for storage.
// Keys are written in sorted order. Nulls are kept so that json_extract sees
// the same value a Lookup on the decoded document returns.
func marshalBody(body ir.IRObject) (string, error) {
	if body == nil {
		body = ir.IRObject{}
	}
	data, err := body.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

// unmarshalBody parses stored JSON TEXT back into an IRObject.
// Uses ir.IRObject.UnmarshalJSON which decodes numbers via json.Number to
// avoid float64 precision loss for values > 2^53.
func unmarshalBody(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var body ir.IRObject
	if err := body.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return body, nil
}
