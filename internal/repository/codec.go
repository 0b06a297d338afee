package repository

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// Codec converts entities to and from stored documents.
type Codec[T any] interface {
	Encode(v T) (ir.IRObject, error)
	Decode(doc ir.IRObject) (T, error)
}

// JSONCodec stores T through encoding/json. T must encode to a JSON object
// without fractional numbers.
type JSONCodec[T any] struct{}

// Encode marshals v and converts the result into an IRObject.
func (JSONCodec[T]) Encode(v T) (ir.IRObject, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	val, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	obj, ok := val.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("encode %T: not a JSON object", v)
	}
	return obj, nil
}

// Decode unmarshals doc into a new T.
func (JSONCodec[T]) Decode(doc ir.IRObject) (T, error) {
	var v T
	data, err := doc.MarshalJSON()
	if err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// DocumentCodec stores schemaless documents as they are.
type DocumentCodec struct{}

// Encode returns doc unchanged.
func (DocumentCodec) Encode(doc ir.IRObject) (ir.IRObject, error) {
	if doc == nil {
		return ir.IRObject{}, nil
	}
	return doc, nil
}

// Decode returns doc unchanged.
func (DocumentCodec) Decode(doc ir.IRObject) (ir.IRObject, error) {
	return doc, nil
}
