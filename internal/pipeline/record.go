package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is the persisted form of a pipeline: one kind tag and one payload
// per stage, in order. Nested pipelines are stored recursively.
type Record struct {
	Types []Kind            `json:"types"`
	Data  []json.RawMessage `json:"data"`
}

// Record captures the kind and serialized payload of every stage.
func (p *Pipeline) Record() (Record, error) {
	rec := Record{
		Types: make([]Kind, len(p.stages)),
		Data:  make([]json.RawMessage, len(p.stages)),
	}

	for i, s := range p.stages {
		kind, err := KindOf(s)
		if err != nil {
			return Record{}, fmt.Errorf("stage %d: %w", i, err)
		}
		payload, err := json.Marshal(s)
		if err != nil {
			return Record{}, fmt.Errorf("stage %d: %w", i, err)
		}
		rec.Types[i] = kind
		rec.Data[i] = payload
	}

	return rec, nil
}

// FromRecord rebuilds a pipeline from its record.
//
// Payloads may be JSON objects or JSON strings holding the object, as
// written by older encoders.
func FromRecord(rec Record) (*Pipeline, error) {
	if len(rec.Types) != len(rec.Data) {
		return nil, fmt.Errorf("%w: %d types but %d payloads", ErrInvalidRecord, len(rec.Types), len(rec.Data))
	}

	p := New()
	for i, kind := range rec.Types {
		s, err := newStage(kind)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}

		payload, err := unwrap(rec.Data[i])
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if err := json.Unmarshal(payload, s); err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, kind, err)
		}
		p.Add(s)
	}

	return p, nil
}

// unwrap returns the payload itself, or the contents of a JSON string.
func unwrap(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed, nil
	}

	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return []byte(inner), nil
}

// MarshalJSON implements json.Marshaler.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	rec, err := p.Record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler. The receiver is replaced by
// the decoded pipeline.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode pipeline: %w", err)
	}

	decoded, err := FromRecord(rec)
	if err != nil {
		return err
	}

	*p = *decoded
	return nil
}
