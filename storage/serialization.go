package storage

import (
	"fmt"

	"github.com/poiesic/careersearch/core"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalInstitute serializes an Institute to bytes.
func MarshalInstitute(inst *core.Institute) ([]byte, error) {
	return marshal(inst)
}

// UnmarshalInstitute deserializes an Institute from bytes.
func UnmarshalInstitute(data []byte) (*core.Institute, error) {
	var inst core.Institute
	if err := unmarshal(data, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// MarshalSuggestion serializes a Suggestion to bytes.
func MarshalSuggestion(s *core.Suggestion) ([]byte, error) {
	return marshal(s)
}

// UnmarshalSuggestion deserializes a Suggestion from bytes.
func UnmarshalSuggestion(data []byte) (*core.Suggestion, error) {
	var s core.Suggestion
	if err := unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalRebuildRun serializes a RebuildRun to bytes.
func MarshalRebuildRun(run *core.RebuildRun) ([]byte, error) {
	return marshal(run)
}

// UnmarshalRebuildRun deserializes a RebuildRun from bytes.
func UnmarshalRebuildRun(data []byte) (*core.RebuildRun, error) {
	var run core.RebuildRun
	if err := unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}
