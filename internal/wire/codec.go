package wire

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts a message into a protobuf Struct.
func Encode(message any) (*structpb.Struct, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	fields := make(map[string]any)
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("message is not an object: %w", err)
	}

	result, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}

	return result, nil
}

// Decode fills message from a protobuf Struct. A nil struct leaves message untouched.
func Decode(source *structpb.Struct, message any) error {
	if source == nil {
		return nil
	}

	data, err := protojson.Marshal(source)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}

	if err = json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}

	return nil
}

// MarshalFile renders a message as indented protobuf JSON for on-disk storage.
func MarshalFile(message any) ([]byte, error) {
	source, err := Encode(message)
	if err != nil {
		return nil, err
	}

	options := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := options.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("encode file: %w", err)
	}

	return data, nil
}

// UnmarshalFile is the inverse of MarshalFile.
func UnmarshalFile(data []byte, message any) error {
	var source structpb.Struct
	if err := protojson.Unmarshal(data, &source); err != nil {
		return fmt.Errorf("decode file: %w", err)
	}

	return Decode(&source, message)
}
