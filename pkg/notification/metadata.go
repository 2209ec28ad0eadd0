package notification

import (
	"encoding/json"
	"fmt"
)

// MaxMetadataSize is the maximum JSON-encoded size of a notification's
// metadata payload in bytes.
const MaxMetadataSize = 2048

// NormalizeMetadata applies the lenient metadata policy: metadata that is
// not JSON-serializable or exceeds MaxMetadataSize when encoded is dropped
// to an empty map. Creation is never blocked by bad decoration.
func NormalizeMetadata(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return map[string]any{}
	}

	encoded, err := json.Marshal(meta)
	if err != nil || len(encoded) > MaxMetadataSize {
		return map[string]any{}
	}
	return meta
}

// ValidateMetadata applies the strict metadata policy used by the bulk API:
// non-serializable or oversize metadata is rejected with an error instead of
// being silently dropped.
func ValidateMetadata(meta map[string]any) error {
	if len(meta) == 0 {
		return nil
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataNotSerializable, err)
	}
	if len(encoded) > MaxMetadataSize {
		return fmt.Errorf("%w: %d bytes encoded, limit %d", ErrMetadataTooLarge, len(encoded), MaxMetadataSize)
	}
	return nil
}

// CloneMetadata returns a shallow copy of the metadata map. Used to snapshot
// metadata before a delivery attempt so a failed attempt can restore it.
func CloneMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	clone := make(map[string]any, len(meta))
	for k, v := range meta {
		clone[k] = v
	}
	return clone
}
