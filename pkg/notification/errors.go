package notification

import "errors"

var (
	// ErrNotFound is returned when a notification does not exist.
	ErrNotFound = errors.New("notification not found")

	// ErrGroupNotFound is returned when a notification group does not exist.
	ErrGroupNotFound = errors.New("notification group not found")

	// ErrMetadataTooLarge is returned by the strict metadata policy when the
	// encoded metadata exceeds MaxMetadataSize.
	ErrMetadataTooLarge = errors.New("notification metadata exceeds size limit")

	// ErrMetadataNotSerializable is returned by the strict metadata policy
	// when the metadata cannot be JSON encoded.
	ErrMetadataNotSerializable = errors.New("notification metadata is not serializable")

	// ErrMissingID is returned when persisting a notification without an id.
	ErrMissingID = errors.New("notification ID is required")

	// ErrMissingUserID is returned when persisting a notification without an owner.
	ErrMissingUserID = errors.New("user ID is required")
)
