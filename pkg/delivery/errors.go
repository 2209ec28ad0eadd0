package delivery

import "errors"

var (
	ErrInvalidTransition = errors.New("delivery.errors.invalid_status_transition")
	ErrNotFailed         = errors.New("delivery.errors.notification_not_failed")
	ErrNilNotification   = errors.New("delivery.errors.nil_notification")
)
