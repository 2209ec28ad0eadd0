// Package push provides mobile push delivery for notifications.
//
// PushSender abstracts the wire client; the package ships DevSender, a
// logging implementation for development and tests. Production deployments
// plug in their own provider client behind the same interface.
//
// Sink adapts a PushSender to the delivery fan-out: it resolves the user's
// registered device tokens through a DeviceLookup, and a user with zero
// devices is "nothing to do" rather than a failure.
package push
