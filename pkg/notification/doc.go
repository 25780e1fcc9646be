// Package notification dispatches templated user notifications to the
// notification service.
//
// Delivery is fire and forget: billing state never depends on whether
// a notification went out, so failures are logged and swallowed. Use
// NewNoopSender in tests.
package notification
