// Package notifications delivers run events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event type
// can be switched off independently in the [notifications] section, and
// pending-review reminders are only sent once the pending count reaches
// review_minimum.
package notifications
