package streams

// Stream name constants
const (
	StreamReminderOutbox = "reminders:outbox"
)

// Consumer group constants
const (
	GroupBotSenders = "bot-senders"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

const (
	fieldPayload       = "payload"
	fieldPublishedAt   = "published_at"
	fieldSchemaVersion = "schema_version"
)
