package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixProgress = "progress:"
	CacheKeyPrefixNames    = "names:"
)

const (
	DefaultInputTopic   = "inbound_messages"
	DefaultOutputTopic  = "derived_cells"
	DefaultPreviewTopic = "conversation_previews"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const (
	DefaultProgressTTL = 24 * time.Hour
	DefaultNamesTTL    = time.Hour
)

// Re-edit window applied when revoke.reedit_window is unset.
const DefaultReEditWindow = 2 * time.Minute

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	NamesProviderPostgres = "postgres"
	NamesProviderMongoDB  = "mongodb"
)

// Business IDs with built-in suppression behavior.
const (
	BusinessIDCustomerService = "customerServicePlugin"
	BusinessIDChatbot         = "chatbotPlugin"
	BusinessIDIgnore          = "IgnoreMessage"
)

// Chatbot src value that marks a message as hidden from the timeline.
const ChatbotIgnoreSrc = 22
