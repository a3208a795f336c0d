package domain

// KeyPrefix namespaces every key neodex writes to an external store.
const KeyPrefix = "neodex:"

// Search defaults applied when the config leaves them empty.
const (
	DefaultSearchTimeoutMs = 2000
	DefaultMaxLimit        = 1000
	DefaultLimit           = 10
)
