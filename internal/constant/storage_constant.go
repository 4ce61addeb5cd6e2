package constant

// Storage slice keys. Each slice is persisted as one whole JSON value under
// <prefix>:<key>; a missing key means "use default".
const (
	StorageKeyAuth     = "auth"
	StorageKeyMessages = "chat"
	StorageKeyConfig   = "config"
	StorageKeyChatTabs = "tabs"
)

// DefaultStoragePrefix namespaces all slices of this product.
const DefaultStoragePrefix = "ceo_assistant"
