package constant

// Event types published on the state bus after committed mutations.
const (
	EventUserLogin        = "USER_LOGIN"
	EventUserLogout       = "USER_LOGOUT"
	EventChatCreated      = "CHAT_CREATED"
	EventChatSwitched     = "CHAT_SWITCHED"
	EventChatDeleted      = "CHAT_DELETED"
	EventMessageAdded     = "MESSAGE_ADDED"
	EventMessageUpdated   = "MESSAGE_UPDATED"
	EventSheetURLUpdated  = "SHEET_URL_UPDATED"
	EventDatasetConnected = "DATASET_CONNECTED"
	EventDatasetFailed    = "DATASET_FAILED"
)

// DefaultStateTopic is the watermill topic state events are published on.
const DefaultStateTopic = "STATE_EVENTS"
