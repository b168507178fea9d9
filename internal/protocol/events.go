package protocol

// Client → server events. CLEAR_ALL is also rebroadcast server → client
// under the same name.
const (
	EventJoinRoom     = "JOIN_ROOM"
	EventStrokeStart  = "STROKE_START"
	EventStrokeUpdate = "STROKE_UPDATE"
	EventStrokeEnd    = "STROKE_END"
	EventUndo         = "UNDO"
	EventRedo         = "REDO"
	EventClearAll     = "CLEAR_ALL"
)

// Server → client events.
const (
	EventRemoteStrokeStart  = "REMOTE_STROKE_START"
	EventRemoteStrokeUpdate = "REMOTE_STROKE_UPDATE"
	EventRemoteStrokeEnd    = "REMOTE_STROKE_END"
	EventSyncState          = "SYNC_STATE"
	EventUserJoin           = "USER_JOIN"
	EventUserLeave          = "USER_LEAVE"
)
