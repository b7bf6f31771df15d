package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin subscribes the connection to its user and role rooms.
	CommandJoin CommandKind = iota
	// CommandLeave unsubscribes the connection from one room.
	CommandLeave
)

// Command represents an action requested by a connection.
type Command struct {
	Kind   CommandKind
	UserID string
	Role   string
	Room   RoomName
}
