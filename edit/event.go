package edit

// EventType identifies a change notification.
type EventType string

const (
	EventEdit   EventType = "edit"
	EventAdd    EventType = "add"
	EventDelete EventType = "delete"
	EventMove   EventType = "move"
	EventAttr   EventType = "attr"
	EventPatch  EventType = "patch"
	EventBulk   EventType = "bulk"
	// EventLoad and EventMode are sent by documents when the tree is
	// replaced wholesale or the editing mode changes.
	EventLoad EventType = "load"
	EventMode EventType = "mode"
)

// Event describes a committed change. Old and New hold plain Go values
// (see ir.ToAny), never live nodes. Count is the number of operations
// folded into a bulk event.
type Event struct {
	Type  EventType
	Path  string
	From  string
	Old   any
	New   any
	Count int
}

// Listener receives committed changes.
type Listener func(Event)
