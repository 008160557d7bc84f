package intake

import "time"

// Role identifies the author of a log entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single message of the conversation.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// conversationLog is append-only. Timestamps are forced to increase so two
// entries recorded within the clock resolution still keep their order.
type conversationLog struct {
	entries []Entry
	now     func() time.Time
}

func (l *conversationLog) append(role Role, content string) Entry {
	ts := l.now()
	if n := len(l.entries); n > 0 {
		if last := l.entries[n-1].Timestamp; !ts.After(last) {
			ts = last.Add(time.Nanosecond)
		}
	}

	entry := Entry{Role: role, Content: content, Timestamp: ts}
	l.entries = append(l.entries, entry)
	return entry
}

func (l *conversationLog) snapshot() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
