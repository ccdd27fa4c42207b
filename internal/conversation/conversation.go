package conversation

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	// RoleSystem marks the pinned instruction message.
	RoleSystem Role = "system"
	// RoleUser marks operator input.
	RoleUser Role = "user"
	// RoleAssistant marks model output, including action requests.
	RoleAssistant Role = "assistant"
	// RoleTool marks action results fed back to the model.
	RoleTool Role = "tool"
)

// ActionRequest is a model-issued request to invoke a named capability.
// Consumed at most once per turn.
type ActionRequest struct {
	// ID is the call id, unique within a turn.
	ID string
	// Name is the capability name as declared to the model.
	Name string
	// RawArgs holds the argument object exactly as the model produced it.
	RawArgs json.RawMessage
}

// Args decodes the request arguments into a name->value map.
// A malformed or absent payload yields an empty map rather than an error;
// individual actions validate their own required fields.
func (r ActionRequest) Args() map[string]any {
	args := map[string]any{}
	if len(r.RawArgs) == 0 {
		return args
	}
	if err := json.Unmarshal(r.RawArgs, &args); err != nil {
		return map[string]any{}
	}
	return args
}

// ActionResult is the outcome fed back for one ActionRequest.
// Every request seen in a turn produces exactly one result.
type ActionResult struct {
	// ID matches the originating request's call id.
	ID string
	// Name echoes the capability name for display purposes.
	Name string
	// Content is the text payload returned to the model.
	Content string
	// IsError reports whether the payload describes a failure or rejection.
	IsError bool
}

// Message is one conversation entry. Immutable once appended.
type Message struct {
	// Role is the message author.
	Role Role
	// Content is the plain text portion of the message.
	Content string
	// Requests holds action requests carried by an assistant message.
	Requests []ActionRequest
	// Results holds action results carried by a tool message.
	Results []ActionResult
}

// Record is the serializable projection handed to the session store.
type Record struct {
	// Role is the message role as a plain string.
	Role string `json:"role"`
	// Text is the message text payload.
	Text string `json:"text"`
}

// Conversation is the append-only message history for one session.
// Owned exclusively by the engine; never mutated concurrently.
type Conversation struct {
	messages []Message
}

// New creates a conversation. A non-empty system prompt is pinned at index 0.
func New(systemPrompt string) *Conversation {
	conv := &Conversation{}
	if systemPrompt != "" {
		conv.messages = append(conv.messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return conv
}

// Append adds one message to the history.
func (c *Conversation) Append(message Message) {
	c.messages = append(c.messages, message)
}

// AppendUser appends a plain user message.
func (c *Conversation) AppendUser(text string) {
	c.Append(Message{Role: RoleUser, Content: text})
}

// AppendAssistant appends a plain assistant message.
func (c *Conversation) AppendAssistant(text string) {
	c.Append(Message{Role: RoleAssistant, Content: text})
}

// Clear drops every message except the pinned system message.
func (c *Conversation) Clear() {
	if len(c.messages) > 0 && c.messages[0].Role == RoleSystem {
		c.messages = c.messages[:1]
		return
	}
	c.messages = nil
}

// SetSystem replaces the pinned system message, inserting one if absent.
func (c *Conversation) SetSystem(prompt string) {
	if len(c.messages) > 0 && c.messages[0].Role == RoleSystem {
		c.messages[0] = Message{Role: RoleSystem, Content: prompt}
		return
	}
	c.messages = append([]Message{{Role: RoleSystem, Content: prompt}}, c.messages...)
}

// Messages returns a copy of the history for transport calls.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of messages including the system message.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Snapshot projects the history into persistable {role, text} records.
// Action payloads are flattened to text so an external store needs no
// knowledge of the request/result structures.
func (c *Conversation) Snapshot() []Record {
	records := make([]Record, 0, len(c.messages))
	for _, message := range c.messages {
		text := message.Content
		if text == "" && len(message.Results) > 0 {
			text = message.Results[0].Content
		}
		records = append(records, Record{Role: string(message.Role), Text: text})
	}
	return records
}

// Restore rebuilds plain text history from persisted records.
// Structured action payloads are not round-tripped; a restored session
// resumes from the flattened text view.
func Restore(records []Record) *Conversation {
	conv := &Conversation{}
	for _, record := range records {
		conv.messages = append(conv.messages, Message{
			Role:    Role(record.Role),
			Content: record.Text,
		})
	}
	return conv
}
