package policy

// Kind names the tool a call targets.
type Kind string

const (
	KindRead  Kind = "Read"
	KindEdit  Kind = "Edit"
	KindWrite Kind = "Write"
	KindBash  Kind = "Bash"
)

// ToolCall is one request to evaluate. The concrete types are ReadCall,
// EditCall, WriteCall, BashCall and OtherCall.
type ToolCall interface {
	Kind() Kind
	toolCall()
}

// ReadCall reads a file.
type ReadCall struct {
	FilePath string
}

// EditCall modifies an existing file.
type EditCall struct {
	FilePath string
}

// WriteCall creates or overwrites a file.
type WriteCall struct {
	FilePath string
}

// BashCall runs a shell command.
type BashCall struct {
	Command string
}

// OtherCall is any tool the engine does not model. It is always allowed.
type OtherCall struct {
	Name string
}

func (ReadCall) Kind() Kind  { return KindRead }
func (EditCall) Kind() Kind  { return KindEdit }
func (WriteCall) Kind() Kind { return KindWrite }
func (BashCall) Kind() Kind  { return KindBash }
func (c OtherCall) Kind() Kind {
	return Kind(c.Name)
}

func (ReadCall) toolCall()  {}
func (EditCall) toolCall()  {}
func (WriteCall) toolCall() {}
func (BashCall) toolCall()  {}
func (OtherCall) toolCall() {}

// NewToolCall builds the variant for a tool name and its two possible fields.
// Unknown names become an OtherCall.
func NewToolCall(name, filePath, command string) ToolCall {
	switch Kind(name) {
	case KindRead:
		return ReadCall{FilePath: filePath}
	case KindEdit:
		return EditCall{FilePath: filePath}
	case KindWrite:
		return WriteCall{FilePath: filePath}
	case KindBash:
		return BashCall{Command: command}
	default:
		return OtherCall{Name: name}
	}
}
