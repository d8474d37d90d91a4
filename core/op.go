package core

import "strings"

// OpKind identifies a store mutation produced by consolidation.
// The set is closed: dispatch is an exhaustive switch, not an interface.
type OpKind int

const (
	OpCreate OpKind = iota
	OpUpdate
	OpDelete
)

// String returns the wire name of the operation kind, matching the
// values the language model is asked to produce.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "CREATE"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ParseOpKind maps a wire name back to an OpKind.
// Unknown names return a CodeUnsupported error.
func ParseOpKind(s string) (OpKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREATE":
		return OpCreate, nil
	case "UPDATE":
		return OpUpdate, nil
	case "DELETE":
		return OpDelete, nil
	default:
		return 0, NewError(CodeUnsupported, "unsupported operation kind: "+s)
	}
}

// Operation is one planned store mutation. MemoryID is empty for CREATE;
// Content is empty for DELETE. Operations are transient: they are validated,
// deduplicated, then executed or discarded, never stored.
type Operation struct {
	Kind     OpKind
	MemoryID string
	Content  string
}

// Validate checks the operation against the candidate set it was generated
// from. UPDATE and DELETE must reference a known id; CREATE and UPDATE must
// carry non-empty content.
func (op Operation) Validate(knownIDs map[string]bool) error {
	switch op.Kind {
	case OpCreate:
		if strings.TrimSpace(op.Content) == "" {
			return NewError(CodeInvalidInput, "CREATE with empty content")
		}
		return nil
	case OpUpdate:
		if !knownIDs[op.MemoryID] {
			return NewError(CodeInvalidInput, "UPDATE references unknown memory "+op.MemoryID)
		}
		if strings.TrimSpace(op.Content) == "" {
			return NewError(CodeInvalidInput, "UPDATE with empty content")
		}
		return nil
	case OpDelete:
		if !knownIDs[op.MemoryID] {
			return NewError(CodeInvalidInput, "DELETE references unknown memory "+op.MemoryID)
		}
		return nil
	default:
		return NewError(CodeUnsupported, "unsupported operation kind")
	}
}
