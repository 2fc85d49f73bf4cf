package scenario

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by a command that targets a missing check.
var ErrIndexOutOfRange = errors.New("check index out of range")

// Command is one edit of a document's top-level check list. Apply never
// modifies its input; it returns a new document.
type Command interface {
	Apply(doc Document) (Document, error)
}

// NewEntry is the check an editor appends by default.
func NewEntry() Entry {
	return Entry{Event: "New event", Success: "0", Failure: "1D4"}
}

// Append adds Entry at the end.
type Append struct{ Entry Entry }

func (c Append) Apply(doc Document) (Document, error) {
	out := doc.Clone()
	out.Checks = append(out.Checks, c.Entry.clone())
	return out, nil
}

// Insert puts Entry at Index, shifting later checks down. Index may equal
// the list length.
type Insert struct {
	Index int
	Entry Entry
}

func (c Insert) Apply(doc Document) (Document, error) {
	if c.Index < 0 || c.Index > len(doc.Checks) {
		return doc, indexErr(c.Index, len(doc.Checks))
	}
	out := doc.Clone()
	checks := make([]Entry, 0, len(out.Checks)+1)
	checks = append(checks, out.Checks[:c.Index]...)
	checks = append(checks, c.Entry.clone())
	checks = append(checks, out.Checks[c.Index:]...)
	out.Checks = checks
	return out, nil
}

// Delete removes the check at Index.
type Delete struct{ Index int }

func (c Delete) Apply(doc Document) (Document, error) {
	if c.Index < 0 || c.Index >= len(doc.Checks) {
		return doc, indexErr(c.Index, len(doc.Checks))
	}
	out := doc.Clone()
	out.Checks = append(out.Checks[:c.Index:c.Index], out.Checks[c.Index+1:]...)
	return out, nil
}

// Update replaces the check at Index.
type Update struct {
	Index int
	Entry Entry
}

func (c Update) Apply(doc Document) (Document, error) {
	if c.Index < 0 || c.Index >= len(doc.Checks) {
		return doc, indexErr(c.Index, len(doc.Checks))
	}
	out := doc.Clone()
	out.Checks[c.Index] = c.Entry.clone()
	return out, nil
}

// MoveUp swaps the check at Index with the one before it. Moving the first
// check up is a no-op.
type MoveUp struct{ Index int }

func (c MoveUp) Apply(doc Document) (Document, error) {
	if c.Index < 0 || c.Index >= len(doc.Checks) {
		return doc, indexErr(c.Index, len(doc.Checks))
	}
	out := doc.Clone()
	if c.Index > 0 {
		out.Checks[c.Index-1], out.Checks[c.Index] = out.Checks[c.Index], out.Checks[c.Index-1]
	}
	return out, nil
}

// MoveDown swaps the check at Index with the one after it. Moving the last
// check down is a no-op.
type MoveDown struct{ Index int }

func (c MoveDown) Apply(doc Document) (Document, error) {
	if c.Index < 0 || c.Index >= len(doc.Checks) {
		return doc, indexErr(c.Index, len(doc.Checks))
	}
	out := doc.Clone()
	if c.Index < len(out.Checks)-1 {
		out.Checks[c.Index+1], out.Checks[c.Index] = out.Checks[c.Index], out.Checks[c.Index+1]
	}
	return out, nil
}

// ApplyAll applies cmds in order and stops at the first error.
func ApplyAll(doc Document, cmds ...Command) (Document, error) {
	for i, cmd := range cmds {
		next, err := cmd.Apply(doc)
		if err != nil {
			return doc, fmt.Errorf("command %d: %w", i, err)
		}
		doc = next
	}
	return doc, nil
}

func indexErr(i, n int) error {
	return fmt.Errorf("%w: %d (have %d checks)", ErrIndexOutOfRange, i, n)
}
