package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeChecks() Document {
	return Document{Checks: []Entry{
		{Event: "a", Success: "0", Failure: "1"},
		{Event: "b", Success: "0", Failure: "2"},
		{Event: "c", Success: "0", Failure: "3"},
	}}
}

func events(doc Document) []string {
	out := make([]string, len(doc.Checks))
	for i, e := range doc.Checks {
		out[i] = e.Event
	}
	return out
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []string
	}{
		{name: "append", cmd: Append{Entry: NewEntry()}, want: []string{"a", "b", "c", "New event"}},
		{name: "insert front", cmd: Insert{Index: 0, Entry: Entry{Event: "z"}}, want: []string{"z", "a", "b", "c"}},
		{name: "insert end", cmd: Insert{Index: 3, Entry: Entry{Event: "z"}}, want: []string{"a", "b", "c", "z"}},
		{name: "delete middle", cmd: Delete{Index: 1}, want: []string{"a", "c"}},
		{name: "update", cmd: Update{Index: 2, Entry: Entry{Event: "z"}}, want: []string{"a", "b", "z"}},
		{name: "move up", cmd: MoveUp{Index: 2}, want: []string{"a", "c", "b"}},
		{name: "move first up", cmd: MoveUp{Index: 0}, want: []string{"a", "b", "c"}},
		{name: "move down", cmd: MoveDown{Index: 0}, want: []string{"b", "a", "c"}},
		{name: "move last down", cmd: MoveDown{Index: 2}, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := threeChecks()
			got, err := tt.cmd.Apply(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, events(got))
			assert.Equal(t, []string{"a", "b", "c"}, events(doc), "input must not change")
		})
	}
}

func TestCommandsOutOfRange(t *testing.T) {
	doc := threeChecks()
	for _, cmd := range []Command{
		Insert{Index: 4}, Insert{Index: -1},
		Delete{Index: 3}, Update{Index: -1},
		MoveUp{Index: 3}, MoveDown{Index: -1},
	} {
		_, err := cmd.Apply(doc)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "%#v", cmd)
	}
}

func TestApplyAll(t *testing.T) {
	doc := threeChecks()
	got, err := ApplyAll(doc, Delete{Index: 0}, Append{Entry: Entry{Event: "d"}}, MoveUp{Index: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "c"}, events(got))

	_, err = ApplyAll(doc, Delete{Index: 0}, Delete{Index: 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Contains(t, err.Error(), "command 1")
}

func TestEditDoesNotShareNestedPaths(t *testing.T) {
	doc := Document{Checks: []Entry{
		{Branch: "b", Paths: []PathEntry{{Label: "p", Checks: []Entry{{Event: "inner"}}}}},
	}}
	got, err := Append{Entry: NewEntry()}.Apply(doc)
	require.NoError(t, err)

	got.Checks[0].Paths[0].Checks[0].Event = "changed"
	assert.Equal(t, "inner", doc.Checks[0].Paths[0].Checks[0].Event)
}
