package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presenceRow struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func TestConstructorsProduceValidEvents(t *testing.T) {
	row := presenceRow{UserID: "u1", Status: "online"}

	ins, err := Insert(TablePresence, row)
	require.NoError(t, err)
	require.NoError(t, ins.Validate())
	assert.Equal(t, EventInsert, ins.Type)

	upd, err := Update(TablePresence, nil, row)
	require.NoError(t, err)
	require.NoError(t, upd.Validate())
	assert.Empty(t, upd.Before)

	del, err := Delete(TablePresence, row)
	require.NoError(t, err)
	require.NoError(t, del.Validate())
	assert.Empty(t, del.After)
}

func TestValidateRejectsHalfFormedEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   ChangeEvent
	}{
		{"missing table", ChangeEvent{Type: EventInsert, After: []byte(`{}`)}},
		{"insert without after", ChangeEvent{Type: EventInsert, Table: TablePresence}},
		{"update without after", ChangeEvent{Type: EventUpdate, Table: TablePresence, Before: []byte(`{}`)}},
		{"delete without before", ChangeEvent{Type: EventDelete, Table: TablePresence, After: []byte(`{}`)}},
		{"unknown type", ChangeEvent{Type: "upsert", Table: TablePresence, After: []byte(`{}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestParseValidatesAtTheBoundary(t *testing.T) {
	ev, err := Parse([]byte(`{"type":"insert","table":"messages","after":{"id":"m1"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventInsert, ev.Type)
	assert.Equal(t, TableMessages, ev.Table)

	_, err = Parse([]byte(`{"type":"insert","table":"messages"}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = Parse([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestDecodeRoundTrip(t *testing.T) {
	ev, err := Update(TablePresence, presenceRow{UserID: "u1", Status: "online"}, presenceRow{UserID: "u1", Status: "offline"})
	require.NoError(t, err)

	var before, after presenceRow
	require.NoError(t, ev.DecodeBefore(&before))
	require.NoError(t, ev.DecodeAfter(&after))
	assert.Equal(t, "online", before.Status)
	assert.Equal(t, "offline", after.Status)

	var missing presenceRow
	ins, err := Insert(TablePresence, presenceRow{UserID: "u1"})
	require.NoError(t, err)
	assert.ErrorIs(t, ins.DecodeBefore(&missing), ErrInvalidEvent)
}
