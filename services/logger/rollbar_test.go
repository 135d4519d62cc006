package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

func TestNewEntry(t *testing.T) {
	boom := errors.New("boom")
	mom := core.LogPerson{ID: 7, Username: "mom", Email: "mom@test.cd", Role: "parent"}
	dad := core.LogPerson{ID: 8, Username: "dad"}

	tests := []struct {
		name       string
		args       []interface{}
		wantArgs   []interface{}
		wantPerson *core.LogPerson
	}{
		{
			name:     "message only",
			wantArgs: []interface{}{"msg"},
		},
		{
			name:     "error and extras",
			args:     []interface{}{boom, map[string]interface{}{"id": 1}},
			wantArgs: []interface{}{"msg", boom, map[string]interface{}{"id": 1}},
		},
		{
			name:       "first person wins, role in extras",
			args:       []interface{}{mom, boom, dad},
			wantArgs:   []interface{}{"msg", boom, map[string]interface{}{"account_role": "parent"}},
			wantPerson: &mom,
		},
		{
			name: "extras merged",
			args: []interface{}{map[string]interface{}{"a": 1}, mom, map[string]interface{}{"b": 2}},
			wantArgs: []interface{}{"msg", map[string]interface{}{
				"a": 1, "b": 2, "account_role": "parent",
			}},
			wantPerson: &mom,
		},
		{
			name:       "person without role",
			args:       []interface{}{dad},
			wantArgs:   []interface{}{"msg"},
			wantPerson: &dad,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEntry("msg", tt.args)
			assert.Equal(t, tt.wantArgs, e.args)
			assert.Equal(t, tt.wantPerson, e.person)
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{})
	logger.Enable(false)

	logger.Error("saving progress failed", errors.New("boom"), core.LogPerson{ID: 3, Username: "kid", Role: "student"})
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "saving progress failed\n")
	assert.Contains(t, out, "account: #3 kid (student)\n")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "account_role:student")
}
