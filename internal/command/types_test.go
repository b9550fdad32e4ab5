package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{name: "empty", raw: "", want: map[string]any{}},
		{name: "object", raw: `{"count": 3}`, want: map[string]any{"count": float64(3)}},
		{name: "encoded string", raw: `"{\"duration\": 15}"`, want: map[string]any{"duration": float64(15)}},
		{name: "malformed", raw: `{broken`, want: map[string]any{}},
		{name: "malformed inside string", raw: `"{broken"`, want: map[string]any{}},
		{name: "null", raw: `null`, want: map[string]any{}},
		{name: "array", raw: `[1,2]`, want: map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			assert.Equal(t, tt.want, NormalizeArgs(raw))
		})
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"float":  float64(7),
		"int":    3,
		"string": "12",
		"junk":   "not a number",
	}
	assert.Equal(t, 7, intArg(args, "float", 0))
	assert.Equal(t, 3, intArg(args, "int", 0))
	assert.Equal(t, 12, intArg(args, "string", 0))
	assert.Equal(t, 9, intArg(args, "junk", 9))
	assert.Equal(t, 5, intArg(args, "missing", 5))
}

func TestResultJSON(t *testing.T) {
	res := Fail("Unknown command: %s", "zap")
	assert.False(t, res.Success())

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal([]byte(res.JSON()), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "Unknown command: zap", decoded["error"])

	ok := OK(map[string]any{"percent": 100})
	assert.True(t, ok.Success())
	assert.Empty(t, ok.Error())
}
