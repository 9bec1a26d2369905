package toolcall

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromText_SingleObjectAndArrayAreEquivalent(t *testing.T) {
	object := `<function_calls>{"name":"f","arguments":{"x":1}}</function_calls>`
	array := `<function_calls>[{"name":"f","arguments":{"x":1}}]</function_calls>`

	fromObject := ParseFromText(object)
	fromArray := ParseFromText(array)

	require.Len(t, fromObject, 1)
	require.Len(t, fromArray, 1)

	assert.Equal(t, "f", fromObject[0].Function.Name)
	assert.Equal(t, "f", fromArray[0].Function.Name)
	assert.Equal(t, `{"x":1}`, fromObject[0].Function.Arguments)
	assert.Equal(t, fromObject[0].Function.Arguments, fromArray[0].Function.Arguments)
}

func TestParseFromText_GoogleSearchScenario(t *testing.T) {
	text := "<function_calls>{\"name\":\"Google_Search\",\"arguments\":{\"query\":\"GPT-5\"}}</function_calls>"

	calls := ParseFromText(text)

	require.Len(t, calls, 1)
	assert.Equal(t, "Google_Search", calls[0].Function.Name)
	assert.True(t, IsCompliant(calls[0]))

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].Function.Arguments), &args))
	assert.Equal(t, "GPT-5", args["query"])
}

func TestParseFromText_MultipleCalls(t *testing.T) {
	text := `before <function_calls>[{"name":"a","arguments":{}},{"name":"b","arguments":{"k":"v"}}]</function_calls> after`

	calls := ParseFromText(text)

	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].Function.Name)
	assert.Equal(t, "b", calls[1].Function.Name)
}

func TestParseFromText_RecoversOneStrayTrailer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "duplicate closing bracket",
			text: `<function_calls>[{"name":"f","arguments":{}}]]</function_calls>`,
			want: 1,
		},
		{
			name: "trailing comma after object",
			text: `<function_calls>{"name":"f","arguments":{}},</function_calls>`,
			want: 1,
		},
		{
			name: "permanently malformed degrades to empty",
			text: `<function_calls>{"name": oops not json</function_calls>`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ParseFromText(tt.text), tt.want)
		})
	}
}

func TestParseFromText_NoRegion(t *testing.T) {
	assert.Nil(t, ParseFromText("just ordinary prose"))
	assert.Nil(t, ParseFromText("<function_calls></function_calls>"))
}

func TestParseFromText_StringArgumentsPassThrough(t *testing.T) {
	text := `<function_calls>{"name":"f","arguments":"{\"x\":2}"}</function_calls>`

	calls := ParseFromText(text)

	require.Len(t, calls, 1)
	assert.Equal(t, `{"x":2}`, calls[0].Function.Arguments)
}

func TestParseFromText_AssignsFreshIDAndType(t *testing.T) {
	calls := ParseFromText(`<function_calls>{"name":"f","arguments":{}}</function_calls>`)

	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
	assert.Equal(t, TypeFunction, calls[0].Type)
}

func TestStripFromText(t *testing.T) {
	text := "Sure, calling now. <function_calls>{\"name\":\"f\",\"arguments\":{}}</function_calls> Done."

	assert.Equal(t, "Sure, calling now.  Done.", StripFromText(text))
	assert.True(t, ContainsRegion(text))
	assert.False(t, ContainsRegion("no calls here"))
}
