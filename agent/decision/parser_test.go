package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

func strPtr(s string) *string { return &s }

func TestDecodeFallsBackOnNonObject(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"42",
		"[1, 2, 3]",
		`"just a string"`,
		"null",
		"true",
		"The answer is four.",
		`{"action": "answer"`,
		`{"action":"answer"} trailing`,
		"",
		"   ",
	}
	for _, raw := range inputs {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			res := Decode(raw)
			assert.Equal(t, Malformed, res.Status)
			assert.Equal(t, contractx.ActionAnswer, res.Decision.Action)
			require.NotNil(t, res.Decision.AnswerText)
			assert.Equal(t, raw, *res.Decision.AnswerText)
			assert.Nil(t, res.Decision.ToolExpression)
		})
	}
}

func TestParseUseTool(t *testing.T) {
	t.Parallel()

	d := Parse(`{"action":"use_tool","tool_expression":"2+2"}`)
	assert.Equal(t, contractx.ActionUseTool, d.Action)
	require.NotNil(t, d.ToolExpression)
	assert.Equal(t, "2+2", *d.ToolExpression)
	assert.Nil(t, d.AnswerText)
}

func TestParseDefaultsAndAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want contractx.Decision
	}{
		{
			name: "missing action defaults to answer",
			raw:  `{"answer_text":"hi"}`,
			want: contractx.Decision{Action: contractx.ActionAnswer, AnswerText: strPtr("hi")},
		},
		{
			name: "null action defaults to answer",
			raw:  `{"action":null}`,
			want: contractx.Decision{Action: contractx.ActionAnswer},
		},
		{
			name: "short keys and calculator synonym",
			raw:  `{"action":"use_calculator","expression":"3*3","answer":null}`,
			want: contractx.Decision{Action: contractx.ActionUseTool, ToolExpression: strPtr("3*3")},
		},
		{
			name: "canonical key wins",
			raw:  `{"action":"answer","answer_text":"a","answer":"b"}`,
			want: contractx.Decision{Action: contractx.ActionAnswer, AnswerText: strPtr("a")},
		},
		{
			name: "unknown action kept verbatim",
			raw:  `{"action":"search_web"}`,
			want: contractx.Decision{Action: "search_web"},
		},
		{
			name: "numeric action kept as literal",
			raw:  `{"action":7}`,
			want: contractx.Decision{Action: "7"},
		},
		{
			name: "numeric expression kept as literal",
			raw:  `{"action":"use_tool","tool_expression":12.5}`,
			want: contractx.Decision{Action: contractx.ActionUseTool, ToolExpression: strPtr("12.5")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Decode(tt.raw)
			assert.Equal(t, WellFormed, res.Status)
			assert.Equal(t, tt.want, res.Decision)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	decisions := []contractx.Decision{
		{Action: contractx.ActionAnswer},
		{Action: contractx.ActionAnswer, AnswerText: strPtr("The answer is \"14\".")},
		{Action: contractx.ActionUseTool, ToolExpression: strPtr("2 + 3 * 4")},
		{Action: contractx.ActionUseTool, ToolExpression: strPtr(""), AnswerText: strPtr("ignored")},
		{Action: "dance"},
	}
	for _, d := range decisions {
		got := Parse(Encode(d))
		assert.Equal(t, d, got, "encoded: %s", Encode(d))
	}
}

func TestDecodeRoute(t *testing.T) {
	t.Parallel()

	d := ParseRoute(`{"route":"tool_route","expression":"10/2"}`)
	assert.Equal(t, contractx.RouteTool, d.Route)
	assert.Equal(t, "10/2", d.Expression())

	d = ParseRoute(`{"route":"math","expression":"1+1"}`)
	assert.Equal(t, contractx.RouteTool, d.Route)

	d = ParseRoute(`{"answer":"hello"}`)
	assert.Equal(t, contractx.RouteChat, d.Route)
	assert.Equal(t, "hello", d.Answer())

	res := DecodeRoute("not json")
	assert.Equal(t, Malformed, res.Status)
	assert.Equal(t, contractx.RouteChat, res.Decision.Route)
	assert.Equal(t, "not json", res.Decision.Answer())

	d = ParseRoute(`{"route":"weather"}`)
	assert.Equal(t, contractx.Route("weather"), d.Route)
}

func TestEncodeRouteRoundTrip(t *testing.T) {
	t.Parallel()

	d := contractx.RouteDecision{Route: contractx.RouteResearch, AnswerText: strPtr("pros and cons")}
	assert.Equal(t, d, ParseRoute(EncodeRoute(d)))
}
