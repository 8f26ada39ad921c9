// Package decision converts raw policy text into typed decisions.
//
// Parsing is total: any input that is not a JSON object becomes an answer
// carrying the raw text unchanged.
package decision

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

// Status tags how a raw output was interpreted.
type Status int

const (
	// WellFormed means the output was a JSON object and fields were extracted.
	WellFormed Status = iota
	// Malformed means the output was not a JSON object and the fallback was used.
	Malformed
)

func (s Status) String() string {
	if s == Malformed {
		return "malformed"
	}
	return "well_formed"
}

// Result is the tagged outcome of Decode.
type Result struct {
	Decision contractx.Decision
	Status   Status
}

// RouteResult is the tagged outcome of DecodeRoute.
type RouteResult struct {
	Decision contractx.RouteDecision
	Status   Status
}

var (
	expressionKeys = []string{"tool_expression", "expression"}
	answerKeys     = []string{"answer_text", "answer"}
)

// Decode parses a loop decision.
func Decode(raw string) Result {
	obj, ok := decodeObject(raw)
	if !ok {
		text := raw
		return Result{
			Decision: contractx.Decision{Action: contractx.ActionAnswer, AnswerText: &text},
			Status:   Malformed,
		}
	}

	action := contractx.ActionAnswer
	if v, ok := scalarField(obj, "action"); ok {
		action, _ = contractx.NormalizeAction(v)
	}

	return Result{
		Decision: contractx.Decision{
			Action:         action,
			ToolExpression: stringField(obj, expressionKeys...),
			AnswerText:     stringField(obj, answerKeys...),
		},
		Status: WellFormed,
	}
}

// Parse is Decode without the status tag.
func Parse(raw string) contractx.Decision {
	return Decode(raw).Decision
}

// DecodeRoute parses a classifier decision. Malformed output becomes a chat
// route answered with the raw text.
func DecodeRoute(raw string) RouteResult {
	obj, ok := decodeObject(raw)
	if !ok {
		text := raw
		return RouteResult{
			Decision: contractx.RouteDecision{Route: contractx.RouteChat, AnswerText: &text},
			Status:   Malformed,
		}
	}

	route := contractx.RouteChat
	if v, ok := scalarField(obj, "route"); ok {
		route, _ = contractx.NormalizeRoute(v)
	}

	return RouteResult{
		Decision: contractx.RouteDecision{
			Route:          route,
			ToolExpression: stringField(obj, expressionKeys...),
			AnswerText:     stringField(obj, answerKeys...),
		},
		Status: WellFormed,
	}
}

func ParseRoute(raw string) contractx.RouteDecision {
	return DecodeRoute(raw).Decision
}

// Encode serializes a decision using the canonical key names.
func Encode(d contractx.Decision) string {
	out, _ := sjson.Set("{}", "action", string(d.Action))
	out = setOptional(out, "tool_expression", d.ToolExpression)
	return setOptional(out, "answer_text", d.AnswerText)
}

func EncodeRoute(d contractx.RouteDecision) string {
	out, _ := sjson.Set("{}", "route", string(d.Route))
	out = setOptional(out, "tool_expression", d.ToolExpression)
	return setOptional(out, "answer_text", d.AnswerText)
}

func setOptional(doc string, key string, v *string) string {
	if v == nil {
		return doc
	}
	out, err := sjson.Set(doc, key, *v)
	if err != nil {
		return doc
	}
	return out
}

func decodeObject(raw string) (gjson.Result, bool) {
	if !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return gjson.Result{}, false
	}
	return res, true
}

// scalarField returns the value of key as text. Strings are unquoted; other
// JSON values keep their literal form. Missing and null keys report false.
func scalarField(obj gjson.Result, key string) (string, bool) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return "", false
	}
	if v.Type == gjson.String {
		return v.Str, true
	}
	return v.Raw, true
}

// stringField returns the first present, non-null key as text.
func stringField(obj gjson.Result, keys ...string) *string {
	for _, key := range keys {
		if v, ok := scalarField(obj, key); ok {
			return &v
		}
	}
	return nil
}
