package automation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locate.js
var locateSource string

// LocateExpression is a one-argument JavaScript function that finds the best
// element for a LocateArgs value and returns a JSON encoded LocateResult.
// Backends evaluate it in the page so text matching is identical everywhere.
var LocateExpression = "(args) => JSON.stringify((" + strings.TrimSpace(locateSource) + ")(args))"

// LocateArgs is passed to LocateExpression.
type LocateArgs struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Selector string `json:"selector,omitempty"`
}

// LocateResult is what LocateExpression returns.
type LocateResult struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ArgsFor builds the script arguments for a resolved target.
func ArgsFor(t Target) LocateArgs {
	args := LocateArgs{Kind: "text", Value: t.Locator.Value}
	if t.Locator.Kind == KindElement {
		args.Kind = "element"
		args.Selector = t.Selector
	}
	return args
}

// DecodeLocateResult parses the string returned by LocateExpression.
func DecodeLocateResult(raw string) (Point, bool, error) {
	var res LocateResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Point{}, false, fmt.Errorf("decode locate result: %w", err)
	}
	if !res.Found {
		return Point{}, false, nil
	}
	return Point{X: res.X, Y: res.Y}, true, nil
}
