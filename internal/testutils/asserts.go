package testutils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func AssertEqual(t *testing.T, got, want interface{}, userMessage ...interface{}) {
	t.Helper()

	// reflect.DeepEqual instead of cmp.Diff, as cmp refuses structs with
	// unexported fields unless told about every one of them.
	if !reflect.DeepEqual(got, want) {
		logFailedAssertion(t, formatUnequalValues(got, want), userMessage...)
	}
}

func AssertTrue(t *testing.T, condition bool, userMessage ...interface{}) {
	t.Helper()

	if !condition {
		logFailedAssertion(t, "\nExpected: true", userMessage...)
	}
}

func AssertFalse(t *testing.T, condition bool, userMessage ...interface{}) {
	t.Helper()

	if condition {
		logFailedAssertion(t, "\nExpected: false", userMessage...)
	}
}

// AssertJSONEqual compares two JSON documents by value, ignoring key order
// and whitespace, and prints a cmp diff of the decoded documents.
func AssertJSONEqual(t *testing.T, got, want []byte, userMessage ...interface{}) {
	t.Helper()

	var gotValue, wantValue interface{}
	if err := json.Unmarshal(got, &gotValue); err != nil {
		logFailedAssertion(t, fmt.Sprintf("\ngot is not JSON: %v\n%s", err, got), userMessage...)
		return
	}
	if err := json.Unmarshal(want, &wantValue); err != nil {
		logFailedAssertion(t, fmt.Sprintf("\nwant is not JSON: %v\n%s", err, want), userMessage...)
		return
	}

	if diff := cmp.Diff(wantValue, gotValue); diff != "" {
		logFailedAssertion(t, "\n(-want +got):\n"+diff, userMessage...)
	}
}

func logFailedAssertion(t *testing.T, summary string, userMessage ...interface{}) {
	t.Helper()
	text := summary

	if len(userMessage) > 0 {
		if message, ok := userMessage[0].(string); ok {
			if message != "" && len(userMessage) > 1 {
				text = fmt.Sprintf(message, userMessage[1:]...) + text
			} else if message != "" {
				text = fmt.Sprint(message) + text
			}
		}
	}

	t.Error(text)
}

func formatUnequalValues(got, want interface{}) string {
	var a, b string

	if reflect.TypeOf(got) != reflect.TypeOf(want) {
		a, b = fmt.Sprintf("%T(%#v)", got, got), fmt.Sprintf("%T(%#v)", want, want)
	} else {
		a, b = fmt.Sprintf("%#v", got), fmt.Sprintf("%#v", want)
	}

	return fmt.Sprintf("\ngot: %s\nwant: %s", a, b)
}
