package app

import (
	"errors"
	"reflect"
	"testing"

	"coderefine/internal/domain"
)

func TestScoreFlexible(t *testing.T) {
	cases := []struct {
		in      any
		want    int
		wantErr bool
	}{
		{nil, 0, false},
		{float64(72), 72, false},
		{float64(72.9), 72, false},
		{"85", 85, false},
		{" 90.5 ", 90, false},
		{"", 0, false},
		{float64(140), 100, false},
		{float64(-3), 0, false},
		{"eighty", 0, true},
		{true, 0, true},
		{[]any{1.0}, 0, true},
	}
	for _, tc := range cases {
		got, err := scoreFlexible(map[string]any{"s": tc.in}, "s")
		if (err != nil) != tc.wantErr {
			t.Fatalf("%#v: err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidOutput) {
			t.Fatalf("%#v: expected ErrInvalidOutput, got %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%#v: got %d want %d", tc.in, got, tc.want)
		}
	}
	if got, _ := scoreFlexible(map[string]any{}, "absent"); got != 0 {
		t.Fatalf("absent score should default to 0, got %d", got)
	}
}

func TestTextFlexible(t *testing.T) {
	if got := textFlexible([]any{"a", " ", "b"}); got != "a\nb" {
		t.Fatalf("list: %q", got)
	}
	if got := textFlexible(nil); got != "" {
		t.Fatalf("nil: %q", got)
	}
	if got := textFlexible(float64(3)); got != "3" {
		t.Fatalf("number: %q", got)
	}
	if got := textFlexible(map[string]any{"k": "v"}); got != `{"k":"v"}` {
		t.Fatalf("object: %q", got)
	}
}

func TestImprovementsFlexible(t *testing.T) {
	in := []any{"b", map[string]any{"suggestion": "a"}, "b", "", map[string]any{"other": 1.0}}
	got := improvementsFlexible(in)
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("got %+v", got)
	}
	if got := improvementsFlexible("single"); !reflect.DeepEqual(got, []string{"single"}) {
		t.Fatalf("string: %+v", got)
	}
	if got := improvementsFlexible(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil must become an empty, non-nil list: %#v", got)
	}
}

func TestDecodeReview_DefaultsOptionalText(t *testing.T) {
	r, err := decodeReview(`{
		"optimized_code": "x",
		"original_time_complexity": "O(n)", "original_space_complexity": "O(1)",
		"time_complexity": "O(log n)", "space_complexity": "O(1)"
	}`)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.Bugs != "" || r.Performance != "" || r.Explanation != "" || r.OriginalScore != 0 {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if r.Improvements == nil {
		t.Fatalf("improvements must not be nil")
	}
}

func TestDecodeReview_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"empty":            ``,
		"null":             `null`,
		"array":            `[1,2]`,
		"trailing prose":   `{"a":1} thanks!`,
		"markdown fenced":  "```json\n{}\n```",
		"missing all":      `{}`,
		"blank complexity": `{"optimized_code":"x","original_time_complexity":" ","original_space_complexity":"O(1)","time_complexity":"O(1)","space_complexity":"O(1)"}`,
	} {
		if _, err := decodeReview(in); !errors.Is(err, domain.ErrInvalidOutput) {
			t.Fatalf("%s: expected ErrInvalidOutput, got %v", name, err)
		}
	}
}

func TestDecodeTranslation(t *testing.T) {
	r, err := decodeTranslation(`{"translated_code":"print(1)","note":"ignored"}`)
	if err != nil || r.TranslatedCode != "print(1)" {
		t.Fatalf("got %+v, %v", r, err)
	}
	if _, err := decodeTranslation(`{"translated_code":null}`); !errors.Is(err, domain.ErrInvalidOutput) {
		t.Fatalf("null field: %v", err)
	}
}
