package review_test

import (
	"errors"
	"reflect"
	"testing"

	"imgsauce/internal/review"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		input string
		want  review.Decision
	}{
		{"a", review.Decision{Action: review.ActionAll}},
		{" ALL \n", review.Decision{Action: review.ActionAll}},
		{"n", review.Decision{Action: review.ActionNone}},
		{"q", review.Decision{Action: review.ActionQuit}},
		{"2", review.Decision{Action: review.ActionSubset, Indices: []int{2}}},
		{"2, 0,2,", review.Decision{Action: review.ActionSubset, Indices: []int{2, 0}}},
	}
	for _, tt := range tests {
		got, err := review.ParseDecision(tt.input, 3)
		if err != nil {
			t.Fatalf("ParseDecision(%q): %v", tt.input, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseDecision(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParseDecisionRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "  ", "x", "3", "-1", "1;2", ","} {
		if _, err := review.ParseDecision(input, 3); !errors.Is(err, review.ErrInvalidInput) {
			t.Fatalf("ParseDecision(%q) err = %v, want ErrInvalidInput", input, err)
		}
	}
}
