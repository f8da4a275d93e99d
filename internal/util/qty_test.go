package util

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain integer", input: "10", want: 10},
		{name: "decimal dot", input: "1.5", want: 1.5},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "thousand with space", input: "1 000", want: 1000},
		{name: "thousand dot groups", input: "1.000", want: 1000},
		{name: "thousand comma groups", input: "12,500", want: 12500},
		{name: "padded", input: "  2.25  ", want: 2.25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseQuantity(tc.input)
			if !ok {
				t.Fatalf("parse failed")
			}
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseQuantityRejectsNonNumeric(t *testing.T) {
	for _, input := range []string{"", "   ", "ten", "1.2.3.4", "10x", "NaN", "Inf"} {
		if _, ok := ParseQuantity(input); ok {
			t.Fatalf("input %q must not parse", input)
		}
	}
}
