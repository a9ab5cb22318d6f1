package completion

import (
	"reflect"
	"testing"
)

func TestParseCommandOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Candidate
	}{
		{
			name:  "empty",
			input: "\n\t  \n",
			want:  nil,
		},
		{
			name:  "json array of strings",
			input: `["one","two"]`,
			want: []Candidate{
				{Value: "one"},
				{Value: "two"},
			},
		},
		{
			name:  "json array of objects",
			input: `[{"Value":"a","Description":"first"},{"Value":""}]`,
			want: []Candidate{
				{Value: "a", Description: "first"},
			},
		},
		{
			name:  "tab delimited",
			input: "foo\tbar\nbaz\t  qux  \n",
			want: []Candidate{
				{Value: "foo", Description: "bar"},
				{Value: "baz", Description: "qux"},
			},
		},
		{
			name:  "word list",
			input: "alpha beta\ngamma\r\n",
			want: []Candidate{
				{Value: "alpha"},
				{Value: "beta"},
				{Value: "gamma"},
			},
		},
		{
			name:  "broken json falls back to words",
			input: `[not json`,
			want: []Candidate{
				{Value: "[not"},
				{Value: "json"},
			},
		},
		{
			name:  "url value",
			input: "https://example.com",
			want: []Candidate{
				{Value: "https://example.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommandOutput(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCommandOutput(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}
