package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "legacy forms",
			in:   []string{"-headless", "-dirs=a,b", "-exts=png", "-actions='check_power_of_2'", "-logfile=out.xml"},
			want: []string{"--headless", "--dirs=a,b", "--exts=png", "--actions='check_power_of_2'", "--logfile=out.xml"},
		},
		{
			name: "modern forms are untouched",
			in:   []string{"--headless", "--dirs=a", "serve", "--port", "9000"},
			want: []string{"--headless", "--dirs=a", "serve", "--port", "9000"},
		},
		{
			name: "prefix without value separator is untouched",
			in:   []string{"-headlessly", "-dirs", "x"},
			want: []string{"-headlessly", "-dirs", "x"},
		},
		{
			name: "empty actions list",
			in:   []string{"-actions="},
			want: []string{"--actions="},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rewriteLegacyArgs(tt.in))
		})
	}
}
