package main

import (
	"testing"
	"time"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"plain seconds", "10", 10 * time.Second, false},
		{"plain seconds large", "90", 90 * time.Second, false},
		{"duration seconds", "10s", 10 * time.Second, false},
		{"duration minutes", "2m", 2 * time.Minute, false},
		{"duration compound", "1m30s", 90 * time.Second, false},
		{"zero", "0", 0, true},
		{"negative seconds", "-5", 0, true},
		{"negative duration", "-5s", 0, true},
		{"not a number", "soon", 0, true},
		{"unknown unit", "10x", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInterval(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseInterval(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseInterval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
