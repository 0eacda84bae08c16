package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    DetailLevel
		wantErr bool
	}{
		{"", DetailNone, false},
		{"none", DetailNone, false},
		{" None ", DetailNone, false},
		{"0", DetailNone, false},
		{"2", DetailBrief, false},
		{"5", DetailMedium, false},
		{" 7", DetailComprehensive, false},
		{"3", DetailNone, true},
		{"10", DetailNone, true},
		{"-2", DetailNone, true},
		{"two", DetailNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDetailLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDetailLevel) {
					t.Errorf("ParseDetailLevel(%q) error = %v, want ErrInvalidDetailLevel", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseDetailLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestDetailLevel_Valid(t *testing.T) {
	for _, d := range []DetailLevel{DetailNone, DetailBrief, DetailMedium, DetailComprehensive} {
		if !d.Valid() {
			t.Errorf("%d.Valid() = false", d)
		}
	}
	for _, d := range []DetailLevel{1, 3, 4, 6, 8} {
		if d.Valid() {
			t.Errorf("%d.Valid() = true", d)
		}
	}
	if DetailMedium.Marks() != 5 {
		t.Errorf("Marks() = %d", DetailMedium.Marks())
	}
}

func TestDetailLevelFromValue(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    DetailLevel
		wantErr bool
	}{
		{"missing", nil, DetailNone, false},
		{"whole number", float64(5), DetailMedium, false},
		{"zero", float64(0), DetailNone, false},
		{"string", "7", DetailComprehensive, false},
		{"fraction", 2.5, DetailNone, true},
		{"fraction above valid", 7.9, DetailNone, true},
		{"unknown level", float64(4), DetailNone, true},
		{"too large", 1e300, DetailNone, true},
		{"bad string", "banana", DetailNone, true},
		{"bool", true, DetailNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetailLevelFromValue(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDetailLevel) {
					t.Errorf("DetailLevelFromValue(%v) error = %v, want ErrInvalidDetailLevel", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("DetailLevelFromValue(%v) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestAskRequest_MarksAcceptsStringOrNumber(t *testing.T) {
	tests := []struct {
		body    string
		want    Marks
		wantErr bool
	}{
		{`{"question":"Q","marks":"5"}`, "5", false},
		{`{"question":"Q","marks":5}`, "5", false},
		{`{"question":"Q","marks":2.5}`, "2.5", false},
		{`{"question":"Q","marks":null}`, "", false},
		{`{"question":"Q"}`, "", false},
		{`{"question":"Q","marks":true}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req AskRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && req.Marks != tt.want {
				t.Errorf("Marks = %q, want %q", req.Marks, tt.want)
			}
		})
	}
}
