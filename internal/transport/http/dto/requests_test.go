package dto

import (
	"strings"
	"testing"
)

func TestParseUpdateTaskRequest(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"patchable fields", `{"priority":"urgente","estimatedHours":3}`, ""},
		{"status rejected", `{"status":"completed"}`, "status cannot be updated"},
		{"team rejected", `{"description":"x","assignedTeamId":2}`, "assignedTeamId cannot be updated"},
		{"timestamps rejected", `{"startedAt":"2024-01-01T00:00:00Z"}`, "startedAt cannot be updated"},
		{"not an object", `[1,2]`, "invalid request body"},
		{"wrong type", `{"estimatedHours":"two"}`, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, errs := ParseUpdateTaskRequest([]byte(tc.body))
			if tc.wantErr == "" {
				if len(errs) != 0 || req == nil {
					t.Fatalf("unexpected errors %v", errs)
				}
				return
			}
			if !strings.Contains(strings.Join(errs, ";"), tc.wantErr) {
				t.Fatalf("errors %v, want %q", errs, tc.wantErr)
			}
		})
	}
}

func TestUpdateTaskRequestToInput(t *testing.T) {
	req, errs := ParseUpdateTaskRequest([]byte(`{"activity":"impianto","estimatedHours":4}`))
	if len(errs) != 0 {
		t.Fatalf("errors %v", errs)
	}
	in := req.ToInput()
	if in.Activity == nil || *in.Activity != "impianto" || in.EstimatedHours == nil || *in.EstimatedHours != 4 {
		t.Fatalf("input = %+v", in)
	}
	if in.Priority != nil || in.Description != nil {
		t.Fatalf("unset fields populated: %+v", in)
	}
}

func TestParseUpdateTeamRequestRejectsDerivedFields(t *testing.T) {
	_, errs := ParseUpdateTeamRequest([]byte(`{"currentLocation":"x","nextAvailable":"y"}`))
	if len(errs) != 2 {
		t.Fatalf("errors %v", errs)
	}
}

func TestCreateTaskRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		want  []string
		hours int
	}{
		{
			name:  "valid",
			body:  `{"activity":"monitoraggio","description":"d","location":"l","plant":"p","priority":"alta","estimatedHours":2}`,
			hours: 2,
		},
		{
			name: "every field reported",
			body: `{"activity":"pulizia","description":"","location":"l","plant":"p","priority":"massima","estimatedHours":0}`,
			want: []string{"activity", "description", "priority", "estimatedHours"},
		},
		{
			name: "missing fields",
			body: `{"activity":"monitoraggio","plant":"Impianto Solare Nord"}`,
			want: []string{"description", "location", "priority", "estimatedHours"},
		},
		{
			name: "fractional hours",
			body: `{"activity":"impianto","description":"d","location":"l","plant":"p","priority":"bassa","estimatedHours":1.5}`,
			want: []string{"estimatedHours"},
		},
		{
			name: "hours as string",
			body: `{"activity":"impianto","description":"d","location":"l","plant":"p","priority":"bassa","estimatedHours":"2"}`,
			want: []string{"estimatedHours"},
		},
		{
			name: "wrong type for text field",
			body: `{"activity":"impianto","description":7,"location":"l","plant":"p","priority":"bassa","estimatedHours":1}`,
			want: []string{"description"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseCreateTaskRequest([]byte(tc.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			errs := req.Validate()
			if len(errs) != len(tc.want) {
				t.Fatalf("errors %v, want fields %v", errs, tc.want)
			}
			for i, field := range tc.want {
				if !strings.HasPrefix(errs[i], field+" ") {
					t.Errorf("error %d = %q, want it about %s", i, errs[i], field)
				}
			}
			if len(tc.want) == 0 && req.ToInput().EstimatedHours != tc.hours {
				t.Errorf("hours = %d", req.ToInput().EstimatedHours)
			}
		})
	}
}

func TestParseCreateTaskRequestRejectsNonObject(t *testing.T) {
	for _, body := range []string{``, `null`, `[1]`, `"task"`} {
		if _, err := ParseCreateTaskRequest([]byte(body)); err == nil {
			t.Errorf("%q: expected error", body)
		}
	}
}
