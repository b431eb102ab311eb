package observability

import "testing"

func TestOtelEnabledGate(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"maybe", false},
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
	}
	for _, tc := range cases {
		t.Setenv("OTEL_ENABLED", tc.value)
		if got := otelEnabled(); got != tc.want {
			t.Errorf("OTEL_ENABLED=%q: enabled = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestSampleRatioClamped(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"", 0.1},
		{"not a number", 0.1},
		{"0.5", 0.5},
		{"-2", 0},
		{"7", 1},
	}
	for _, tc := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", tc.value)
		if got := sampleRatio(); got != tc.want {
			t.Errorf("OTEL_SAMPLER_RATIO=%q: ratio = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestOtlpHeadersParsing(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer abc, x-tenant=studyloop, malformed")
	headers := otlpHeaders()
	if len(headers) != 2 {
		t.Fatalf("parsed %d headers, want 2: %v", len(headers), headers)
	}
	if headers["authorization"] != "Bearer abc" {
		t.Errorf("authorization = %q", headers["authorization"])
	}
	if headers["x-tenant"] != "studyloop" {
		t.Errorf("x-tenant = %q", headers["x-tenant"])
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if got := otlpHeaders(); got != nil {
		t.Errorf("empty env parsed to %v, want nil", got)
	}
}
