package env

import "testing"

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("CLINICA_TEST_VALUE", "  ")
	if got := Get("CLINICA_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("CLINICA_TEST_VALUE", "console")
	if got := Get("CLINICA_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("CLINICA_TEST_FLAG", "true")
	if !Bool("CLINICA_TEST_FLAG", false) {
		t.Fatal("expected true")
	}
	t.Setenv("CLINICA_TEST_FLAG", "nope")
	if !Bool("CLINICA_TEST_FLAG", true) {
		t.Fatal("malformed value should return fallback")
	}
}
