package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("CARTFLOW_TEST_VALUE", "set")
	if got := Get("CARTFLOW_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("Get = %q, want set", got)
	}
	if got := Get("CARTFLOW_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}
}

func TestBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", " yes ", "on"}
	for _, value := range truthy {
		t.Setenv("CARTFLOW_TEST_FLAG", value)
		if !Bool("CARTFLOW_TEST_FLAG") {
			t.Fatalf("Bool(%q) = false, want true", value)
		}
	}

	falsy := []string{"", "0", "false", "off", "nope"}
	for _, value := range falsy {
		t.Setenv("CARTFLOW_TEST_FLAG", value)
		if Bool("CARTFLOW_TEST_FLAG") {
			t.Fatalf("Bool(%q) = true, want false", value)
		}
	}
}
