package strings

import "testing"

func TestBytesToString(t *testing.T) {
	b := []byte("hello world")
	s := BytesToString(b)

	if s != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", s)
	}

	// Test empty slice
	empty := BytesToString([]byte{})
	if empty != "" {
		t.Errorf("expected empty string, got '%s'", empty)
	}
}

func TestStringToBytes(t *testing.T) {
	s := "hello world"
	b := StringToBytes(s)

	if string(b) != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", string(b))
	}

	// Test empty string
	empty := StringToBytes("")
	if empty != nil {
		t.Errorf("expected nil slice, got %v", empty)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{"k8s", "", "a", "kubernetes pod started"}
	for _, in := range inputs {
		if got := BytesToString(StringToBytes(in)); got != in {
			t.Errorf("round trip of %q gave %q", in, got)
		}
	}
}
