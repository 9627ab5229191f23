package cli

import (
	"os"
	"testing"
)

func TestPromptPasswordPipedInput(t *testing.T) {
	// Stdin is a pipe here, not a terminal, so the prompt falls back to
	// a line read instead of the no-echo path.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = orig
		r.Close()
	})

	if _, err := w.WriteString("hunter2-longer\n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	got, err := promptPassword("Password: ")
	if err != nil {
		t.Fatalf("promptPassword() error = %v", err)
	}
	if got != "hunter2-longer" {
		t.Errorf("promptPassword() = %q, want %q", got, "hunter2-longer")
	}
}
