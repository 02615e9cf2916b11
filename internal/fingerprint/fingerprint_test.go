package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestDeterministic(t *testing.T) {
	inputs := map[string]string{
		"kind":       "title",
		"text":       "Hello",
		"resolution": "1920x1080",
	}
	first := Digest(inputs)
	second := Digest(map[string]string{
		"resolution": "1920x1080",
		"kind":       "title",
		"text":       "Hello",
	})
	if first != second {
		t.Fatalf("digest not deterministic: %s vs %s", first, second)
	}
	if len(first) != KeyLen {
		t.Fatalf("digest length = %d, want %d", len(first), KeyLen)
	}
}

func TestDigestSensitivity(t *testing.T) {
	base := Digest(map[string]string{"text": "Hello", "voice": "alba"})
	changedValue := Digest(map[string]string{"text": "Hello!", "voice": "alba"})
	if base == changedValue {
		t.Fatal("digest unchanged after value edit")
	}
	changedKey := Digest(map[string]string{"text": "Hello", "engine": "alba"})
	if base == changedKey {
		t.Fatal("digest unchanged after key rename")
	}
}

func TestDigestNoFieldBleed(t *testing.T) {
	// Name/value boundaries must not shift content between fields.
	a := Digest(map[string]string{"ab": "c"})
	b := Digest(map[string]string{"a": "bc"})
	if a == b {
		t.Fatal("field boundary collision")
	}
}

func TestTextCanonicalization(t *testing.T) {
	if got := Text("  hello   world \n"); got != "hello world" {
		t.Fatalf("Text = %q", got)
	}
	// Composed and decomposed forms of é must canonicalize identically.
	composed := Text("café")
	decomposed := Text("café")
	if composed != decomposed {
		t.Fatalf("NFC mismatch: %q vs %q", composed, decomposed)
	}
}

func TestListOrderSensitive(t *testing.T) {
	a := List([]string{"one", "two"})
	b := List([]string{"two", "one"})
	if a == b {
		t.Fatal("list ordering not significant")
	}
}

func TestFileChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.png")
	if err := os.WriteFile(path, []byte("original bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	again, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if first != again {
		t.Fatalf("file fingerprint unstable: %s vs %s", first, again)
	}
	if !strings.HasPrefix(first, "xxh64:") {
		t.Fatalf("unexpected fingerprint form %q", first)
	}

	if err := os.WriteFile(path, []byte("replaced bytes!"), 0o644); err != nil {
		t.Fatal(err)
	}
	replaced, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if replaced == first {
		t.Fatal("fingerprint unchanged after content replacement")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
