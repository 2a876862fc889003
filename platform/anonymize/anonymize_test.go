package anonymize

import "testing"

func TestContactDigestIsDeterministic(t *testing.T) {
	a := New("pepper")

	first := a.ContactDigest("jan@example.com")
	second := a.ContactDigest("  JAN@example.com ")

	if first == "" {
		t.Fatal("expected a digest for non-empty contact")
	}
	if first != second {
		t.Fatalf("digest should ignore case and surrounding whitespace:\n%s\n%s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestContactDigestDependsOnSalt(t *testing.T) {
	contact := "jan@example.com"

	if New("a").ContactDigest(contact) == New("b").ContactDigest(contact) {
		t.Fatal("different salts must produce different digests")
	}
}

func TestContactDigestEmptyInput(t *testing.T) {
	if got := New("pepper").ContactDigest("   "); got != "" {
		t.Fatalf("expected empty digest for blank contact, got %q", got)
	}
}
