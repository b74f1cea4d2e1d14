package canonical

import "testing"

func TestHashWithDomain_DomainSeparation(t *testing.T) {
	data := []byte("same payload")
	a := HashWithDomain(DomainPerson, data)
	b := HashWithDomain(DomainPlace, data)
	if a == b {
		t.Error("identical payloads under different domains must not collide")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64", len(a))
	}
}

func TestHashWithDomain_NullSeparator(t *testing.T) {
	// Without the 0x00 separator, ("ab","c") and ("a","bc") would
	// concatenate identically.
	if HashWithDomain("ab", []byte("c")) == HashWithDomain("a", []byte("bc")) {
		t.Error("tag/payload boundary is ambiguous")
	}
}

func TestHashValue_Stable(t *testing.T) {
	v := Map{"surname": Str("Smith"), "given": Str("John")}
	first, err := HashValue(DomainPerson, v)
	if err != nil {
		t.Fatalf("HashValue() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := HashValue(DomainPerson, v)
		if err != nil {
			t.Fatalf("HashValue() failed: %v", err)
		}
		if got != first {
			t.Fatalf("HashValue not stable: %s vs %s", got, first)
		}
	}
}

func TestHashLines_OrderMatters(t *testing.T) {
	a := HashLines(DomainPerson, []string{"john", "smith"})
	b := HashLines(DomainPerson, []string{"smith", "john"})
	if a == b {
		t.Error("field order must be significant")
	}
}

func TestHashLines_EmptyFieldsPreservePosition(t *testing.T) {
	a := HashLines(DomainPerson, []string{"john", "", "smith"})
	b := HashLines(DomainPerson, []string{"john", "smith", ""})
	if a == b {
		t.Error("an empty field must hold its tuple position")
	}
}
