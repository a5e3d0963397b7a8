package persona

import "testing"

func TestSeedContainsBuiltinPersonas(t *testing.T) {
	store := NewMemoryStore(Seed())

	for _, id := range []string{"Samantha", "Jarvis", "KITT"} {
		p, ok := store.FindByID(id)
		if !ok {
			t.Fatalf("expected persona %s", id)
		}
		if len(p.AlertPrefixes) != 4 {
			t.Fatalf("persona %s: expected 4 prefixes, got %d", id, len(p.AlertPrefixes))
		}
		if p.Prompt == "" {
			t.Fatalf("persona %s: expected a prompt", id)
		}
	}
}

func TestSamanthaPoolIncludesEmptyPrefix(t *testing.T) {
	p, _ := NewMemoryStore(Seed()).FindByID("Samantha")
	found := false
	for _, prefix := range p.AlertPrefixes {
		if prefix == "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Samantha to allow an empty prefix")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	store := NewMemoryStore(Seed())
	if got := Resolve(store, "HAL"); got.ID != Default {
		t.Fatalf("expected fallback to %s, got %s", Default, got.ID)
	}
	if got := Resolve(store, "KITT"); got.ID != "KITT" {
		t.Fatalf("expected KITT, got %s", got.ID)
	}
	if got := Resolve(NewMemoryStore(nil), "KITT"); got.ID != Default {
		t.Fatalf("expected synthetic default, got %s", got.ID)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte("- id: A\n  alertPrefixes: [\"x\"]\n- id: A\n  alertPrefixes: [\"y\"]\n")
	if _, err := Parse(data); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestParseRejectsEmptyPool(t *testing.T) {
	if _, err := Parse([]byte("- id: A\n")); err == nil {
		t.Fatal("expected missing prefix error")
	}
}
