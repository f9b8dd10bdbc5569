package personas

import "testing"

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	personas := registry.List()
	if len(personas) != 12 {
		t.Fatalf("expected 12 personas, got %d", len(personas))
	}

	// Catalog order must be stable: the technical agent leads.
	if personas[0].ID != "agent_technique" {
		t.Errorf("expected first persona 'agent_technique', got %s", personas[0].ID)
	}

	for _, p := range personas {
		if p.Name == "" || p.Description == "" || p.Emoji == "" {
			t.Errorf("persona %s has empty fields: %+v", p.ID, p)
		}
	}
}

func TestRegistry_Get(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	t.Run("known id", func(t *testing.T) {
		p, ok := registry.Get("mediateur_culturel")
		if !ok {
			t.Fatal("expected to find mediateur_culturel")
		}
		if p.Name != "Médiateur Culturel" {
			t.Errorf("unexpected name: %s", p.Name)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, ok := registry.Get("chef_cuisinier"); ok {
			t.Error("expected unknown id to be absent")
		}
	})
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	t.Run("unknown ids are dropped silently", func(t *testing.T) {
		resolved := registry.Resolve([]string{"agent_technique", "does_not_exist"})
		if len(resolved) != 1 {
			t.Fatalf("expected 1 persona, got %d", len(resolved))
		}
		if resolved[0].ID != "agent_technique" {
			t.Errorf("unexpected persona: %s", resolved[0].ID)
		}
	})

	t.Run("catalog order is preserved regardless of request order", func(t *testing.T) {
		resolved := registry.Resolve([]string{"traduc_local", "agent_technique"})
		if len(resolved) != 2 {
			t.Fatalf("expected 2 personas, got %d", len(resolved))
		}
		if resolved[0].ID != "agent_technique" || resolved[1].ID != "traduc_local" {
			t.Errorf("catalog order not preserved: %s, %s", resolved[0].ID, resolved[1].ID)
		}
	})

	t.Run("empty request", func(t *testing.T) {
		if resolved := registry.Resolve(nil); len(resolved) != 0 {
			t.Errorf("expected no personas, got %d", len(resolved))
		}
	})
}
