package survey

import (
	"errors"
	"strings"
	"testing"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
)

func testForm() *form.FormData {
	return &form.FormData{
		Settings: form.Settings{FormTitle: "Enquête ménage", DefaultLanguage: "fr"},
		Survey: []form.Question{
			{UID: "u1", Type: form.TypeText, Name: "nom", Label: form.LocalizedText{"fr": "Quel est votre nom ?"}},
			{UID: "u2", Type: form.TypeInteger, Name: "age", Label: form.LocalizedText{"fr": "Quel est votre âge ?"}},
			{UID: "u3", Type: form.TypeSelectOne, Name: "zone", Label: form.LocalizedText{"fr": "Zone"},
				Choices: []form.Choice{{UID: "c1", Name: "urban", Label: form.LocalizedText{"fr": "Urbaine"}}}},
		},
	}
}

func names(f *form.FormData) []string {
	var out []string
	for _, q := range f.Survey {
		out = append(out, q.Name)
	}
	return out
}

func assertNames(t *testing.T, f *form.FormData, want ...string) {
	t.Helper()
	got := names(f)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestInsertQuestion(t *testing.T) {
	t.Run("append", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeDate, Name: "naissance"}, "", After)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "nom", "age", "zone", "naissance")
	})

	t.Run("before anchor", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeText, Name: "prenom"}, "age", Before)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "nom", "prenom", "age", "zone")
	})

	t.Run("after anchor", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeText, Name: "prenom"}, "nom", After)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "nom", "prenom", "age", "zone")
	})

	t.Run("duplicate name is rejected without mutation", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeText, Name: "nom"}, "", After)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		assertNames(t, f, "nom", "age", "zone")
	})

	t.Run("invalid identifier is rejected", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeText, Name: "mon nom"}, "", After)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("select without choices is rejected", func(t *testing.T) {
		f := testForm()
		err := InsertQuestion(f, form.Question{UID: "u4", Type: form.TypeSelectOne, Name: "region"}, "", After)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("lone group markers are rejected", func(t *testing.T) {
		for _, typ := range []form.QuestionType{form.TypeBeginGroup, form.TypeEndGroup, form.TypeBeginRepeat, form.TypeEndRepeat} {
			f := testForm()
			err := InsertQuestion(f, form.Question{UID: "u4", Type: typ, Name: "section"}, "", After)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("%s: expected validation error, got %v", typ, err)
			}
			assertNames(t, f, "nom", "age", "zone")
			if err := CheckBalanced(f.Survey); err != nil {
				t.Fatalf("%s: survey unbalanced: %v", typ, err)
			}
		}
	})
}

func TestInsertQuestions(t *testing.T) {
	t.Run("batch-internal collision leaves the survey untouched", func(t *testing.T) {
		f := testForm()
		err := InsertQuestions(f, []form.Question{
			{UID: "u4", Type: form.TypeText, Name: "village"},
			{UID: "u5", Type: form.TypeText, Name: "village"},
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		assertNames(t, f, "nom", "age", "zone")
	})

	t.Run("batch containing a group marker leaves the survey untouched", func(t *testing.T) {
		f := testForm()
		err := InsertQuestions(f, []form.Question{
			{UID: "u4", Type: form.TypeText, Name: "village"},
			{UID: "u5", Type: form.TypeBeginGroup, Name: "section"},
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		assertNames(t, f, "nom", "age", "zone")
	})

	t.Run("valid batch appends in order", func(t *testing.T) {
		f := testForm()
		err := InsertQuestions(f, []form.Question{
			{UID: "u4", Type: form.TypeText, Name: "village"},
			{UID: "u5", Type: form.TypeInteger, Name: "menage_taille"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "nom", "age", "zone", "village", "menage_taille")
	})
}

func TestDeleteQuestion(t *testing.T) {
	t.Run("plain question", func(t *testing.T) {
		f := testForm()
		if err := DeleteQuestion(f, "age"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "nom", "zone")
	})

	t.Run("unknown question", func(t *testing.T) {
		f := testForm()
		if err := DeleteQuestion(f, "fantome"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("non-empty group is rejected", func(t *testing.T) {
		f := testForm()
		if err := WrapInGroup(f, "nom", "age", "identite", "Identité", "fr"); err != nil {
			t.Fatalf("wrap failed: %v", err)
		}
		err := DeleteQuestion(f, "identite")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		assertNames(t, f, "identite", "nom", "age", "identite_end", "zone")
	})

	t.Run("empty group removes both markers", func(t *testing.T) {
		f := testForm()
		if err := WrapInGroup(f, "nom", "age", "identite", "Identité", "fr"); err != nil {
			t.Fatalf("wrap failed: %v", err)
		}
		if err := DeleteQuestion(f, "nom"); err != nil {
			t.Fatalf("delete nom: %v", err)
		}
		if err := DeleteQuestion(f, "age"); err != nil {
			t.Fatalf("delete age: %v", err)
		}
		if err := DeleteQuestion(f, "identite"); err != nil {
			t.Fatalf("delete empty group: %v", err)
		}
		assertNames(t, f, "zone")
	})

	t.Run("end marker cannot be deleted directly", func(t *testing.T) {
		f := testForm()
		if err := WrapInGroup(f, "nom", "", "identite", "Identité", "fr"); err != nil {
			t.Fatalf("wrap failed: %v", err)
		}
		if err := DeleteQuestion(f, "identite_end"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMoveQuestion(t *testing.T) {
	t.Run("after target", func(t *testing.T) {
		f := testForm()
		if err := MoveQuestion(f, "nom", "zone", After); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "age", "zone", "nom")
	})

	t.Run("before target", func(t *testing.T) {
		f := testForm()
		if err := MoveQuestion(f, "zone", "nom", Before); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertNames(t, f, "zone", "nom", "age")
	})

	t.Run("unknown target", func(t *testing.T) {
		f := testForm()
		if err := MoveQuestion(f, "nom", "fantome", After); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("group marker names its marker in the error", func(t *testing.T) {
		f := testForm()
		if err := WrapInGroup(f, "nom", "age", "identite", "Identité", "fr"); err != nil {
			t.Fatalf("wrap failed: %v", err)
		}
		err := MoveQuestion(f, "identite", "zone", After)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), `"identite"`) {
			t.Errorf("error should quote the marker name, got %q", err)
		}
		if strings.Contains(err.Error(), "%!") {
			t.Errorf("malformed error message: %q", err)
		}
	})
}

func TestCloneQuestion(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := testForm()
		clone, err := CloneQuestion(f, "zone", "", "", "fr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clone.Name != "zone_copy" {
			t.Errorf("expected name zone_copy, got %s", clone.Name)
		}
		if clone.Label.Get("fr") != "Zone (Copie)" {
			t.Errorf("unexpected label: %q", clone.Label.Get("fr"))
		}
		assertNames(t, f, "nom", "age", "zone", "zone_copy")

		original := f.Survey[2]
		if clone.UID == original.UID {
			t.Error("clone shares uid with original")
		}
		if clone.Choices[0].UID == original.Choices[0].UID {
			t.Error("clone shares choice uid with original")
		}
	})

	t.Run("explicit name collision", func(t *testing.T) {
		f := testForm()
		if _, err := CloneQuestion(f, "zone", "age", "", "fr"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestWrapInGroup(t *testing.T) {
	f := testForm()
	if err := WrapInGroup(f, "nom", "age", "identite", "Identité", "fr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNames(t, f, "identite", "nom", "age", "identite_end", "zone")

	if err := CheckBalanced(f.Survey); err != nil {
		t.Errorf("survey unbalanced after wrap: %v", err)
	}

	t.Run("overlapping group is rejected", func(t *testing.T) {
		if err := WrapInGroup(f, "age", "zone", "mixte", "Mixte", "fr"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestCheckBalanced(t *testing.T) {
	t.Run("unclosed group", func(t *testing.T) {
		qs := []form.Question{{Type: form.TypeBeginGroup, Name: "g"}}
		if err := CheckBalanced(qs); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("mismatched close", func(t *testing.T) {
		qs := []form.Question{
			{Type: form.TypeBeginRepeat, Name: "r"},
			{Type: form.TypeEndGroup, Name: "g_end"},
		}
		if err := CheckBalanced(qs); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("nested scopes", func(t *testing.T) {
		qs := []form.Question{
			{Type: form.TypeBeginGroup, Name: "a"},
			{Type: form.TypeBeginRepeat, Name: "b"},
			{Type: form.TypeEndRepeat, Name: "b_end"},
			{Type: form.TypeEndGroup, Name: "a_end"},
		}
		if err := CheckBalanced(qs); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
