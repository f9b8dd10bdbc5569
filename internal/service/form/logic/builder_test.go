package logic

import (
	"errors"
	"reflect"
	"testing"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
)

func sampleSurvey() []form.Question {
	return []form.Question{
		{UID: "u1", Type: form.TypeBeginGroup, Name: "identite", Label: form.LocalizedText{"fr": "Identité"}},
		{UID: "u2", Type: form.TypeText, Name: "nom", Label: form.LocalizedText{"fr": "Quel est votre nom ?"}},
		{UID: "u3", Type: form.TypeInteger, Name: "age", Label: form.LocalizedText{"fr": "Quel est votre âge ?"}},
		{UID: "u4", Type: form.TypeNote, Name: "note_intro", Label: form.LocalizedText{"fr": "Section suivante"}},
		{UID: "u5", Type: form.TypeSelectOne, Name: "zone", Label: form.LocalizedText{"fr": "Zone"},
			Choices: []form.Choice{
				{UID: "c1", Name: "urban", Label: form.LocalizedText{"fr": "Urbaine"}},
				{UID: "c2", Name: "rural", Label: form.LocalizedText{"fr": "Rurale"}},
			}},
		{UID: "u6", Type: form.TypeEndGroup, Name: "identite_end"},
	}
}

func TestListReferenceable(t *testing.T) {
	refs := ListReferenceable(sampleSurvey(), "age")

	var names []string
	for _, q := range refs {
		names = append(names, q.Name)
	}
	want := []string{"nom", "zone"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestOperatorsFor(t *testing.T) {
	t.Run("select question gets membership operators", func(t *testing.T) {
		ops := OperatorsFor(form.Question{Type: form.TypeSelectMultiple})
		want := []Operator{OpSelected, OpNotSelected}
		if !reflect.DeepEqual(ops, want) {
			t.Errorf("expected %v, got %v", want, ops)
		}
	})

	t.Run("other questions get comparison operators", func(t *testing.T) {
		ops := OperatorsFor(form.Question{Type: form.TypeInteger})
		want := []Operator{OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte}
		if !reflect.DeepEqual(ops, want) {
			t.Errorf("expected %v, got %v", want, ops)
		}
	})
}

func TestComposeCondition(t *testing.T) {
	zone := sampleSurvey()[4]
	age := sampleSurvey()[2]
	nom := sampleSurvey()[1]

	t.Run("selected", func(t *testing.T) {
		got, err := ComposeCondition(zone, OpSelected, "urban")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "selected(${zone}, 'urban')" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("not-selected", func(t *testing.T) {
		got, err := ComposeCondition(zone, OpNotSelected, "urban")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "not(selected(${zone}, 'urban'))" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("numeric comparison is unquoted", func(t *testing.T) {
		got, err := ComposeCondition(age, OpGte, "18")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "${age} >= 18" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("text comparison is quoted", func(t *testing.T) {
		got, err := ComposeCondition(nom, OpEq, "Amadou")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "${nom} = 'Amadou'" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("value outside the choice set is rejected", func(t *testing.T) {
		_, err := ComposeCondition(zone, OpSelected, "desert")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("operator not applicable to type is rejected", func(t *testing.T) {
		_, err := ComposeCondition(age, OpSelected, "18")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestAppendCondition(t *testing.T) {
	t.Run("empty existing returns the condition verbatim", func(t *testing.T) {
		if got := AppendCondition("", "x=1"); got != "x=1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("conjunction", func(t *testing.T) {
		if got := AppendCondition("x=1", "y=2"); got != "x=1 and y=2" {
			t.Errorf("got %q", got)
		}
	})
}
