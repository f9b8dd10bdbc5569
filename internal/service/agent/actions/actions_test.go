package actions

import (
	"errors"
	"strings"
	"testing"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/service/survey"
)

func testProject() *form.Project {
	return &form.Project{
		ID:   "p1",
		Name: "Mon Formulaire de Test",
		FormData: form.FormData{
			Settings: form.Settings{
				FormTitle:       "Mon Formulaire de Test",
				FormID:          "mon_formulaire",
				DefaultLanguage: "fr",
			},
			Survey: []form.Question{
				{
					UID:   "u-nom",
					Type:  form.TypeText,
					Name:  "nom",
					Label: form.LocalizedText{"fr": "Quel est votre nom ?"},
				},
				{
					UID:   "u-zone",
					Type:  form.TypeSelectOne,
					Name:  "zone",
					Label: form.LocalizedText{"fr": "Zone d'habitation"},
					Choices: []form.Choice{
						{UID: "c-urban", Name: "urban", Label: form.LocalizedText{"fr": "Urbain"}},
						{UID: "c-rural", Name: "rural", Label: form.LocalizedText{"fr": "Rural"}},
					},
				},
				{
					UID:   "u-age",
					Type:  form.TypeInteger,
					Name:  "age",
					Label: form.LocalizedText{"fr": "Quel est votre âge ?"},
				},
			},
		},
	}
}

func TestAddQuestionHandler(t *testing.T) {
	reg := NewRegistry()

	t.Run("appends a valid question", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("addQuestion").Apply(p, map[string]interface{}{
			"type": "text", "name": "village", "label": "Nom du village",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if res.Confirmation != `Question "Nom du village" ajoutée.` {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		if p.FormData.FindQuestion("village") != 3 {
			t.Errorf("question not appended at end")
		}
	})

	t.Run("rejects duplicate name without mutating", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addQuestion").Apply(p, map[string]interface{}{
			"type": "text", "name": "nom", "label": "Doublon",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		if len(p.FormData.Survey) != 3 {
			t.Errorf("survey mutated on rejected add")
		}
	})

	t.Run("rejects select without choices", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addQuestion").Apply(p, map[string]interface{}{
			"type": "select_one", "name": "sexe", "label": "Sexe",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})

	t.Run("rejects a lone group marker", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addQuestion").Apply(p, map[string]interface{}{
			"type": "begin_group", "name": "section", "label": "Section",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		if len(p.FormData.Survey) != 3 {
			t.Errorf("survey mutated on rejected marker")
		}
		if err := survey.CheckBalanced(p.FormData.Survey); err != nil {
			t.Errorf("survey unbalanced: %v", err)
		}
	})
}

func TestAddQuestionsBatchHandler(t *testing.T) {
	reg := NewRegistry()

	t.Run("adds all or nothing", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("addQuestionsBatch").Apply(p, map[string]interface{}{
			"questions": []interface{}{
				map[string]interface{}{"type": "text", "name": "q1", "label": "Question un"},
				map[string]interface{}{"type": "integer", "name": "q2", "label": "Question deux"},
			},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if res.Confirmation != "2 questions ajoutées en une seule fois." {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		if len(p.FormData.Survey) != 5 {
			t.Errorf("survey length = %d, want 5", len(p.FormData.Survey))
		}
	})

	t.Run("one bad entry rejects the whole batch", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addQuestionsBatch").Apply(p, map[string]interface{}{
			"questions": []interface{}{
				map[string]interface{}{"type": "text", "name": "q1", "label": "Question un"},
				map[string]interface{}{"type": "text", "name": "nom", "label": "Collision"},
			},
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		if len(p.FormData.Survey) != 3 {
			t.Errorf("partial batch applied")
		}
	})

	t.Run("group markers cannot arrive through a batch", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addQuestionsBatch").Apply(p, map[string]interface{}{
			"questions": []interface{}{
				map[string]interface{}{"type": "begin_group", "name": "section", "label": "Section"},
				map[string]interface{}{"type": "text", "name": "q1", "label": "Question un"},
			},
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		if len(p.FormData.Survey) != 3 {
			t.Errorf("partial batch applied")
		}
	})
}

func TestUpdateQuestionHandler(t *testing.T) {
	reg := NewRegistry()

	t.Run("confirmation reflects what changed", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("updateQuestion").Apply(p, map[string]interface{}{
			"questionName": "age",
			"relevant":     "${zone} = 'urban'",
			"constraint":   ". >= 0",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		want := `Question "age" modifiée. (Logique ajoutée) (Validation ajoutée)`
		if res.Confirmation != want {
			t.Errorf("confirmation = %q, want %q", res.Confirmation, want)
		}
		q := p.FormData.Survey[p.FormData.FindQuestion("age")]
		if q.Relevant != "${zone} = 'urban'" || q.Constraint != ". >= 0" {
			t.Errorf("fields not applied: %+v", q)
		}
	})

	t.Run("rename collision leaves question intact", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("updateQuestion").Apply(p, map[string]interface{}{
			"questionName": "age", "name": "nom",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		if p.FormData.FindQuestion("age") != 2 {
			t.Errorf("question renamed despite rejection")
		}
	})

	t.Run("type cannot become a group marker", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("updateQuestion").Apply(p, map[string]interface{}{
			"questionName": "age", "type": "end_group",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
		q := p.FormData.Survey[p.FormData.FindQuestion("age")]
		if q.Type != form.TypeInteger {
			t.Errorf("type changed to %s", q.Type)
		}
		if err := survey.CheckBalanced(p.FormData.Survey); err != nil {
			t.Errorf("survey unbalanced: %v", err)
		}
	})

	t.Run("replacing choices mints fresh uids", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("updateQuestion").Apply(p, map[string]interface{}{
			"questionName": "zone",
			"choices": []interface{}{
				map[string]interface{}{"name": "urban", "label": "Ville"},
				map[string]interface{}{"name": "periurban", "label": "Périurbain"},
			},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !strings.Contains(res.Confirmation, "(Choix mis à jour)") {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		q := p.FormData.Survey[p.FormData.FindQuestion("zone")]
		if len(q.Choices) != 2 {
			t.Fatalf("choices = %d", len(q.Choices))
		}
		if q.Choices[0].UID == "c-urban" {
			t.Errorf("choice uid reused across replacement")
		}
	})
}

func TestChoiceHandlers(t *testing.T) {
	reg := NewRegistry()

	t.Run("addChoice appends to a select", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("addChoice").Apply(p, map[string]interface{}{
			"questionName": "zone", "name": "nomad", "label": "Nomade",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if res.Confirmation != `Choix "Nomade" ajouté à la question "zone".` {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		q := p.FormData.Survey[p.FormData.FindQuestion("zone")]
		if len(q.Choices) != 3 {
			t.Errorf("choices = %d, want 3", len(q.Choices))
		}
	})

	t.Run("addChoice rejects non-select questions", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("addChoice").Apply(p, map[string]interface{}{
			"questionName": "nom", "name": "x", "label": "X",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})

	t.Run("updateChoice rewrites name and label", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("updateChoice").Apply(p, map[string]interface{}{
			"questionName": "zone", "name": "rural", "newName": "village", "newLabel": "Village",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		q := p.FormData.Survey[p.FormData.FindQuestion("zone")]
		if q.Choices[1].Name != "village" || q.Choices[1].Label.Resolve("fr") != "Village" {
			t.Errorf("choice not updated: %+v", q.Choices[1])
		}
	})

	t.Run("removeChoice keeps at least one choice", func(t *testing.T) {
		p := testProject()
		if _, err := reg.Get("removeChoice").Apply(p, map[string]interface{}{
			"questionName": "zone", "name": "rural",
		}); err != nil {
			t.Fatalf("first removal: %v", err)
		}
		_, err := reg.Get("removeChoice").Apply(p, map[string]interface{}{
			"questionName": "zone", "name": "urban",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want validation error on last choice, got %v", err)
		}
	})
}

func TestSettingsHandlers(t *testing.T) {
	reg := NewRegistry()

	t.Run("updateProjectSettings applies only provided fields", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("updateProjectSettings").Apply(p, map[string]interface{}{
			"formTitle": "Enquête Ménages 2026",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if res.Confirmation != "Paramètres du projet mis à jour." {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		if p.FormData.Settings.FormTitle != "Enquête Ménages 2026" {
			t.Errorf("title not applied")
		}
		if p.FormData.Settings.FormID != "mon_formulaire" {
			t.Errorf("untouched field overwritten")
		}
	})

	t.Run("setRegionalSettings replaces the whole block", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("setRegionalSettings").Apply(p, map[string]interface{}{
			"culturalContext": "Zone rurale de Ségou",
			"localTerms":      []interface{}{"dugutigi", "foroba"},
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if p.RegionalSettings == nil || p.RegionalSettings.CulturalContext != "Zone rurale de Ségou" {
			t.Fatalf("regional settings = %+v", p.RegionalSettings)
		}
		if len(p.RegionalSettings.LocalTerms) != 2 {
			t.Errorf("local terms = %v", p.RegionalSettings.LocalTerms)
		}
	})

	t.Run("setBranding merges into existing branding", func(t *testing.T) {
		p := testProject()
		p.Branding = &form.Branding{OrgName: "ONG Sahel"}
		_, err := reg.Get("setBranding").Apply(p, map[string]interface{}{
			"primaryColor": "#1a73e8",
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if p.Branding.OrgName != "ONG Sahel" || p.Branding.PrimaryColor != "#1a73e8" {
			t.Errorf("branding = %+v", p.Branding)
		}
	})
}

func TestBatchUpdateQuestionsHandler(t *testing.T) {
	reg := NewRegistry()

	t.Run("applies every entry", func(t *testing.T) {
		p := testProject()
		res, err := reg.Get("batchUpdateQuestions").Apply(p, map[string]interface{}{
			"updatesJson": `[{"questionName":"nom","updates":{"required":true}},{"questionName":"age","updates":{"constraint":". >= 0"}}]`,
		})
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if res.Confirmation != "2 questions mises à jour en bloc." {
			t.Errorf("confirmation = %q", res.Confirmation)
		}
		if !p.FormData.Survey[0].Required || p.FormData.Survey[2].Constraint != ". >= 0" {
			t.Errorf("updates not applied")
		}
	})

	t.Run("one bad entry rejects the whole batch", func(t *testing.T) {
		p := testProject()
		_, err := reg.Get("batchUpdateQuestions").Apply(p, map[string]interface{}{
			"updatesJson": `[{"questionName":"nom","updates":{"required":true}},{"questionName":"absente","updates":{"label":"X"}}]`,
		})
		if err == nil {
			t.Fatal("want error")
		}
		if p.FormData.Survey[0].Required {
			t.Errorf("partial batch applied")
		}
	})
}

func TestAuditFormHandler(t *testing.T) {
	reg := NewRegistry()
	p := testProject()
	res, err := reg.Get("auditForm").Apply(p, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.FollowUp == "" {
		t.Error("auditForm must request a follow-up")
	}
	if len(p.FormData.Survey) != 3 {
		t.Errorf("auditForm mutated the survey")
	}
}

func TestRegistryTools(t *testing.T) {
	reg := NewRegistry()
	tools := reg.Tools()
	if len(tools) != 17 {
		t.Fatalf("tools = %d, want 17", len(tools))
	}
	if tools[0].Name != "addQuestion" {
		t.Errorf("first tool = %q", tools[0].Name)
	}
	seen := map[string]bool{}
	for _, tool := range tools {
		if seen[tool.Name] {
			t.Errorf("duplicate tool %q", tool.Name)
		}
		seen[tool.Name] = true
	}
	if reg.Get("inventAction") != nil {
		t.Error("unknown name must resolve to nil")
	}
}
