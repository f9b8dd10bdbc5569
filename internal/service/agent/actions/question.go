package actions

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"isma/internal/domain"
	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
	"isma/internal/service/survey"
)

// choiceArgs is the {name, label} pair the model sends for a choice.
type choiceArgs struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// questionArgs is the question payload shared by addQuestion and
// addQuestionsBatch.
type questionArgs struct {
	Type              string       `json:"type"`
	Name              string       `json:"name"`
	Label             string       `json:"label"`
	Required          bool         `json:"required"`
	Hint              string       `json:"hint"`
	Relevant          string       `json:"relevant"`
	Constraint        string       `json:"constraint"`
	ConstraintMessage string       `json:"constraint_message"`
	Calculation       string       `json:"calculation"`
	Appearance        string       `json:"appearance"`
	ChoiceFilter      string       `json:"choice_filter"`
	Choices           []choiceArgs `json:"choices"`
}

func (a questionArgs) validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Type, validation.Required),
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Label, validation.Required),
	)
}

func (a questionArgs) toQuestion(lang string) form.Question {
	q := form.Question{
		UID:          uuid.NewString(),
		Type:         form.QuestionType(a.Type),
		Name:         a.Name,
		Label:        form.LocalizedText{}.Set(lang, a.Label),
		Required:     a.Required,
		Relevant:     a.Relevant,
		Constraint:   a.Constraint,
		Calculation:  a.Calculation,
		Appearance:   a.Appearance,
		ChoiceFilter: a.ChoiceFilter,
	}
	if a.Hint != "" {
		q.Hint = form.LocalizedText{}.Set(lang, a.Hint)
	}
	if a.ConstraintMessage != "" {
		q.ConstraintMessage = form.LocalizedText{}.Set(lang, a.ConstraintMessage)
	}
	for _, c := range a.Choices {
		q.Choices = append(q.Choices, form.Choice{
			UID:   uuid.NewString(),
			Name:  c.Name,
			Label: form.LocalizedText{}.Set(lang, c.Label),
		})
	}
	return q
}

// addQuestion

type addQuestionHandler struct{}

func (h *addQuestionHandler) Name() string { return "addQuestion" }

func (h *addQuestionHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Ajoute une nouvelle question au formulaire. Doit avoir un nom unique.",
		Parameters:  questionItemSchema(),
	}
}

func (h *addQuestionHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a questionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	q := a.toQuestion(project.DefaultLanguage())
	if err := survey.InsertQuestion(&project.FormData, q, "", survey.After); err != nil {
		return nil, err
	}

	return &Result{
		Confirmation: fmt.Sprintf("Question %q ajoutée.", a.Label),
		Details:      map[string]interface{}{"name": a.Name, "type": a.Type, "label": a.Label},
	}, nil
}

// addQuestionsBatch

type addQuestionsBatchHandler struct{}

func (h *addQuestionsBatchHandler) Name() string { return "addQuestionsBatch" }

func (h *addQuestionsBatchHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Ajoute plusieurs questions en une seule fois. À utiliser dès que plus d'une question est à créer.",
		Parameters: objectSchema([]string{"questions"}, map[string]interface{}{
			"questions": arrayProp("Les questions à ajouter, dans l'ordre.", questionItemSchema()),
		}),
	}
}

func (h *addQuestionsBatchHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		Questions []questionArgs `json:"questions"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if len(a.Questions) == 0 {
		return nil, fmt.Errorf("%w: aucune question fournie", domain.ErrValidation)
	}

	lang := project.DefaultLanguage()
	questions := make([]form.Question, len(a.Questions))
	for i, qa := range a.Questions {
		if err := qa.validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", domain.ErrValidation, i+1, err)
		}
		questions[i] = qa.toQuestion(lang)
	}

	if err := survey.InsertQuestions(&project.FormData, questions); err != nil {
		return nil, err
	}

	return &Result{
		Confirmation: fmt.Sprintf("%d questions ajoutées en une seule fois.", len(questions)),
		Details:      map[string]interface{}{"count": len(questions)},
	}, nil
}

// updateQuestion

type updateQuestionArgs struct {
	QuestionName      string       `json:"questionName"`
	Type              string       `json:"type"`
	Name              string       `json:"name"`
	Label             string       `json:"label"`
	Hint              string       `json:"hint"`
	Required          *bool        `json:"required"`
	Relevant          string       `json:"relevant"`
	Constraint        string       `json:"constraint"`
	ConstraintMessage string       `json:"constraint_message"`
	Calculation       string       `json:"calculation"`
	Appearance        string       `json:"appearance"`
	ChoiceFilter      string       `json:"choice_filter"`
	Choices           []choiceArgs `json:"choices"`
}

type updateQuestionHandler struct{}

func (h *updateQuestionHandler) Name() string { return "updateQuestion" }

func (h *updateQuestionHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Modifie les propriétés d'une question existante.",
		Parameters: objectSchema([]string{"questionName"}, map[string]interface{}{
			"questionName":       stringProp("Le nom de la variable de la question à modifier."),
			"type":               stringProp("Le nouveau type de question."),
			"name":               stringProp("Le nouveau nom de variable (renommage)."),
			"label":              stringProp("Le nouveau libellé de la question."),
			"hint":               stringProp("Le nouveau texte d'aide."),
			"required":           boolProp("La question est-elle obligatoire ?"),
			"relevant":           stringProp("La nouvelle logique de pertinence (XLSForm)."),
			"constraint":         stringProp("La nouvelle contrainte de validation (XLSForm)."),
			"constraint_message": stringProp("Le message d'erreur pour la contrainte."),
			"appearance":         stringProp("Indication de rendu (ex: minimal)."),
			"choice_filter":      stringProp("Filtre de choix pour les cascades (ex: region=${region_select})."),
			"choices":            arrayProp("Remplacement complet de la liste des choix.", choiceItemSchema()),
		}),
	}
}

func (h *updateQuestionHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a updateQuestionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.QuestionName == "" {
		return nil, fmt.Errorf("%w: questionName est requis", domain.ErrValidation)
	}

	idx := project.FormData.FindQuestion(a.QuestionName)
	if idx < 0 {
		return nil, fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, a.QuestionName)
	}

	// Work on a copy so a rejected update leaves the survey untouched.
	q := project.FormData.Survey[idx].Clone()
	lang := project.DefaultLanguage()

	if a.Type != "" {
		t := form.QuestionType(a.Type)
		if !t.IsKnown() {
			return nil, fmt.Errorf("%w: type de question inconnu: %q", domain.ErrValidation, a.Type)
		}
		if t.IsStructural() || q.Type.IsStructural() {
			return nil, fmt.Errorf("%w: les marqueurs de groupe ne se changent pas via une mise à jour de type", domain.ErrValidation)
		}
		q.Type = t
	}
	if a.Name != "" && a.Name != q.Name {
		if err := survey.ValidateNewName(&project.FormData, a.Name); err != nil {
			return nil, err
		}
		q.Name = a.Name
	}
	if a.Label != "" {
		q.Label = q.Label.Set(lang, a.Label)
	}
	if a.Hint != "" {
		q.Hint = q.Hint.Set(lang, a.Hint)
	}
	if a.ConstraintMessage != "" {
		q.ConstraintMessage = q.ConstraintMessage.Set(lang, a.ConstraintMessage)
	}
	if a.Required != nil {
		q.Required = *a.Required
	}
	if a.Relevant != "" {
		q.Relevant = a.Relevant
	}
	if a.Constraint != "" {
		q.Constraint = a.Constraint
	}
	if a.Calculation != "" {
		q.Calculation = a.Calculation
	}
	if a.Appearance != "" {
		q.Appearance = a.Appearance
	}
	if a.ChoiceFilter != "" {
		q.ChoiceFilter = a.ChoiceFilter
	}
	if a.Choices != nil {
		q.Choices = nil
		for _, c := range a.Choices {
			q.Choices = append(q.Choices, form.Choice{
				UID:   uuid.NewString(),
				Name:  c.Name,
				Label: form.LocalizedText{}.Set(lang, c.Label),
			})
		}
	}
	if q.Type.IsSelect() && len(q.Choices) == 0 {
		return nil, fmt.Errorf("%w: la question %q de type %s requiert des choix", domain.ErrValidation, q.Name, q.Type)
	}

	project.FormData.Survey[idx] = q

	msg := fmt.Sprintf("Question %q modifiée.", a.QuestionName)
	if a.Relevant != "" {
		msg += " (Logique ajoutée)"
	}
	if a.Constraint != "" {
		msg += " (Validation ajoutée)"
	}
	if a.Choices != nil {
		msg += " (Choix mis à jour)"
	}

	details := map[string]interface{}{"questionName": a.QuestionName}
	for k, v := range args {
		if k != "questionName" {
			details[k] = v
		}
	}
	return &Result{Confirmation: msg, Details: details}, nil
}

// deleteQuestion

type deleteQuestionHandler struct{}

func (h *deleteQuestionHandler) Name() string { return "deleteQuestion" }

func (h *deleteQuestionHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Supprime une question existante du formulaire en utilisant son nom de variable.",
		Parameters: objectSchema([]string{"questionName"}, map[string]interface{}{
			"questionName": stringProp("Le nom de la variable de la question à supprimer."),
		}),
	}
}

func (h *deleteQuestionHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	name, ok := args["questionName"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: questionName est requis", domain.ErrValidation)
	}
	if err := survey.DeleteQuestion(&project.FormData, name); err != nil {
		return nil, err
	}
	return &Result{
		Confirmation: fmt.Sprintf("Question %q supprimée.", name),
		Details:      map[string]interface{}{"questionName": name},
	}, nil
}

// reorderQuestion

type reorderQuestionHandler struct{}

func (h *reorderQuestionHandler) Name() string { return "reorderQuestion" }

func (h *reorderQuestionHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Change l'ordre d'une question dans le formulaire.",
		Parameters: objectSchema([]string{"questionNameToMove", "targetQuestionName", "position"}, map[string]interface{}{
			"questionNameToMove": stringProp("Le nom de la question à déplacer."),
			"targetQuestionName": stringProp("Le nom de la question de référence."),
			"position":           stringProp("Placer 'before' (avant) ou 'after' (après) la question cible."),
		}),
	}
}

func (h *reorderQuestionHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionNameToMove string `json:"questionNameToMove"`
		TargetQuestionName string `json:"targetQuestionName"`
		Position           string `json:"position"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.QuestionNameToMove, validation.Required),
		validation.Field(&a.TargetQuestionName, validation.Required),
		validation.Field(&a.Position, validation.Required, validation.In("before", "after")),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := survey.MoveQuestion(&project.FormData, a.QuestionNameToMove, a.TargetQuestionName, survey.Position(a.Position)); err != nil {
		return nil, err
	}
	return &Result{
		Confirmation: fmt.Sprintf("Question %q déplacée.", a.QuestionNameToMove),
		Details: map[string]interface{}{
			"questionNameToMove": a.QuestionNameToMove,
			"targetQuestionName": a.TargetQuestionName,
			"position":           a.Position,
		},
	}, nil
}

// cloneQuestion

type cloneQuestionHandler struct{}

func (h *cloneQuestionHandler) Name() string { return "cloneQuestion" }

func (h *cloneQuestionHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Duplique une question existante, avec ses choix, juste après l'originale.",
		Parameters: objectSchema([]string{"sourceQuestionName"}, map[string]interface{}{
			"sourceQuestionName": stringProp("Le nom de la question à dupliquer."),
			"newName":            stringProp("Le nom de variable de la copie (défaut: <source>_copy)."),
			"newLabel":           stringProp("Le libellé de la copie."),
		}),
	}
}

func (h *cloneQuestionHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		SourceQuestionName string `json:"sourceQuestionName"`
		NewName            string `json:"newName"`
		NewLabel           string `json:"newLabel"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.SourceQuestionName == "" {
		return nil, fmt.Errorf("%w: sourceQuestionName est requis", domain.ErrValidation)
	}

	clone, err := survey.CloneQuestion(&project.FormData, a.SourceQuestionName, a.NewName, a.NewLabel, project.DefaultLanguage())
	if err != nil {
		return nil, err
	}
	return &Result{
		Confirmation: fmt.Sprintf("Question %q dupliquée.", a.SourceQuestionName),
		Details:      map[string]interface{}{"source": a.SourceQuestionName, "clone": clone.Name},
	}, nil
}

// createQuestionGroup

type createQuestionGroupHandler struct{}

func (h *createQuestionGroupHandler) Name() string { return "createQuestionGroup" }

func (h *createQuestionGroupHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Crée un groupe de questions pour organiser le formulaire.",
		Parameters: objectSchema([]string{"groupName", "groupLabel", "questions"}, map[string]interface{}{
			"groupName":  stringProp("Le nom unique du groupe."),
			"groupLabel": stringProp("Le libellé affiché du groupe."),
			"questions":  arrayProp("Les noms de variables des questions à inclure, dans l'ordre du formulaire.", stringProp("Nom de variable.")),
		}),
	}
}

func (h *createQuestionGroupHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		GroupName  string   `json:"groupName"`
		GroupLabel string   `json:"groupLabel"`
		Questions  []string `json:"questions"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.GroupName, validation.Required),
		validation.Field(&a.GroupLabel, validation.Required),
		validation.Field(&a.Questions, validation.Required, validation.Length(1, 0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	first := a.Questions[0]
	last := a.Questions[len(a.Questions)-1]
	if err := survey.WrapInGroup(&project.FormData, first, last, a.GroupName, a.GroupLabel, project.DefaultLanguage()); err != nil {
		return nil, err
	}
	return &Result{
		Confirmation: fmt.Sprintf("Groupe %q créé autour des questions.", a.GroupLabel),
		Details:      map[string]interface{}{"groupName": a.GroupName, "groupLabel": a.GroupLabel, "questions": a.Questions},
	}, nil
}

// addCalculatedField

type addCalculatedFieldHandler struct{}

func (h *addCalculatedFieldHandler) Name() string { return "addCalculatedField" }

func (h *addCalculatedFieldHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Ajoute un champ calculé basé sur d'autres questions.",
		Parameters: objectSchema([]string{"questionName", "label", "calculation"}, map[string]interface{}{
			"questionName": stringProp("Le nom unique du champ calculé."),
			"label":        stringProp("Le libellé du champ calculé."),
			"calculation":  stringProp("La formule de calcul (XLSForm)."),
		}),
	}
}

func (h *addCalculatedFieldHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionName string `json:"questionName"`
		Label        string `json:"label"`
		Calculation  string `json:"calculation"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.QuestionName, validation.Required),
		validation.Field(&a.Label, validation.Required),
		validation.Field(&a.Calculation, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	q := form.Question{
		UID:         uuid.NewString(),
		Type:        form.TypeCalculate,
		Name:        a.QuestionName,
		Label:       form.LocalizedText{}.Set(project.DefaultLanguage(), a.Label),
		Calculation: a.Calculation,
	}
	if err := survey.InsertQuestion(&project.FormData, q, "", survey.After); err != nil {
		return nil, err
	}
	return &Result{
		Confirmation: fmt.Sprintf("Champ calculé %q ajouté.", a.QuestionName),
		Details:      map[string]interface{}{"questionName": a.QuestionName, "calculation": a.Calculation},
	}, nil
}

// setQuestionConditions

type setQuestionConditionsHandler struct{}

func (h *setQuestionConditionsHandler) Name() string { return "setQuestionConditions" }

func (h *setQuestionConditionsHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Définit les conditions de pertinence et les contraintes d'une question.",
		Parameters: objectSchema([]string{"questionName"}, map[string]interface{}{
			"questionName":      stringProp("Le nom de la question."),
			"relevant":          stringProp("Condition de pertinence (XLSForm)."),
			"constraint":        stringProp("Contrainte de validation (XLSForm)."),
			"constraintMessage": stringProp("Message d'erreur pour la contrainte."),
		}),
	}
}

func (h *setQuestionConditionsHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionName      string `json:"questionName"`
		Relevant          string `json:"relevant"`
		Constraint        string `json:"constraint"`
		ConstraintMessage string `json:"constraintMessage"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.QuestionName == "" {
		return nil, fmt.Errorf("%w: questionName est requis", domain.ErrValidation)
	}

	idx := project.FormData.FindQuestion(a.QuestionName)
	if idx < 0 {
		return nil, fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, a.QuestionName)
	}

	q := &project.FormData.Survey[idx]
	q.Relevant = a.Relevant
	q.Constraint = a.Constraint
	if a.ConstraintMessage != "" {
		q.ConstraintMessage = q.ConstraintMessage.Set(project.DefaultLanguage(), a.ConstraintMessage)
	}

	return &Result{
		Confirmation: fmt.Sprintf("Conditions de la question %q définies.", a.QuestionName),
		Details:      map[string]interface{}{"questionName": a.QuestionName, "relevant": a.Relevant, "constraint": a.Constraint},
	}, nil
}

// batchUpdateQuestions

type batchUpdateQuestionsHandler struct{}

func (h *batchUpdateQuestionsHandler) Name() string { return "batchUpdateQuestions" }

func (h *batchUpdateQuestionsHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Met à jour plusieurs questions en une seule fois, par exemple pour ajouter des logiques en masse.",
		Parameters: objectSchema([]string{"updatesJson"}, map[string]interface{}{
			"updatesJson": stringProp("Une chaîne JSON représentant un tableau d'objets {questionName, updates}."),
		}),
	}
}

func (h *batchUpdateQuestionsHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	raw, ok := args["updatesJson"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: updatesJson est requis", domain.ErrValidation)
	}

	var updates []struct {
		QuestionName string                 `json:"questionName"`
		Updates      map[string]interface{} `json:"updates"`
	}
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		return nil, fmt.Errorf("%w: JSON invalide: %v", domain.ErrValidation, err)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: aucune mise à jour fournie", domain.ErrValidation)
	}

	// Dry-run against a snapshot first: one bad entry rejects the whole
	// batch without touching the live survey.
	single := &updateQuestionHandler{}
	snapshot := project.FormData.Clone()
	trial := &form.Project{FormData: snapshot}
	trial.FormData.Settings = project.FormData.Settings
	for i, u := range updates {
		callArgs := map[string]interface{}{"questionName": u.QuestionName}
		for k, v := range u.Updates {
			callArgs[k] = v
		}
		if _, err := single.Apply(trial, callArgs); err != nil {
			return nil, fmt.Errorf("entrée %d (%s): %w", i+1, u.QuestionName, err)
		}
	}

	project.FormData = trial.FormData
	return &Result{
		Confirmation: fmt.Sprintf("%d questions mises à jour en bloc.", len(updates)),
		Details:      map[string]interface{}{"count": len(updates)},
	}, nil
}
