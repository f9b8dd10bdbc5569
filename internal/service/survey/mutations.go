// Package survey holds the mutation primitives for the form document.
// Every change to the question tree, whether driven by the agent's
// function calls or by direct edits, funnels through these functions so
// the structural invariants (unique names, balanced group markers) are
// enforced in one place.
package survey

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"isma/internal/domain"
	"isma/internal/domain/models/form"
)

// Position places an inserted or moved question relative to an anchor.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateNewName checks that name is a valid bare identifier not
// already used in the survey. Names are the only reference mechanism
// available to expressions, so collisions are never tolerated.
func ValidateNewName(f *form.FormData, name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: nom de variable invalide: %q", domain.ErrValidation, name)
	}
	if f.HasQuestion(name) {
		return fmt.Errorf("%w: une question nommée %q existe déjà", domain.ErrValidation, name)
	}
	return nil
}

// InsertQuestion adds q to the survey. With an empty anchor the
// question is appended; otherwise it is placed before or after the
// named anchor question. The question's name must be new and its type
// known and non-structural; select questions must carry at least one
// choice.
func InsertQuestion(f *form.FormData, q form.Question, anchor string, pos Position) error {
	if err := validateQuestion(f, q); err != nil {
		return err
	}

	if anchor == "" {
		f.Survey = append(f.Survey, q)
		return nil
	}

	idx := f.FindQuestion(anchor)
	if idx < 0 {
		return fmt.Errorf("%w: question d'ancrage %q introuvable", domain.ErrValidation, anchor)
	}
	if pos == After {
		idx++
	}
	f.Survey = append(f.Survey, form.Question{})
	copy(f.Survey[idx+1:], f.Survey[idx:])
	f.Survey[idx] = q
	return nil
}

// InsertQuestions appends a batch of questions. The batch is validated
// as a whole before any insertion, including collisions inside the
// batch itself, so a bad entry leaves the survey untouched.
func InsertQuestions(f *form.FormData, questions []form.Question) error {
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if err := validateQuestion(f, q); err != nil {
			return err
		}
		if seen[q.Name] {
			return fmt.Errorf("%w: nom %q dupliqué dans le lot", domain.ErrValidation, q.Name)
		}
		seen[q.Name] = true
	}
	f.Survey = append(f.Survey, questions...)
	return nil
}

// DeleteQuestion removes the named question.
//
// Structural markers get special treatment: deleting a begin marker
// whose scope still contains questions is rejected, and deleting an
// empty group removes both the begin and the matching end marker. End
// markers cannot be deleted directly.
func DeleteQuestion(f *form.FormData, name string) error {
	idx := f.FindQuestion(name)
	if idx < 0 {
		return fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, name)
	}

	q := f.Survey[idx]
	if q.Type.IsClosing() {
		return fmt.Errorf("%w: le marqueur de fin %q se supprime via son début de groupe", domain.ErrValidation, name)
	}

	if q.Type.IsOpening() {
		end, err := scopeEnd(f.Survey, idx)
		if err != nil {
			return err
		}
		if end != idx+1 {
			return fmt.Errorf("%w: le groupe %q contient encore des questions", domain.ErrValidation, name)
		}
		// Empty scope: drop begin and end markers together.
		f.Survey = append(f.Survey[:idx], f.Survey[end+1:]...)
		return nil
	}

	f.Survey = append(f.Survey[:idx], f.Survey[idx+1:]...)
	return nil
}

// MoveQuestion reorders a question relative to a target question.
func MoveQuestion(f *form.FormData, name, target string, pos Position) error {
	if name == target {
		return fmt.Errorf("%w: impossible de déplacer %q par rapport à elle-même", domain.ErrValidation, name)
	}
	idx := f.FindQuestion(name)
	if idx < 0 {
		return fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, name)
	}
	if f.Survey[idx].Type.IsStructural() {
		return fmt.Errorf("%w: le marqueur de groupe %q ne se déplace pas individuellement", domain.ErrValidation, name)
	}

	moved := f.Survey[idx]
	rest := append(f.Survey[:idx:idx], f.Survey[idx+1:]...)

	tIdx := -1
	for i := range rest {
		if rest[i].Name == target {
			tIdx = i
			break
		}
	}
	if tIdx < 0 {
		return fmt.Errorf("%w: question cible %q introuvable", domain.ErrValidation, target)
	}
	if pos == After {
		tIdx++
	}

	out := make([]form.Question, 0, len(rest)+1)
	out = append(out, rest[:tIdx]...)
	out = append(out, moved)
	out = append(out, rest[tIdx:]...)
	f.Survey = out
	return nil
}

// CloneQuestion duplicates the named question directly after the
// original, with a fresh uid for the copy and each of its choices.
// Empty newName defaults to "<source>_copy"; empty newLabel defaults to
// the source label suffixed with " (Copie)" in the given language.
func CloneQuestion(f *form.FormData, source, newName, newLabel, lang string) (form.Question, error) {
	idx := f.FindQuestion(source)
	if idx < 0 {
		return form.Question{}, fmt.Errorf("%w: question source %q introuvable", domain.ErrValidation, source)
	}
	src := f.Survey[idx]
	if src.Type.IsStructural() {
		return form.Question{}, fmt.Errorf("%w: les marqueurs de groupe ne se dupliquent pas", domain.ErrValidation)
	}

	if newName == "" {
		newName = src.Name + "_copy"
	}
	if err := ValidateNewName(f, newName); err != nil {
		return form.Question{}, err
	}
	if newLabel == "" {
		newLabel = src.Label.Resolve(lang) + " (Copie)"
	}

	clone := src.Clone()
	clone.UID = uuid.NewString()
	clone.Name = newName
	clone.Label = clone.Label.Set(lang, newLabel)
	for i := range clone.Choices {
		clone.Choices[i].UID = uuid.NewString()
	}

	f.Survey = append(f.Survey, form.Question{})
	copy(f.Survey[idx+2:], f.Survey[idx+1:])
	f.Survey[idx+1] = clone
	return clone, nil
}

// WrapInGroup brackets the contiguous run of questions from first to
// last (inclusive, by name) with begin_group/end_group markers. The
// members must not already sit inside overlapping scopes.
func WrapInGroup(f *form.FormData, first, last, groupName, groupLabel, lang string) error {
	if err := ValidateNewName(f, groupName); err != nil {
		return err
	}
	start := f.FindQuestion(first)
	if start < 0 {
		return fmt.Errorf("%w: question de départ %q introuvable", domain.ErrValidation, first)
	}
	end := start
	if last != "" {
		end = f.FindQuestion(last)
		if end < 0 {
			return fmt.Errorf("%w: question de fin %q introuvable", domain.ErrValidation, last)
		}
	}
	if end < start {
		start, end = end, start
	}
	for i := start; i <= end; i++ {
		if f.Survey[i].Type.IsStructural() {
			return fmt.Errorf("%w: le groupe chevaucherait un groupe existant", domain.ErrValidation)
		}
	}

	begin := form.Question{
		UID:   uuid.NewString(),
		Type:  form.TypeBeginGroup,
		Name:  groupName,
		Label: form.LocalizedText{}.Set(lang, groupLabel),
	}
	endMarker := form.Question{
		UID:  uuid.NewString(),
		Type: form.TypeEndGroup,
		Name: groupName + "_end",
	}

	out := make([]form.Question, 0, len(f.Survey)+2)
	out = append(out, f.Survey[:start]...)
	out = append(out, begin)
	out = append(out, f.Survey[start:end+1]...)
	out = append(out, endMarker)
	out = append(out, f.Survey[end+1:]...)
	f.Survey = out
	return nil
}

// CheckBalanced verifies that every begin_group/begin_repeat has a
// matching, properly nested end marker.
func CheckBalanced(questions []form.Question) error {
	var stack []form.QuestionType
	for _, q := range questions {
		switch {
		case q.Type.IsOpening():
			stack = append(stack, q.Type.ClosingType())
		case q.Type.IsClosing():
			if len(stack) == 0 || stack[len(stack)-1] != q.Type {
				return fmt.Errorf("%w: marqueur %s inattendu (%s)", domain.ErrValidation, q.Type, q.Name)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: %d groupe(s) non fermé(s)", domain.ErrValidation, len(stack))
	}
	return nil
}

// scopeEnd returns the index of the end marker matching the opening
// marker at begin, honoring nesting.
func scopeEnd(questions []form.Question, begin int) (int, error) {
	depth := 0
	for i := begin; i < len(questions); i++ {
		switch {
		case questions[i].Type.IsOpening():
			depth++
		case questions[i].Type.IsClosing():
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: groupe %q sans marqueur de fin", domain.ErrValidation, questions[begin].Name)
}

func validateQuestion(f *form.FormData, q form.Question) error {
	if !q.Type.IsKnown() {
		return fmt.Errorf("%w: type de question inconnu: %q", domain.ErrValidation, q.Type)
	}
	// Lone markers would unbalance the survey; groups are only created
	// in begin/end pairs via WrapInGroup.
	if q.Type.IsStructural() {
		return fmt.Errorf("%w: les marqueurs de groupe s'ajoutent via la création de groupe, pas individuellement", domain.ErrValidation)
	}
	if err := ValidateNewName(f, q.Name); err != nil {
		return err
	}
	if q.Type.IsSelect() && len(q.Choices) == 0 {
		return fmt.Errorf("%w: la question %q de type %s requiert des choix", domain.ErrValidation, q.Name, q.Type)
	}
	return nil
}
