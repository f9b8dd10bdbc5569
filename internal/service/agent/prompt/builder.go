// Package prompt assembles the single instruction string sent to the
// model on every turn. Assembly is a pure function of its inputs: same
// project snapshot, roles and mode flags produce the same string.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"isma/internal/domain/models/form"
	"isma/internal/personas"
)

// Input is everything one prompt depends on.
type Input struct {
	Roles             []string
	Project           *form.Project
	CurrentQuestion   *form.Question
	FormValues        map[string]interface{}
	GenerationMode    bool
	ConversationDepth int
}

// terseDepth is the conversation depth past which the generation-mode
// guidance switches to its short form.
const terseDepth = 4

// Builder renders prompts against an injected persona catalog, keeping
// assembly free of ambient state.
type Builder struct {
	catalog *personas.Registry
}

// NewBuilder creates a prompt builder.
func NewBuilder(catalog *personas.Registry) *Builder {
	return &Builder{catalog: catalog}
}

// Build produces the instruction string for one model call. Unknown
// persona ids are dropped; empty sections are omitted. This function
// has no failure modes.
func (b *Builder) Build(in Input) string {
	var sb strings.Builder

	sb.WriteString("Tu es ISMA, l'assistant expert pour la construction de formulaires KoboToolbox/XLSForm.\n")
	sb.WriteString("TA MISSION : traduire le langage naturel de l'utilisateur en actions techniques directes sur le formulaire, via les outils (function calls).\n")

	if roles := b.catalog.Resolve(in.Roles); len(roles) > 0 {
		sb.WriteString("\n--- TES RÔLES ACTIFS ---\n")
		for _, r := range roles {
			fmt.Fprintf(&sb, "  - %s (%s): %s\n", r.Name, r.Emoji, r.Description)
		}
	}

	if in.GenerationMode {
		writeGenerationGuide(&sb, in.ConversationDepth)
	} else {
		writeProjectContext(&sb, in.Project)
	}

	focus := ""
	if in.CurrentQuestion != nil {
		focus = formatFocus(in.CurrentQuestion, in.Project.DefaultLanguage())
		sb.WriteString(focus)
	}

	if len(in.FormValues) > 0 {
		sb.WriteString("\n--- VALEURS ACTUELLES (TEST) ---\n")
		// json.Marshal sorts map keys, keeping the prompt deterministic.
		if raw, err := json.Marshal(in.FormValues); err == nil {
			sb.Write(raw)
			sb.WriteString("\n")
		}
	}

	// Glossary relevance is judged against the selected question when
	// there is one, otherwise against the whole prompt built so far.
	// Scoping to the focus block keeps an unrelated question from
	// dragging in every term mentioned anywhere in the survey dump.
	scanText := focus
	if scanText == "" {
		scanText = sb.String()
	}
	sb.WriteString(formatGlossary(in.Project.Glossary, scanText))

	if in.Project.ProjectConstitution != "" {
		sb.WriteString("\n--- CONSTITUTION DU PROJET (RÈGLES OBLIGATOIRES) ---\n")
		sb.WriteString(in.Project.ProjectConstitution)
		sb.WriteString("\n")
	}

	if !in.GenerationMode {
		writeTranslationManual(&sb)
	}

	writeClosingDirectives(&sb)
	return sb.String()
}

// writeProjectContext dumps the project title and the full ordered
// survey, one line per question.
func writeProjectContext(sb *strings.Builder, p *form.Project) {
	lang := p.DefaultLanguage()
	sb.WriteString("\n--- LE PROJET ACTUEL ---\n")
	fmt.Fprintf(sb, "Projet: %s\n", p.FormData.Settings.FormTitle)
	sb.WriteString("Structure complète du formulaire:\n")
	for _, q := range p.FormData.Survey {
		fmt.Fprintf(sb, "- %s (type: %s): %q", q.Name, q.Type, q.Label.Resolve(lang))
		if q.Relevant != "" {
			fmt.Fprintf(sb, " [relevant: %s]", q.Relevant)
		}
		if len(q.Choices) > 0 {
			names := make([]string, len(q.Choices))
			for i, c := range q.Choices {
				names[i] = c.Name
			}
			fmt.Fprintf(sb, " [choix: %s]", strings.Join(names, ", "))
		}
		sb.WriteString("\n")
	}
}

func formatFocus(q *form.Question, lang string) string {
	var sb strings.Builder
	sb.WriteString("\n--- QUESTION SÉLECTIONNÉE (FOCUS) ---\n")
	fmt.Fprintf(&sb, "Question sélectionnée: %s: %q\n", q.Name, q.Label.Resolve(lang))
	fmt.Fprintf(&sb, "Type: %s\n", q.Type)
	fmt.Fprintf(&sb, "Relevant: %s\n", orNone(q.Relevant))
	fmt.Fprintf(&sb, "Constraint: %s\n", orNone(q.Constraint))
	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "Aucun"
	}
	return s
}

// formatGlossary renders the glossary entries whose term matches the
// scan text (case-insensitive, token-level, either-direction
// containment). Returns "" when nothing matches.
func formatGlossary(glossary []form.GlossaryEntry, scanText string) string {
	if len(glossary) == 0 {
		return ""
	}

	tokens := tokenize(scanText)
	var lines []string
	for _, entry := range glossary {
		if termMatches(entry.Term, scanText, tokens) {
			lines = append(lines, fmt.Sprintf("**%s (%s)**: %s", entry.Term, entry.Level, entry.DefinitionFR))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n--- CONTEXTE DU GLOSSAIRE ---\n" + strings.Join(lines, "\n") + "\n"
}

func termMatches(term, scanText string, tokens []string) bool {
	lowered := strings.ToLower(term)
	if strings.Contains(strings.ToLower(scanText), lowered) {
		return true
	}
	for _, tok := range tokens {
		if strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on non-letter/digit runes, dropping
// short stop-word-sized tokens that would match everything.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '_' || r == '\'' ||
			(r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127)
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

// writeGenerationGuide replaces the survey dump in open-ended
// "design me a form" conversations: phase-based strategy plus a worked
// example, shortened once the conversation gets deep.
func writeGenerationGuide(sb *strings.Builder, depth int) {
	sb.WriteString("\n--- MODE GÉNÉRATION DE FORMULAIRE ---\n")
	if depth > terseDepth {
		sb.WriteString("La conversation est déjà avancée : sois bref, ne répète pas la stratégie, concentre-toi sur les questions manquantes et utilise addQuestionsBatch.\n")
		return
	}
	sb.WriteString(`Construis le formulaire par phases :
1. IDENTIFICATION : qui répond (nom, localité, consentement).
2. CŒUR DU SUJET : les indicateurs demandés, une idée par question.
3. LOGIQUE : conditions d'affichage (relevant) et validations (constraint).
4. FINITION : groupes, notes d'aide, champs calculés.

Exemple (enquête eau) :
- addQuestionsBatch([{type: "select_one", name: "source_eau", label: "Quelle est votre source d'eau principale ?", choices: [{name: "forage", label: "Forage"}, {name: "puits", label: "Puits"}]}, {type: "integer", name: "temps_corvee", label: "Temps de corvée d'eau (minutes)"}])
- updateQuestion(questionName: "temps_corvee", relevant: "not(selected(${source_eau}, 'forage'))")

Propose peu de questions à la fois et demande confirmation avant de passer à la phase suivante.
`)
}

// writeTranslationManual gives the model few-shot mappings from human
// phrasing to function calls for targeted edits.
func writeTranslationManual(sb *strings.Builder) {
	sb.WriteString(`
--- MANUEL DE TRADUCTION : HUMAIN -> TECHNIQUE ---
1. LOGIQUE D'AFFICHAGE ("RELEVANT")
   - "Affiche ça seulement pour les femmes." -> updateQuestion(questionName: "...", relevant: "${genre} = 'femme'")
   - "Uniquement si l'enfant a la diarrhée." -> updateQuestion(questionName: "...", relevant: "selected(${symptomes}, 'diarrhee')")
   - "Cette section concerne les plus de 18 ans." -> updateQuestion(questionName: "...", relevant: "${age} >= 18")
2. VALIDATION ("CONSTRAINT")
   - "L'âge ne peut pas dépasser 100 ans." -> updateQuestion(questionName: "age", constraint: ". <= 100", constraint_message: "L'âge doit être inférieur à 100.")
   - "Pas plus de 3 options." -> updateQuestion(questionName: "...", constraint: "count-selected(.) <= 3")
3. STRUCTURE
   - "Groupe ces questions sous 'Identité'." -> createQuestionGroup(groupName: "identite", groupLabel: "Identité", questions: [...])
   - "Duplique la question âge." -> cloneQuestion(sourceQuestionName: "age", newLabel: "Âge du 2ème enfant")
4. CALCULS & CASCADES
   - "Calcule le total." -> addCalculatedField(questionName: "total", label: "Total", calculation: "${a} + ${b}")
   - "Cascade Région puis Cercle." -> deux questions, la seconde avec choice_filter: "region=${region_select}"
5. CRÉATION MASSIVE
   - Plus d'une question à créer -> TOUJOURS addQuestionsBatch([...]).
`)
}

func writeClosingDirectives(sb *strings.Builder) {
	sb.WriteString(`
--- DIRECTIVES FINALES ---
1. Réponds toujours en français simple et accessible.
2. Pour toute modification du formulaire, N'EXPLIQUE PAS la marche à suivre : APPELLE LA FONCTION correspondante.
3. Respecte le contexte culturel et linguistique local (Mali, Afrique de l'Ouest) dans chaque formulation.
`)
}
