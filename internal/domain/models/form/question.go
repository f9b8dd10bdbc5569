package form

// QuestionType is the closed set of XLSForm question types the agent
// is allowed to create or edit.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeInteger        QuestionType = "integer"
	TypeDecimal        QuestionType = "decimal"
	TypeSelectOne      QuestionType = "select_one"
	TypeSelectMultiple QuestionType = "select_multiple"
	TypeDate           QuestionType = "date"
	TypeTime           QuestionType = "time"
	TypeGeopoint       QuestionType = "geopoint"
	TypeImage          QuestionType = "image"
	TypeAudio          QuestionType = "audio"
	TypeSignature      QuestionType = "signature"
	TypeNote           QuestionType = "note"
	TypeCalculate      QuestionType = "calculate"
	TypeBeginGroup     QuestionType = "begin_group"
	TypeEndGroup       QuestionType = "end_group"
	TypeBeginRepeat    QuestionType = "begin_repeat"
	TypeEndRepeat      QuestionType = "end_repeat"
)

// knownTypes is the validation set for incoming action arguments.
var knownTypes = map[QuestionType]bool{
	TypeText: true, TypeInteger: true, TypeDecimal: true,
	TypeSelectOne: true, TypeSelectMultiple: true,
	TypeDate: true, TypeTime: true, TypeGeopoint: true,
	TypeImage: true, TypeAudio: true, TypeSignature: true,
	TypeNote: true, TypeCalculate: true,
	TypeBeginGroup: true, TypeEndGroup: true,
	TypeBeginRepeat: true, TypeEndRepeat: true,
}

// IsKnown reports whether t is one of the supported question types.
func (t QuestionType) IsKnown() bool { return knownTypes[t] }

// IsStructural reports whether t is a group/repeat bracketing marker.
func (t QuestionType) IsStructural() bool {
	switch t {
	case TypeBeginGroup, TypeEndGroup, TypeBeginRepeat, TypeEndRepeat:
		return true
	}
	return false
}

// IsOpening reports whether t opens a structural scope.
func (t QuestionType) IsOpening() bool {
	return t == TypeBeginGroup || t == TypeBeginRepeat
}

// IsClosing reports whether t closes a structural scope.
func (t QuestionType) IsClosing() bool {
	return t == TypeEndGroup || t == TypeEndRepeat
}

// ClosingType returns the end marker matching an opening type.
func (t QuestionType) ClosingType() QuestionType {
	if t == TypeBeginRepeat {
		return TypeEndRepeat
	}
	return TypeEndGroup
}

// IsSelect reports whether t carries a choice list.
func (t QuestionType) IsSelect() bool {
	return t == TypeSelectOne || t == TypeSelectMultiple
}

// IsNumeric reports whether values of t compare unquoted in expressions.
func (t QuestionType) IsNumeric() bool {
	return t == TypeInteger || t == TypeDecimal
}

// Choice is one entry of a select question's choice list.
// Name is the stored value, unique within the question.
type Choice struct {
	UID   string        `json:"uid"`
	Name  string        `json:"name"`
	Label LocalizedText `json:"label"`
}

// Question is one node of the survey. Name is the externally
// referenceable symbol used inside ${name} interpolations; UID is an
// opaque identity stable across renames.
type Question struct {
	UID               string        `json:"uid"`
	Type              QuestionType  `json:"type"`
	Name              string        `json:"name"`
	Label             LocalizedText `json:"label,omitempty"`
	Hint              LocalizedText `json:"hint,omitempty"`
	ConstraintMessage LocalizedText `json:"constraint_message,omitempty"`
	Required          bool          `json:"required,omitempty"`
	Relevant          string        `json:"relevant,omitempty"`
	Constraint        string        `json:"constraint,omitempty"`
	Calculation       string        `json:"calculation,omitempty"`
	Appearance        string        `json:"appearance,omitempty"`
	ChoiceFilter      string        `json:"choice_filter,omitempty"`
	Choices           []Choice      `json:"choices,omitempty"`
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	out := q
	out.Label = cloneText(q.Label)
	out.Hint = cloneText(q.Hint)
	out.ConstraintMessage = cloneText(q.ConstraintMessage)
	if q.Choices != nil {
		out.Choices = make([]Choice, len(q.Choices))
		for i, c := range q.Choices {
			out.Choices[i] = Choice{UID: c.UID, Name: c.Name, Label: cloneText(c.Label)}
		}
	}
	return out
}

func cloneText(t LocalizedText) LocalizedText {
	if t == nil {
		return nil
	}
	out := make(LocalizedText, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
