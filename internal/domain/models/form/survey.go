package form

// Settings is the XLSForm settings sheet.
type Settings struct {
	FormTitle       string `json:"form_title"`
	FormID          string `json:"form_id"`
	Version         string `json:"version"`
	DefaultLanguage string `json:"default_language"`
	Languages       []string `json:"languages,omitempty"`
}

// FormData is the document subtree the agent mutates: settings plus
// the ordered survey. Question order is semantically significant
// because begin/end markers bracket scope. Choices live inline on
// their select question; cascading selects reference them through
// choice_filter.
type FormData struct {
	Settings Settings   `json:"settings"`
	Survey   []Question `json:"survey"`
}

// FindQuestion returns the index of the question with the given name,
// or -1 when absent.
func (f *FormData) FindQuestion(name string) int {
	for i := range f.Survey {
		if f.Survey[i].Name == name {
			return i
		}
	}
	return -1
}

// HasQuestion reports whether a question with the given name exists.
func (f *FormData) HasQuestion(name string) bool {
	return f.FindQuestion(name) >= 0
}

// Clone returns a deep copy of the form data, used for version
// snapshots and atomic restore.
func (f *FormData) Clone() FormData {
	out := FormData{Settings: f.Settings}
	if f.Settings.Languages != nil {
		out.Settings.Languages = append([]string(nil), f.Settings.Languages...)
	}
	if f.Survey != nil {
		out.Survey = make([]Question, len(f.Survey))
		for i := range f.Survey {
			out.Survey[i] = f.Survey[i].Clone()
		}
	}
	return out
}
