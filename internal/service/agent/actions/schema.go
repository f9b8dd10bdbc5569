package actions

// JSON-schema building helpers for the tool declarations. The shapes
// follow the provider's function-declaration format.

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func boolProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc}
}

func arrayProp(desc string, items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "description": desc, "items": items}
}

// choiceItemSchema is the {name, label} pair used by every action that
// carries choices.
func choiceItemSchema() map[string]interface{} {
	return objectSchema(nil, map[string]interface{}{
		"name":  stringProp("La valeur stockée pour le choix."),
		"label": stringProp("Le texte affiché pour le choix."),
	})
}

func questionItemSchema() map[string]interface{} {
	return objectSchema([]string{"type", "name", "label"}, map[string]interface{}{
		"type":     stringProp("Le type de question (ex: text, integer, select_one)."),
		"name":     stringProp("Le nom unique de la variable (court, en minuscules, sans espaces)."),
		"label":    stringProp("Le libellé complet de la question."),
		"required": boolProp("La question est-elle obligatoire ?"),
		"hint":     stringProp("Un texte d'aide optionnel."),
		"relevant": stringProp("Logique de pertinence (XLSForm)."),
		"constraint": stringProp("Contrainte de validation (XLSForm)."),
		"calculation": stringProp("Formule de calcul (XLSForm)."),
		"choices": arrayProp("Pour select_one/select_multiple, la liste des choix.", choiceItemSchema()),
	})
}
