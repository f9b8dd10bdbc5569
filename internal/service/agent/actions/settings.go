package actions

import (
	"fmt"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

// updateProjectSettings

type updateProjectSettingsHandler struct{}

func (h *updateProjectSettingsHandler) Name() string { return "updateProjectSettings" }

func (h *updateProjectSettingsHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Met à jour les paramètres globaux du formulaire (titre, identifiant, langue par défaut).",
		Parameters: objectSchema(nil, map[string]interface{}{
			"formTitle":       stringProp("Le titre du formulaire."),
			"formId":          stringProp("L'identifiant technique du formulaire."),
			"version":         stringProp("La version du formulaire."),
			"defaultLanguage": stringProp("La langue par défaut (ex: fr)."),
			"languages":       arrayProp("Les langues disponibles.", stringProp("Code de langue.")),
		}),
	}
}

func (h *updateProjectSettingsHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		FormTitle       string   `json:"formTitle"`
		FormID          string   `json:"formId"`
		Version         string   `json:"version"`
		DefaultLanguage string   `json:"defaultLanguage"`
		Languages       []string `json:"languages"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.FormTitle == "" && a.FormID == "" && a.Version == "" && a.DefaultLanguage == "" && len(a.Languages) == 0 {
		return nil, fmt.Errorf("%w: aucun paramètre fourni", domain.ErrValidation)
	}

	s := &project.FormData.Settings
	if a.FormTitle != "" {
		s.FormTitle = a.FormTitle
	}
	if a.FormID != "" {
		s.FormID = a.FormID
	}
	if a.Version != "" {
		s.Version = a.Version
	}
	if a.DefaultLanguage != "" {
		s.DefaultLanguage = a.DefaultLanguage
	}
	if len(a.Languages) > 0 {
		s.Languages = append([]string(nil), a.Languages...)
	}

	return &Result{
		Confirmation: "Paramètres du projet mis à jour.",
		Details:      args,
	}, nil
}

// setRegionalSettings

type setRegionalSettingsHandler struct{}

func (h *setRegionalSettingsHandler) Name() string { return "setRegionalSettings" }

func (h *setRegionalSettingsHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Définit le contexte culturel et les termes locaux utilisés pour adapter le formulaire à la région de déploiement.",
		Parameters: objectSchema([]string{"culturalContext"}, map[string]interface{}{
			"culturalContext": stringProp("Description du contexte culturel de la région."),
			"localTerms":      arrayProp("Termes locaux à privilégier dans les libellés.", stringProp("Un terme local.")),
		}),
	}
}

func (h *setRegionalSettingsHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		CulturalContext string   `json:"culturalContext"`
		LocalTerms      []string `json:"localTerms"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.CulturalContext == "" {
		return nil, fmt.Errorf("%w: culturalContext est requis", domain.ErrValidation)
	}

	project.RegionalSettings = &form.RegionalSettings{
		CulturalContext: a.CulturalContext,
		LocalTerms:      append([]string(nil), a.LocalTerms...),
	}

	return &Result{
		Confirmation: "Paramètres régionaux mis à jour.",
		Details:      args,
	}, nil
}

// setBranding

type setBrandingHandler struct{}

func (h *setBrandingHandler) Name() string { return "setBranding" }

func (h *setBrandingHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Définit l'identité visuelle du projet (organisation, logo, couleur).",
		Parameters: objectSchema(nil, map[string]interface{}{
			"orgName":      stringProp("Le nom de l'organisation."),
			"logoUrl":      stringProp("L'URL du logo."),
			"primaryColor": stringProp("La couleur principale (hex, ex: #1a73e8)."),
		}),
	}
}

func (h *setBrandingHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		OrgName      string `json:"orgName"`
		LogoURL      string `json:"logoUrl"`
		PrimaryColor string `json:"primaryColor"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.OrgName == "" && a.LogoURL == "" && a.PrimaryColor == "" {
		return nil, fmt.Errorf("%w: aucun élément d'identité fourni", domain.ErrValidation)
	}

	if project.Branding == nil {
		project.Branding = &form.Branding{}
	}
	if a.OrgName != "" {
		project.Branding.OrgName = a.OrgName
	}
	if a.LogoURL != "" {
		project.Branding.LogoURL = a.LogoURL
	}
	if a.PrimaryColor != "" {
		project.Branding.PrimaryColor = a.PrimaryColor
	}

	return &Result{
		Confirmation: "Identité visuelle mise à jour.",
		Details:      args,
	}, nil
}
