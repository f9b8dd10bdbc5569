// Command seed inserts the demonstration project into the configured
// project store, so a fresh environment has a realistic form to open.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"isma/internal/config"
	"isma/internal/domain/models/form"
	"isma/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		log.Fatal("SEED_USER_ID is required")
	}
	if cfg.SupabaseDBURL == "" {
		log.Fatal("SUPABASE_DB_URL is required")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewProjectRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	})

	project := demoProject(userID)
	if err := repo.Create(ctx, project); err != nil {
		log.Fatalf("Failed to seed demo project: %v", err)
	}
	logger.Info("demo project seeded", "project_id", project.ID, "user_id", userID)
}

func demoProject(userID string) *form.Project {
	now := time.Now().UTC()

	q := func(t form.QuestionType, name, labelFR string) form.Question {
		return form.Question{
			UID:   uuid.NewString(),
			Type:  t,
			Name:  name,
			Label: form.LocalizedText{"fr": labelFR},
		}
	}
	choice := func(name, labelFR string) form.Choice {
		return form.Choice{UID: uuid.NewString(), Name: name, Label: form.LocalizedText{"fr": labelFR}}
	}

	enqueteur := q(form.TypeText, "nom_enqueteur", "Nom de l'enquêteur")
	enqueteur.Label["bm"] = "Anketikɛla tɔgɔ"
	enqueteur.Required = true

	dateEnquete := q(form.TypeDate, "date_enquete", "Date de l'enquête")
	dateEnquete.Label["bm"] = "Anketi don"
	dateEnquete.Required = true

	region := q(form.TypeSelectOne, "region", "Région")
	region.Required = true
	region.Choices = []form.Choice{
		choice("sikasso", "Sikasso"),
		choice("segou", "Ségou"),
		choice("bamako", "Bamako"),
	}

	village := q(form.TypeText, "village", "Village/Quartier")
	village.Required = true

	ageChef := q(form.TypeInteger, "age_chef_menage", "Âge du chef de ménage")
	ageChef.Required = true
	ageChef.Constraint = ". > 15"
	ageChef.ConstraintMessage = form.LocalizedText{"fr": "L'âge doit être supérieur à 15 ans."}

	eau := q(form.TypeSelectOne, "acces_eau", "Quelle est la source principale d'eau de boisson ?")
	eau.Choices = []form.Choice{
		choice("robinet", "Robinet"),
		choice("puit", "Puit"),
		choice("forage", "Forage"),
		choice("source", "Source / Rivière"),
	}

	symptomes := q(form.TypeSelectMultiple, "symptomes_enfants",
		"Au cours des 2 dernières semaines, les enfants de moins de 5 ans ont-ils eu l'un des symptômes suivants ?")
	symptomes.Choices = []form.Choice{
		choice("fievre", "Fièvre"),
		choice("toux", "Toux"),
		choice("diarrhee", "Diarrhée"),
		choice("aucun", "Aucun de ces symptômes"),
	}

	consultation := q(form.TypeSelectOne, "consultation", "Si oui, où avez-vous cherché un traitement en premier ?")
	consultation.Relevant = "selected(${symptomes_enfants}, 'fievre') or selected(${symptomes_enfants}, 'toux') or selected(${symptomes_enfants}, 'diarrhee')"
	consultation.Choices = []form.Choice{
		choice("cscom", "CSCOM / Centre de santé"),
		choice("hopital", "Hôpital"),
		choice("pharmacie", "Pharmacie / Dépôt"),
		choice("tradipraticien", "Tradipraticien"),
		choice("automedication", "Automédication"),
	}

	groupBegin := q(form.TypeBeginGroup, "localisation", "Localisation")
	groupEnd := form.Question{UID: uuid.NewString(), Type: form.TypeEndGroup, Name: "localisation_end", Label: form.LocalizedText{}}

	return &form.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        "Projet de Démonstration",
		Description: "Enquête de santé communautaire pré-remplie pour la prise en main.",
		Icon:        "🏥",
		CreatedAt:   now,
		UpdatedAt:   now,
		FormData: form.FormData{
			Settings: form.Settings{
				FormTitle:       "Enquête de Santé Communautaire",
				FormID:          "sante_communautaire_demo",
				Version:         "2023102601",
				DefaultLanguage: "fr",
				Languages:       []string{"fr", "bm"},
			},
			Survey: []form.Question{
				enqueteur, dateEnquete,
				groupBegin, region, village, groupEnd,
				ageChef, eau, symptomes, consultation,
			},
		},
		Glossary: []form.GlossaryEntry{
			{
				ID:            uuid.NewString(),
				Term:          "relevant",
				DefinitionFR:  "Logique de pertinence. Une condition qui détermine si une question doit être affichée ou masquée en fonction des réponses précédentes.",
				ExplanationBM: "‘relevant’ ye sariya ye. A b’a yira ni nyininka kɛrɛnkɛrɛnnen dɔ ka kan ka yira walima ka dogo, ka da jaabiliw kan minnu kɛra a ɲɛ.",
				Category:      "XLSForm",
				Level:         "analyste",
			},
			{
				ID:            uuid.NewString(),
				Term:          "constraint",
				DefinitionFR:  "Contrainte de validation. Une règle qui vérifie si la réponse saisie est valide. Par exemple, l'âge doit être supérieur à 18.",
				ExplanationBM: "'constraint' ye sariya ye min b'a lajɛ ni jaabili min sɛbɛnna, o bɛ ka nɔgɔn. Misali la, san ka kan ka tɛmɛ san 18 kan.",
				Category:      "XLSForm",
				Level:         "analyste",
			},
			{
				ID:            uuid.NewString(),
				Term:          "Ménage",
				DefinitionFR:  "Un groupe de personnes qui vivent ensemble et partagent les repas. Il est important de bien définir ce terme au début de l'enquête.",
				ExplanationBM: "‘Ménage’ kɔrɔ ye mɔgɔ talan ye minnu bɛ sigi ɲɔgɔn fɛ ka dumuni kɛ ɲɔgɔn fɛ. A ka fisa ka o daɲɛ in lakika lajɛ nsɛnɛfɔ a daminɛ na.",
				Category:      "Culturel",
				Level:         "terrain",
			},
		},
		ChatHistory: []form.ChatTurn{
			form.TextTurn(form.RoleUser, "Ajoute une question sur le lieu de consultation si l'enfant a des symptômes."),
			form.TextTurn(form.RoleModel, "Entendu, j'ai ajouté la question `consultation` avec une logique de pertinence."),
		},
		AuditLog: []form.AuditEntry{
			form.NewAuditEntry(form.ActorUser, "create_project", map[string]interface{}{"name": "Projet de Démonstration"}),
			form.NewAuditEntry(form.ActorAI, "addQuestion", map[string]interface{}{"name": "consultation", "type": "select_one"}),
		},
	}
}
