package project

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
)

// auditHeader is the fixed column set of the audit export.
const auditHeader = "id,timestamp,actor,action,details"

// ExportAuditCSV renders the audit log with every field quoted and the
// details column carrying the entry's JSON payload, quotes doubled.
// Entries are emitted in stored order.
func ExportAuditCSV(log []form.AuditEntry) string {
	var sb strings.Builder
	sb.WriteString(auditHeader)
	sb.WriteString("\n")

	for _, e := range log {
		details := "{}"
		if e.Details != nil {
			if raw, err := json.Marshal(e.Details); err == nil {
				details = string(raw)
			}
		}
		fmt.Fprintf(&sb, "%s,%s,%s,%s,%s\n",
			quoteField(e.ID),
			quoteField(e.Timestamp.UTC().Format(time.RFC3339)),
			quoteField(string(e.Actor)),
			quoteField(e.Action),
			quoteField(details),
		)
	}
	return sb.String()
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ParseAuditCSV reads an export back into audit entries. It accepts
// exactly the format ExportAuditCSV produces.
func ParseAuditCSV(data string) ([]form.AuditEntry, error) {
	lines := strings.Split(strings.TrimRight(data, "\n"), "\n")
	if len(lines) == 0 || lines[0] != auditHeader {
		return nil, fmt.Errorf("%w: en-tête CSV invalide", domain.ErrValidation)
	}

	var entries []form.AuditEntry
	for i, line := range lines[1:] {
		fields, err := splitQuoted(line)
		if err != nil {
			return nil, fmt.Errorf("%w: ligne %d: %v", domain.ErrValidation, i+2, err)
		}
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: ligne %d: %d colonnes, 5 attendues", domain.ErrValidation, i+2, len(fields))
		}

		ts, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: ligne %d: horodatage invalide: %v", domain.ErrValidation, i+2, err)
		}

		entry := form.AuditEntry{
			ID:        fields[0],
			Timestamp: ts,
			Actor:     form.Actor(fields[2]),
			Action:    fields[3],
		}
		if fields[4] != "" && fields[4] != "{}" {
			if err := json.Unmarshal([]byte(fields[4]), &entry.Details); err != nil {
				return nil, fmt.Errorf("%w: ligne %d: détails invalides: %v", domain.ErrValidation, i+2, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// splitQuoted parses one line of fully quoted, comma-separated fields
// with doubled-quote escaping.
func splitQuoted(line string) ([]string, error) {
	var fields []string
	i := 0
	for {
		if i >= len(line) || line[i] != '"' {
			return nil, fmt.Errorf("guillemet ouvrant attendu à la position %d", i)
		}
		i++
		var sb strings.Builder
		for {
			if i >= len(line) {
				return nil, fmt.Errorf("guillemet fermant manquant")
			}
			if line[i] == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					sb.WriteByte('"')
					i += 2
					continue
				}
				i++
				break
			}
			sb.WriteByte(line[i])
			i++
		}
		fields = append(fields, sb.String())
		if i == len(line) {
			return fields, nil
		}
		if line[i] != ',' {
			return nil, fmt.Errorf("virgule attendue à la position %d", i)
		}
		i++
	}
}
