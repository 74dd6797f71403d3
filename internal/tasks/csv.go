package tasks

import (
	"strings"

	"github.com/hogarlabs/domoctl/internal/model"
)

// Header is the fixed first line of every export.
const Header = "ID,Nombre,Descripción,Prioridad,Fecha de Vencimiento,Estado,Asignado a,Etiquetas"

// ToCSV serializes tasks in list order. Every field is wrapped in double
// quotes unconditionally, with embedded quotes doubled; tags are joined
// with ", ". encoding/csv is deliberately not used: it quotes minimally.
func ToCSV(in []model.Task) string {
	lines := make([]string, 0, len(in)+1)
	lines = append(lines, Header)
	for _, t := range in {
		fields := []string{
			t.ID,
			t.Name,
			t.Description,
			string(t.Priority),
			t.DueDate.Format(model.DueDateLayout),
			string(t.Status),
			t.AssignedTo,
			strings.Join(t.Tags, ", "),
		}
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(quoted, ","))
	}
	return strings.Join(lines, "\n")
}
