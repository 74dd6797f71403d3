package views

import (
	"fmt"
	"strings"
)

type ScheduleCardData struct {
	Name          string
	Days          string
	Repeat        string
	Active        bool
	Selected      bool
	Triggers      []string
	Upcoming      []string
	LastTriggered string
}

type ScheduleFormData struct {
	Editing  bool
	NameView string
	TimeView string
	Mode     string
	Days     string
	Repeat   string
	Device   string
	Errors   []string
	Warnings []string
}

type TasksPanelData struct {
	TableView     string
	SearchView    string
	SearchActive  bool
	Search        string
	Priority      string
	Status        string
	Sort          string
	SelectedCount int
	Total         int
	Visible       int
}

type TaskFormData struct {
	Editing      bool
	NameView     string
	DueView      string
	AssigneeView string
	TagsView     string
	Priority     string
	Errors       []string
}

type DeviceData struct {
	ID     string
	Name   string
	Type   string
	Status string
}

type ToastData struct {
	Message string
	Level   string
	At      string
}

func RenderSchedulesPanel(cards []ScheduleCardData) string {
	var b strings.Builder
	b.WriteString("horarios:\n")
	b.WriteString("acciones: [n]nuevo [e]editar [a]activar [d]eliminar [j/k]mover\n")
	if len(cards) == 0 {
		b.WriteString("(sin horarios)")
		return b.String()
	}
	for _, card := range cards {
		cursor := " "
		if card.Selected {
			cursor = ">"
		}
		marker := "●"
		if !card.Active {
			marker = "○"
		}
		line := fmt.Sprintf("%s %s %s [%s | %s]", cursor, marker, card.Name, card.Days, card.Repeat)
		if !card.Active {
			line = inactiveStyle.Render(line)
		}
		b.WriteString(line + "\n")
		for _, trigger := range card.Triggers {
			b.WriteString("    " + trigger + "\n")
		}
		if card.LastTriggered != "" {
			b.WriteString("    última ejecución: " + card.LastTriggered + "\n")
		}
		if len(card.Upcoming) > 0 {
			b.WriteString("    próximas:\n")
			for _, u := range card.Upcoming {
				b.WriteString("      " + u + "\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderScheduleForm(data ScheduleFormData) string {
	var b strings.Builder
	if data.Editing {
		b.WriteString("editar horario:\n")
	} else {
		b.WriteString("nuevo horario:\n")
	}
	b.WriteString(data.NameView + "\n")
	b.WriteString(data.TimeView + "\n")
	b.WriteString(fmt.Sprintf("modo: %s | días: %s | repetir: %s\n", data.Mode, data.Days, data.Repeat))
	b.WriteString(fmt.Sprintf("dispositivo: %s\n", data.Device))
	b.WriteString("acciones: [tab]campo [ctrl+t]modo [ctrl+d]días [ctrl+r]repetir [ctrl+n]dispositivo [ctrl+s]borrador [enter]guardar [esc]cancelar\n")
	for _, line := range data.Errors {
		b.WriteString(errorStyle.Render("✗ "+line) + "\n")
	}
	for _, line := range data.Warnings {
		b.WriteString(warnStyle.Render("! "+line) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString("tareas:\n")
	b.WriteString("acciones: [n]nueva [e]editar [espacio]marcar [d]eliminar [b]completar [c]clonar [o/O]orden [p/P]filtros [/]buscar [E]exportar\n")
	if data.SearchActive {
		b.WriteString(data.SearchView + "\n")
	}
	filters := make([]string, 0, 3)
	if data.Search != "" {
		filters = append(filters, "buscar="+data.Search)
	}
	if data.Priority != "" {
		filters = append(filters, "prioridad="+data.Priority)
	}
	if data.Status != "" {
		filters = append(filters, "estado="+data.Status)
	}
	filterLine := "sin filtros"
	if len(filters) > 0 {
		filterLine = strings.Join(filters, " | ")
	}
	b.WriteString(fmt.Sprintf("filtros: %s | orden: %s\n", filterLine, data.Sort))
	b.WriteString(fmt.Sprintf("mostrando %d de %d | marcadas: %d\n", data.Visible, data.Total, data.SelectedCount))
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderTaskForm(data TaskFormData) string {
	var b strings.Builder
	if data.Editing {
		b.WriteString("editar tarea:\n")
	} else {
		b.WriteString("nueva tarea:\n")
	}
	b.WriteString(data.NameView + "\n")
	b.WriteString(data.DueView + "\n")
	b.WriteString(data.AssigneeView + "\n")
	b.WriteString(data.TagsView + "\n")
	b.WriteString(fmt.Sprintf("prioridad: %s\n", data.Priority))
	b.WriteString("acciones: [tab]campo [ctrl+p]prioridad [enter]guardar [esc]cancelar\n")
	for _, line := range data.Errors {
		b.WriteString(errorStyle.Render("✗ "+line) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderDevicesPanel(devices []DeviceData) string {
	var b strings.Builder
	b.WriteString("dispositivos:\n")
	if len(devices) == 0 {
		b.WriteString("(registro vacío)")
		return b.String()
	}
	for _, d := range devices {
		b.WriteString(fmt.Sprintf("%s (%s) tipo=%s estado=%s\n", d.Name, d.ID, d.Type, d.Status))
	}
	return strings.TrimSpace(b.String())
}

func RenderToasts(toasts []ToastData) string {
	lines := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		line := fmt.Sprintf("%s %s", toast.At, toast.Message)
		switch toast.Level {
		case "error":
			line = errorStyle.Render(line)
		case "warn":
			line = warnStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

const helpMarkdown = `# domoctl

## Horarios
- **n** crea un horario, **e** lo edita, **a** lo activa o desactiva, **d** lo elimina.
- Cada horario enciende sus dispositivos a la hora indicada, o dentro del rango, en los días del patrón.
- Un horario de repetición *once* se desactiva solo tras la primera ejecución.

## Tareas
- **n** crea una tarea; **espacio** marca varias para operaciones en bloque.
- **b** completa, **d** elimina, **c** clona, **E** exporta a CSV.
- **/** busca por nombre, asignado o etiquetas; **p**/**P** filtran por prioridad y estado.

## Dispositivos
- Registro de solo lectura de los aparatos controlables.
`

func RenderHelpPanel(currentView string) string {
	return "ayuda (" + currentView + "):\n" + RenderMarkdown(helpMarkdown)
}
