// Package state holds the in-memory authoritative schedule list for the
// current owner and the pure transition function that mutates it.
package state

import "github.com/hogarlabs/domoctl/internal/model"

type ActionType string

const (
	ActionSetAll ActionType = "SET_ALL"
	ActionAdd    ActionType = "ADD"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

// Action is one reducer input. Schedule carries the payload for ADD/UPDATE,
// List for SET_ALL, and ID for DELETE.
type Action struct {
	Type     ActionType
	Schedule model.Schedule
	List     []model.Schedule
	ID       string
}

func SetAll(list []model.Schedule) Action { return Action{Type: ActionSetAll, List: list} }
func Add(s model.Schedule) Action         { return Action{Type: ActionAdd, Schedule: s} }
func Update(s model.Schedule) Action      { return Action{Type: ActionUpdate, Schedule: s} }
func Delete(id string) Action             { return Action{Type: ActionDelete, ID: id} }

// Reduce applies one action and returns a fresh list; the input slice is
// never mutated, so callers may hold snapshots across transitions.
func Reduce(current []model.Schedule, action Action) []model.Schedule {
	switch action.Type {
	case ActionSetAll:
		out := make([]model.Schedule, len(action.List))
		copy(out, action.List)
		return out
	case ActionAdd:
		out := make([]model.Schedule, 0, len(current)+1)
		out = append(out, current...)
		return append(out, action.Schedule)
	case ActionUpdate:
		out := make([]model.Schedule, len(current))
		for i, s := range current {
			if s.ID == action.Schedule.ID {
				out[i] = action.Schedule
			} else {
				out[i] = s
			}
		}
		return out
	case ActionDelete:
		out := make([]model.Schedule, 0, len(current))
		for _, s := range current {
			if s.ID != action.ID {
				out = append(out, s)
			}
		}
		return out
	default:
		out := make([]model.Schedule, len(current))
		copy(out, current)
		return out
	}
}
