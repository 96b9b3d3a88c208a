package store

import "sort"

// Row — одна запись в выгрузке хранилища (для снапшота).
type Row struct {
	Entity string
	ID     string
	Data   map[string]any
}

// Dump выгружает все записи в стабильном порядке (entity, id).
func (s *Storage) Dump() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Row
	for fqn, byID := range s.Data {
		for id, inst := range byID {
			out = append(out, Row{Entity: fqn, ID: id, Data: inst.Data})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
