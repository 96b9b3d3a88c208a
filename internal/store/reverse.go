package store

import (
	"sort"

	"oblik/internal/entity"
)

// IncomingRef — входящая ссылка: запись какой сущности и через какое поле
// указывает на цель.
type IncomingRef struct {
	Entity string `json:"entity"` // FQN ссылающейся сущности
	Field  string `json:"field"`
	ID     string `json:"id"` // id ссылающейся записи
}

// IncomingRefs возвращает все входящие ссылки на запись (targetFQN, targetID):
// одиночные (to-one) и из коллекций (to-many). Порядок стабильный.
func (s *Storage) IncomingRefs(targetFQN, targetID string) []IncomingRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []IncomingRef
	for refFQN, schema := range s.Schemas {
		byID := s.Data[refFQN]
		if len(byID) == 0 {
			continue
		}
		for _, f := range schema.OrderedFields() {
			if f.Kind == entity.Plain || f.RefTarget == "" {
				continue
			}
			wantFQN, ok := s.normalizeLocked("", f.RefTarget)
			if !ok || wantFQN != targetFQN {
				continue
			}
			for id, inst := range byID {
				v, has := inst.Data[f.Name]
				if !has {
					continue
				}
				switch f.Kind {
				case entity.ToOne:
					if rid, _ := v.(string); rid == targetID {
						out = append(out, IncomingRef{Entity: refFQN, Field: f.Name, ID: id})
					}
				case entity.ToMany:
					for _, rid := range toIDStrings(v) {
						if rid == targetID {
							out = append(out, IncomingRef{Entity: refFQN, Field: f.Name, ID: id})
							break
						}
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func toIDStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
