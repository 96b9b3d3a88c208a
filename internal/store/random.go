package store

import (
	"fmt"
	"strings"

	"oblik/internal/entity"
)

// RandomInstances возвращает до count случайных записей сущности.
// Аналог выборки по случайному первичному ключу: id перетасовываются,
// берутся первые count. count <= 0 означает «все, в случайном порядке».
func (s *Storage) RandomInstances(fqn string, count int) ([]*entity.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.Schemas[fqn]; !ok {
		return nil, fmt.Errorf("store: unknown entity %q", fqn)
	}

	byID := s.Data[fqn]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	s.rndMu.Lock()
	s.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	s.rndMu.Unlock()

	if count <= 0 || count > len(ids) {
		count = len(ids)
	}
	out := make([]*entity.Instance, 0, count)
	for _, id := range ids[:count] {
		out = append(out, byID[id])
	}
	return out, nil
}

// GetOrNil возвращает первую запись, у которой совпали все пары поле→значение,
// либо nil, если такой нет. Сравнение по строковому представлению.
func (s *Storage) GetOrNil(fqn string, match map[string]any) *entity.Instance {
	for _, inst := range s.List(fqn) {
		ok := true
		for field, want := range match {
			got, has := inst.Data[field]
			if !has || stringify(got) != stringify(want) {
				ok = false
				break
			}
		}
		if ok {
			return inst
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
