package store

import "strings"

// NormalizeEntityName возвращает FQN ("module.Name") по паре {module, entity}.
// Если module пустой, а name содержит точку, имя трактуется как FQN.
// Если модуля нет вовсе — ищется единственная сущность с таким именем
// среди всех модулей.
func (s *Storage) NormalizeEntityName(module, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.normalizeLocked(module, name)
}

// normalizeLocked — тело поиска; вызывается под уже взятым mu.
func (s *Storage) normalizeLocked(module, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if module == "" && strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		module, name = parts[0], parts[1]
	}

	ml := strings.ToLower(strings.TrimSpace(module))
	nl := strings.ToLower(strings.TrimSpace(name))

	// 1) есть модуль — ищем точное/регистронезависимое совпадение FQN
	if ml != "" {
		if _, ok := s.Schemas[module+"."+name]; ok {
			return module + "." + name, true
		}
		for fqn := range s.Schemas {
			dot := strings.IndexByte(fqn, '.')
			if dot <= 0 {
				continue
			}
			fm, fn := fqn[:dot], fqn[dot+1:]
			if strings.ToLower(fm) == ml && strings.ToLower(fn) == nl {
				return fqn, true
			}
		}
		return "", false
	}

	// 2) модуля нет — имя должно быть уникально среди всех модулей
	var found string
	for fqn := range s.Schemas {
		dot := strings.IndexByte(fqn, '.')
		if dot <= 0 {
			continue
		}
		fn := fqn[dot+1:]
		if strings.ToLower(fn) == nl {
			if found != "" { // неуникально
				return "", false
			}
			found = fqn
		}
	}
	if found != "" {
		return found, true
	}
	return "", false
}
