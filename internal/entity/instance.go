package entity

// Source разрешает ссылки между сущностями. Реализуется хранилищем.
// target — имя целевой сущности (FQN или короткое, на усмотрение хранилища).
type Source interface {
	One(target, id string) (*Instance, bool)
	Many(target string, ids []string) []*Instance
}

// RelatedSet — коллекция связанных экземпляров (значение to-many поля).
type RelatedSet interface {
	All() []*Instance
}

// Instance — запись сущности: значения полей плюс привязка к схеме.
type Instance struct {
	ID     string
	Schema *Schema
	Data   map[string]any

	src      Source
	fullView bool
}

func NewInstance(id string, schema *Schema, data map[string]any, src Source) *Instance {
	if data == nil {
		data = map[string]any{}
	}
	return &Instance{ID: id, Schema: schema, Data: data, src: src}
}

// SetFull / SetSimple задают view-режим экземпляра по умолчанию.
// Режим читается ровно один раз — на входе в AutoInfo; внутри обхода
// проекция передаёт его явным параметром и сюда не заглядывает.
func (i *Instance) SetFull()       { i.fullView = true }
func (i *Instance) SetSimple()     { i.fullView = false }
func (i *Instance) FullView() bool { return i.fullView }

// Rebind переключает экземпляр на новую версию схемы (после патча).
func (i *Instance) Rebind(s *Schema) { i.Schema = s }

// Get возвращает значение атрибута по имени. Значения полей имеют приоритет
// над методами схемы. Ссылочные поля разворачиваются: to-one — в *Instance
// (nil, если ссылка пуста или не разрешилась), to-many — в RelatedSet.
// Второй результат false означает «такого атрибута нет вовсе».
func (i *Instance) Get(name string) (any, bool) {
	if v, ok := i.Data[name]; ok {
		f := i.Schema.FindField(name)
		if f == nil {
			return v, true
		}
		switch f.Kind {
		case ToOne:
			id, _ := v.(string)
			if id == "" || i.src == nil {
				return nil, true
			}
			rel, found := i.src.One(f.RefTarget, id)
			if !found {
				return nil, true
			}
			return rel, true
		case ToMany:
			return &relatedIDs{src: i.src, target: f.RefTarget, ids: toIDs(v)}, true
		}
		return v, true
	}
	if m, ok := i.Schema.Methods[name]; ok {
		return &BoundMethod{Method: m, Inst: i}, true
	}
	return nil, false
}

// relatedIDs — RelatedSet поверх хранимого списка id.
type relatedIDs struct {
	src    Source
	target string
	ids    []string
}

func (r *relatedIDs) All() []*Instance {
	if r.src == nil || len(r.ids) == 0 {
		return nil
	}
	return r.src.Many(r.target, r.ids)
}

func toIDs(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
