package projection

import (
	"reflect"
	"strings"

	"oblik/internal/entity"
)

// CommentsKey — ключ зеркальной карты с подписями полей.
const CommentsKey = "_comments"

// FieldsFor возвращает набор полей схемы для режима.
// Пустой simple-набор откатывается к полному.
func FieldsFor(s *entity.Schema, mode Mode) entity.FieldSet {
	if mode == Full {
		return s.FullInfoFields
	}
	if len(s.SimpleInfoFields) > 0 {
		return s.SimpleInfoFields
	}
	return s.FullInfoFields
}

// FullInfo — проекция полного набора полей экземпляра.
func FullInfo(inst *entity.Instance) map[string]any {
	return Project(inst, inst.Schema.FullInfoFields, inherited(inst))
}

// SimpleInfo — проекция простого набора (с откатом к полному).
func SimpleInfo(inst *entity.Instance) map[string]any {
	return Project(inst, FieldsFor(inst.Schema, Simple), inherited(inst))
}

// AutoInfo выбирает набор по view-режиму экземпляра (по умолчанию simple).
func AutoInfo(inst *entity.Instance) map[string]any {
	mode := inherited(inst)
	return Project(inst, FieldsFor(inst.Schema, mode), mode)
}

// SetSimple / SetFull — управление view-режимом экземпляра по умолчанию.
func SetSimple(inst *entity.Instance) { inst.SetSimple() }
func SetFull(inst *entity.Instance)   { inst.SetFull() }

// inherited читает режим экземпляра один раз, на входе в проекцию.
func inherited(inst *entity.Instance) Mode {
	if inst.FullView() {
		return Full
	}
	return Simple
}

// Project обходит набор полей по порядку и собирает вложенную карту.
// Отсутствующие атрибуты молча пропускаются (один кривой элемент набора не
// валит сериализацию остальных); пустые значения дают null без
// разворачивания связей. Если схема включает комментарии, под ключом
// _comments лежит зеркальная карта подписей.
func Project(inst *entity.Instance, fs entity.FieldSet, mode Mode) map[string]any {
	res := map[string]any{}
	var comments map[string]any
	if inst.Schema.ShowComments {
		comments = map[string]any{}
	}
	projectInto(inst, fs, mode, res, comments)
	if comments != nil {
		res[CommentsKey] = comments
	}
	return res
}

func projectInto(inst *entity.Instance, fs entity.FieldSet, mode Mode, res, comments map[string]any) {
	for _, t := range fs {
		if t.Group != "" {
			// группа: вложенные элементы разрешаются против того же экземпляра
			sub := map[string]any{}
			var subComments map[string]any
			if comments != nil {
				subComments = map[string]any{}
			}
			projectInto(inst, t.Items, mode, sub, subComments)
			res[t.Group] = sub
			if comments != nil {
				comments[t.Group] = subComments
			}
			continue
		}
		key, val, label, ok := resolveField(inst, t.Name, mode)
		if !ok {
			continue
		}
		res[key] = val
		if comments != nil {
			comments[key] = label
		}
	}
}

// resolveField разрешает один элемент набора против экземпляра.
// ok=false означает «атрибута нет вовсе» — поле пропускается целиком.
func resolveField(inst *entity.Instance, name string, mode Mode) (key string, val any, label string, ok bool) {
	qualifier := ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name, qualifier = name[:i], name[i+1:]
	}
	switch qualifier {
	case "full":
		mode = Full
	case "simple":
		mode = Simple
	}

	f := inst.Schema.FindField(name)
	if f != nil {
		label = f.Verbose
	}

	v, exists := inst.Get(name)
	if !exists {
		return "", nil, "", false
	}
	key = name

	// Пустое значение обрывает обработку до разворачивания связей.
	if isEmpty(v) {
		return key, nil, label, true
	}

	// Вычисляемое значение: переименование, подпись, вызов без аргументов.
	if c, isCallable := v.(entity.Callable); isCallable {
		if n := c.DeclaredName(); n != "" {
			key = n
		}
		if d := c.ShortDescription(); d != "" {
			label = d
		}
		return key, c.Call(), label, true
	}

	switch classify(f, v) {
	case entity.ToOne:
		rel, isInst := v.(*entity.Instance)
		if !isInst {
			return key, v, label, true
		}
		if qualifier != "" && qualifier != "simple" && qualifier != "full" {
			// квалификатор-атрибут: читаем поле связанной записи напрямую,
			// без рекурсивной проекции
			av, found := rel.Get(qualifier)
			if !found {
				return key, nil, label, true
			}
			if c, isCallable := av.(entity.Callable); isCallable {
				av = c.Call()
			}
			return key, av, label, true
		}
		return key, Project(rel, FieldsFor(rel.Schema, mode), mode), label, true

	case entity.ToMany:
		set := v.(entity.RelatedSet)
		children := set.All()
		out := make([]any, 0, len(children))
		for _, child := range children {
			out = append(out, Project(child, FieldsFor(child.Schema, mode), mode))
		}
		return key, out, label, true
	}

	// Обычное значение; func() any вызывается как вычисляемое поле.
	if fn, isFn := v.(func() any); isFn {
		return key, fn(), label, true
	}
	return key, v, label, true
}

// isEmpty — аналог «пустого» значения: nil, пустая строка, ноль, false,
// пустые срезы и карты. Коллекция связанных записей — контейнер, пустой
// она не считается (пустой to-many проецируется в пустой массив).
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
