package entity

import (
	"fmt"
	"sort"
)

// Schema — набор объявленных полей и методов одной сущности.
// Поля лежат в двух упорядоченных списках: обычные (включая to-one ссылки)
// и many-to-many. Инвариант: имя поля уникально в пределах обоих списков.
type Schema struct {
	Module string
	Name   string

	Fields     []*FieldDescriptor
	ManyToMany []*FieldDescriptor

	Methods map[string]*Method

	// Классовая конфигурация проекций (наборы полей и режим комментариев).
	FullInfoFields   FieldSet
	SimpleInfoFields FieldSet
	ShowComments     bool

	nextOrder int
}

func NewSchema(module, name string) *Schema {
	return &Schema{Module: module, Name: name, Methods: map[string]*Method{}}
}

func (s *Schema) FQN() string { return s.Module + "." + s.Name }

// NextOrder выдаёт очередной счётчик объявления. Счёт идёт с 1,
// ноль означает «порядок ещё не присвоен».
func (s *Schema) NextOrder() int {
	s.nextOrder++
	return s.nextOrder
}

// AddField добавляет дескриптор в список, соответствующий его kind'у.
// Дескриптор без порядка получает свежий счётчик.
func (s *Schema) AddField(fd *FieldDescriptor) error {
	if fd == nil || fd.Name == "" {
		return fmt.Errorf("entity %s: empty field descriptor", s.FQN())
	}
	if s.FindField(fd.Name) != nil {
		return fmt.Errorf("entity %s: duplicate field %q", s.FQN(), fd.Name)
	}
	if fd.DeclarationOrder == 0 {
		fd.DeclarationOrder = s.NextOrder()
	} else if fd.DeclarationOrder > s.nextOrder {
		s.nextOrder = fd.DeclarationOrder
	}
	if fd.Kind == ToMany {
		s.ManyToMany = append(s.ManyToMany, fd)
	} else {
		s.Fields = append(s.Fields, fd)
	}
	return nil
}

// AttachMethod кладёт метод в таблицу под его собственным именем.
func (s *Schema) AttachMethod(m *Method) error {
	if m == nil || m.Name == "" || m.Fn == nil {
		return fmt.Errorf("entity %s: empty method", s.FQN())
	}
	s.Methods[m.Name] = m
	return nil
}

// FindField ищет дескриптор по имени в обоих списках.
func (s *Schema) FindField(name string) *FieldDescriptor {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, f := range s.ManyToMany {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TakeField удаляет дескриптор с данным именем из списка соответствующего
// kind'а и возвращает его. Список другого kind'а не трогается.
func (s *Schema) TakeField(name string, k Kind) (*FieldDescriptor, bool) {
	list := &s.Fields
	if k == ToMany {
		list = &s.ManyToMany
	}
	for i, f := range *list {
		if f.Name == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return f, true
		}
	}
	return nil, false
}

// OrderedFields возвращает оба списка одним срезом, отсортированным по
// DeclarationOrder (порядок колонок).
func (s *Schema) OrderedFields() []*FieldDescriptor {
	out := make([]*FieldDescriptor, 0, len(s.Fields)+len(s.ManyToMany))
	out = append(out, s.Fields...)
	out = append(out, s.ManyToMany...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeclarationOrder < out[j].DeclarationOrder
	})
	return out
}

// MethodNames — отсортированные имена методов (для меты).
func (s *Schema) MethodNames() []string {
	out := make([]string, 0, len(s.Methods))
	for name := range s.Methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone возвращает копию схемы с собственными списками и таблицей методов.
// Сами дескрипторы и методы не копируются: после патча они либо остаются
// общими, либо заменяются новыми объектами.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		Module:           s.Module,
		Name:             s.Name,
		Fields:           append([]*FieldDescriptor(nil), s.Fields...),
		ManyToMany:       append([]*FieldDescriptor(nil), s.ManyToMany...),
		Methods:          make(map[string]*Method, len(s.Methods)),
		FullInfoFields:   s.FullInfoFields,
		SimpleInfoFields: s.SimpleInfoFields,
		ShowComments:     s.ShowComments,
		nextOrder:        s.nextOrder,
	}
	for k, v := range s.Methods {
		out.Methods[k] = v
	}
	return out
}
