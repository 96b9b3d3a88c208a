package entity

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Term — элемент набора полей: либо имя поля (возможно с квалификатором
// "name.full" / "name.simple" / "name.attr"), либо именованная группа
// вложенных элементов. Группа собирает поля того же экземпляра под
// синтетическим заголовком.
type Term struct {
	Name  string
	Group string
	Items []Term
}

// FieldSet — декларативный набор полей проекции.
type FieldSet []Term

// F и G — конструкторы для наборов, объявляемых в коде.
func F(name string) Term                 { return Term{Name: name} }
func G(group string, items ...Term) Term { return Term{Group: group, Items: items} }

// BaseNames возвращает имена полей набора без квалификаторов,
// включая вложенные группы.
func (fs FieldSet) BaseNames() []string {
	var out []string
	for _, t := range fs {
		if t.Group != "" {
			out = append(out, FieldSet(t.Items).BaseNames()...)
			continue
		}
		name := t.Name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		out = append(out, name)
	}
	return out
}

// UnmarshalYAML: скаляр — имя поля, map с единственным ключом — группа.
func (t *Term) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&t.Name)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("field set: group must have exactly one key (line %d)", node.Line)
		}
		if err := node.Content[0].Decode(&t.Group); err != nil {
			return err
		}
		return node.Content[1].Decode(&t.Items)
	}
	return fmt.Errorf("field set: unsupported element (line %d)", node.Line)
}
