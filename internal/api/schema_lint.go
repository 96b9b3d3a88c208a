package api

import (
	"fmt"

	"oblik/internal/entity"
	"oblik/internal/store"
)

type SchemaIssue struct {
	Entity  string `json:"entity"` // FQN: module.Entity
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint проверяет базовые противоречия схем: неразрешимые ссылки и
// элементы наборов полей, не являющиеся ни полем, ни методом.
func Lint(st *store.Storage) []SchemaIssue {
	var issues []SchemaIssue

	for _, fqn := range st.SchemaList() {
		schema, _ := st.Schema(fqn)

		for _, f := range schema.OrderedFields() {
			if f.Kind == entity.Plain {
				continue
			}
			if f.RefTarget == "" {
				issues = append(issues, SchemaIssue{
					Entity: fqn, Field: f.Name, Code: "ref_empty",
					Message: "relationship field has no target entity",
				})
				continue
			}
			if _, ok := st.NormalizeEntityName("", f.RefTarget); !ok {
				issues = append(issues, SchemaIssue{
					Entity: fqn, Field: f.Name, Code: "ref_unresolved",
					Message: fmt.Sprintf("target entity %q is not registered", f.RefTarget),
				})
			}
		}

		issues = append(issues, lintFieldSet(schema, "full_info", schema.FullInfoFields)...)
		issues = append(issues, lintFieldSet(schema, "simple_info", schema.SimpleInfoFields)...)
	}

	return issues
}

func lintFieldSet(schema *entity.Schema, setName string, fs entity.FieldSet) []SchemaIssue {
	var issues []SchemaIssue
	for _, name := range fs.BaseNames() {
		if schema.FindField(name) != nil {
			continue
		}
		if _, ok := schema.Methods[name]; ok {
			continue
		}
		issues = append(issues, SchemaIssue{
			Entity: schema.FQN(), Field: name, Code: "view_unknown_name",
			Message: fmt.Sprintf("%s references %q which is neither a field nor a method", setName, name),
		})
	}
	return issues
}
