package api

import (
	"net/http"
	"strings"

	"oblik/internal/entity"
	"oblik/internal/store"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaEntityListItem struct {
	Module string `json:"module"`
	Entity string `json:"entity"`
}

func MetaListHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqns := st.SchemaList()
		out := make([]metaEntityListItem, 0, len(fqns))
		for _, fqn := range fqns {
			mod, ent := splitFQN(fqn)
			out = append(out, metaEntityListItem{Module: mod, Entity: ent})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaField struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Type     string `json:"type,omitempty"`
	Ref      string `json:"ref,omitempty"`
	RefFQN   string `json:"refFQN,omitempty"`
	Verbose  string `json:"verbose,omitempty"`
	Required bool   `json:"required,omitempty"`
	Order    int    `json:"order"`
}

type metaEntity struct {
	Module       string      `json:"module"`
	Entity       string      `json:"entity"`
	Fields       []metaField `json:"fields"`
	Methods      []string    `json:"methods,omitempty"`
	ShowComments bool        `json:"showComments,omitempty"`
	FullInfo     []any       `json:"fullInfo,omitempty"`
	SimpleInfo   []any       `json:"simpleInfo,omitempty"`
}

// MetaEntityHandler отдаёт актуальную схему: поля в порядке объявления
// (включая пропатченные), методы и наборы полей проекций.
func MetaEntityHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		schema, _ := st.Schema(fqn)

		ordered := schema.OrderedFields()
		fields := make([]metaField, 0, len(ordered))
		for _, f := range ordered {
			refFQN := ""
			if f.RefTarget != "" {
				if full, ok := st.NormalizeEntityName("", f.RefTarget); ok {
					refFQN = full
				}
			}
			fields = append(fields, metaField{
				Name:     f.Name,
				Kind:     f.Kind.String(),
				Type:     f.Type,
				Ref:      f.RefTarget,
				RefFQN:   refFQN,
				Verbose:  f.Verbose,
				Required: f.Required,
				Order:    f.DeclarationOrder,
			})
		}

		mod, ent := splitFQN(fqn)
		c.JSON(http.StatusOK, metaEntity{
			Module:       mod,
			Entity:       ent,
			Fields:       fields,
			Methods:      schema.MethodNames(),
			ShowComments: schema.ShowComments,
			FullInfo:     termsToAny(schema.FullInfoFields),
			SimpleInfo:   termsToAny(schema.SimpleInfoFields),
		})
	}
}

// termsToAny приводит набор полей к JSON-представлению:
// имя — строкой, группа — объектом с одним ключом.
func termsToAny(fs entity.FieldSet) []any {
	if len(fs) == 0 {
		return nil
	}
	out := make([]any, 0, len(fs))
	for _, t := range fs {
		if t.Group != "" {
			out = append(out, map[string]any{t.Group: termsToAny(t.Items)})
			continue
		}
		out = append(out, t.Name)
	}
	return out
}

// splitFQN("module.Entity") -> ("module","Entity")
func splitFQN(fqn string) (string, string) {
	i := strings.IndexByte(fqn, '.')
	if i <= 0 || i >= len(fqn)-1 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}
