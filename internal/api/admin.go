package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"oblik/internal/dsl"
	"oblik/internal/store"
	"oblik/internal/views"

	"github.com/gin-gonic/gin"
)

type reloadReq struct {
	DSLRoot   string `json:"dsl_root"`   // директория с *.dsl
	ViewsRoot string `json:"views_root"` // директория с view-описаниями
}

// AdminReloadHandler перечитывает DSL и view-каталог. Новые схемы проходят
// линт на временном хранилище; при блокирующих проблемах подмена не делается.
func AdminReloadHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		// пустое тело допустимо — берутся директории по умолчанию
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		dslRoot := strings.TrimSpace(req.DSLRoot)
		if dslRoot == "" {
			dslRoot = "dsl"
		}
		viewsRoot := strings.TrimSpace(req.ViewsRoot)
		if viewsRoot == "" {
			viewsRoot = "views"
		}

		// 1) читаем новые схемы и view-описания
		newSchemas, err := dsl.LoadAll(dslRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "DSL load error", "details": err.Error()})
			return
		}
		catalog, err := views.LoadCatalog(viewsRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Views load error", "details": err.Error()})
			return
		}
		if err := views.Apply(newSchemas, catalog); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Views apply error", "details": err.Error()})
			return
		}

		// 2) линт на временном хранилище
		tmp := store.NewStorage(newSchemas)
		if issues := Lint(tmp); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "schema has blocking issues",
				"issues": issues,
				"hint":   "fix DSL/views and retry",
				"dslRoot": dslRoot, "viewsRoot": viewsRoot,
			})
			return
		}

		// 3) атомарная замена
		st.ReplaceSchemas(newSchemas)

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"dslRoot":   dslRoot,
			"viewsRoot": viewsRoot,
			"entities":  len(newSchemas),
			"views":     len(catalog),
		})
	}
}
