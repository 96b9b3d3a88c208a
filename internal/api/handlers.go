package api

import (
	"net/http"
	"strconv"

	"oblik/internal/projection"
	"oblik/internal/store"

	"github.com/gin-gonic/gin"
)

// POST /api/:module/:entity
func CreateHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		schema, _ := st.Schema(fqn)

		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		if errs := ValidateAgainstSchema(st, schema, obj); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}

		inst, err := st.NewInstance(fqn, obj)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": inst.ID})
	}
}

// GET /api/:module/:entity/:id?view=simple|full
// Отдаёт проекцию записи; режим передаётся параметром, а не состоянием.
func InfoHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		inst, found := st.Get(fqn, c.Param("id"))
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}

		mode := projection.ParseMode(c.Query("view"))
		out := projection.Project(inst, projection.FieldsFor(inst.Schema, mode), mode)
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/:module/:entity?view=&_limit=&_offset=&_sort=&<field>=<value>
func ListInfoHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}

		all := st.List(fqn)
		lp := parseListParams(c.Request.URL.Query())
		filtered := filterEquals(all, lp.Filters)
		sortInstancesMulti(filtered, lp.Sort)

		start := lp.Offset
		if start > len(filtered) {
			start = len(filtered)
		}
		end := start + lp.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page := filtered[start:end]

		mode := projection.ParseMode(c.Query("view"))
		out := make([]map[string]any, 0, len(page))
		for _, inst := range page {
			out = append(out, projection.Project(inst, projection.FieldsFor(inst.Schema, mode), mode))
		}
		c.Header("X-Total-Count", strconv.Itoa(len(filtered)))
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/:module/:entity/:id/_refs
// Входящие ссылки на запись: кто и через какое поле на неё указывает.
func RefsHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		id := c.Param("id")
		if !st.Exists(fqn, id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		refs := st.IncomingRefs(fqn, id)
		c.JSON(http.StatusOK, gin.H{"count": len(refs), "refs": refs})
	}
}

// GET /api/:module/:entity/_random?count=&view=
// Случайная выборка записей с проекцией.
func RandomHandler(st *store.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		fqn, ok := st.NormalizeEntityName(c.Param("module"), c.Param("entity"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}

		count := 1
		if cv := c.Query("count"); cv != "" {
			if n, err := strconv.Atoi(cv); err == nil && n > 0 && n <= 100 {
				count = n
			}
		}

		insts, err := st.RandomInstances(fqn, count)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		mode := projection.ParseMode(c.Query("view"))
		out := make([]map[string]any, 0, len(insts))
		for _, inst := range insts {
			out = append(out, projection.Project(inst, projection.FieldsFor(inst.Schema, mode), mode))
		}
		c.JSON(http.StatusOK, out)
	}
}
