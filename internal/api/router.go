// api/router.go
package api

import (
	"oblik/internal/store"

	"github.com/gin-gonic/gin"
)

// BuildRouter собирает маршруты поверх хранилища.
func BuildRouter(st *store.Storage) *gin.Engine {
	r := gin.Default()

	r.GET("/api/meta", MetaListHandler(st))
	r.GET("/api/meta/:module/:entity", MetaEntityHandler(st))
	r.POST("/api/admin/reload", AdminReloadHandler(st))

	apiGroup := r.Group("/api")
	{
		// служебные маршруты — СНАЧАЛА
		apiGroup.GET("/:module/:entity/_random", RandomHandler(st))

		apiGroup.POST("/:module/:entity", CreateHandler(st))
		apiGroup.GET("/:module/:entity", ListInfoHandler(st))
		apiGroup.GET("/:module/:entity/:id", InfoHandler(st))
		apiGroup.GET("/:module/:entity/:id/_refs", RefsHandler(st))
	}

	return r
}

func RunServer(addr string, st *store.Storage) {
	_ = BuildRouter(st).Run(addr)
}
