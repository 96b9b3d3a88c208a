package main

import (
	"context"
	"fmt"
	"log"

	"oblik/internal/api"
	"oblik/internal/config"
	"oblik/internal/dsl"
	"oblik/internal/pg"
	"oblik/internal/store"
	"oblik/internal/views"
)

func main() {
	cfg := config.LoadWithPath("config.json")

	// 1. Загружаем DSL-сущности
	schemas, err := dsl.LoadAll(cfg.DSLDir)
	if err != nil {
		log.Fatalf("Ошибка загрузки DSL: %v", err)
	}
	fmt.Printf("Загружено сущностей: %d\n", len(schemas))

	// 2. Загружаем view-описания проекций
	catalog, err := views.LoadCatalog(cfg.ViewsDir)
	if err != nil {
		log.Fatalf("Ошибка загрузки view-каталога: %v", err)
	}
	if err := views.Apply(schemas, catalog); err != nil {
		log.Fatalf("Ошибка применения view-каталога: %v", err)
	}
	fmt.Printf("Загружено view-описаний: %d\n", len(catalog))

	// 3. Инициализируем хранилище
	st := store.NewStorage(schemas)

	// Линт не блокирует старт: методы-псевдополя могут быть
	// пропатчены позже, уже после загрузки
	for _, issue := range api.Lint(st) {
		log.Printf("lint: %s.%s: %s", issue.Entity, issue.Field, issue.Message)
	}

	// 4. Опционально восстанавливаем данные из Postgres-снапшота
	if cfg.DBURL != "" {
		ctx := context.Background()
		db, err := pg.Open(ctx, cfg.DBURL)
		if err != nil {
			log.Fatalf("Ошибка подключения к Postgres: %v", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Ошибка подготовки снапшота: %v", err)
		}
		if cfg.SnapshotLoad {
			if err := pg.Load(ctx, db, st); err != nil {
				log.Fatalf("Ошибка загрузки снапшота: %v", err)
			}
		}
	}

	// 5. Запускаем REST API сервер
	fmt.Printf("Стартуем сервер Oblik на :%s...\n", cfg.Port)
	api.RunServer(":"+cfg.Port, st)
}
