package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oblik/internal/entity"
	"oblik/internal/patch"
	"oblik/internal/store"
)

func newLibrary(t *testing.T) *store.Storage {
	t.Helper()

	author := entity.NewSchema("library", "Author")
	require.NoError(t, author.AddField(&entity.FieldDescriptor{Name: "name", Type: "string"}))

	book := entity.NewSchema("library", "Book")
	require.NoError(t, book.AddField(&entity.FieldDescriptor{Name: "title", Type: "string"}))
	require.NoError(t, book.AddField(&entity.FieldDescriptor{Name: "author", Kind: entity.ToOne, Type: "ref", RefTarget: "library.Author"}))

	order := entity.NewSchema("shop", "Order")
	require.NoError(t, order.AddField(&entity.FieldDescriptor{Name: "number", Type: "string"}))

	// одноимённая сущность в другом модуле — для проверки неоднозначности
	shopAuthor := entity.NewSchema("shop", "Author")
	require.NoError(t, shopAuthor.AddField(&entity.FieldDescriptor{Name: "name", Type: "string"}))

	return store.NewStorage(map[string]*entity.Schema{
		"library.Author": author,
		"library.Book":   book,
		"shop.Order":     order,
		"shop.Author":    shopAuthor,
	})
}

func TestNewInstanceAndListOrder(t *testing.T) {
	st := newLibrary(t)

	a, err := st.NewInstance("library.Author", map[string]any{"name": "Чехов"})
	require.NoError(t, err)
	b, err := st.NewInstance("library.Author", map[string]any{"name": "Гоголь"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list := st.List("library.Author")
	require.Len(t, list, 2)
	// ULID монотонный: порядок списка совпадает с порядком создания
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	_, err = st.NewInstance("library.Ghost", nil)
	require.Error(t, err)
}

func TestInstanceResolvesRefsThroughStorage(t *testing.T) {
	st := newLibrary(t)

	a, err := st.NewInstance("library.Author", map[string]any{"name": "Чехов"})
	require.NoError(t, err)
	b, err := st.NewInstance("library.Book", map[string]any{"title": "Чайка", "author": a.ID})
	require.NoError(t, err)

	v, ok := b.Get("author")
	require.True(t, ok)
	rel, isInst := v.(*entity.Instance)
	require.True(t, isInst)
	assert.Equal(t, a.ID, rel.ID)
}

func TestNormalizeEntityName(t *testing.T) {
	st := newLibrary(t)

	cases := []struct {
		module, name string
		want         string
		ok           bool
	}{
		{"library", "Book", "library.Book", true},
		{"LIBRARY", "book", "library.Book", true}, // регистр не важен
		{"", "library.Book", "library.Book", true}, // FQN одной строкой
		{"", "Book", "library.Book", true},         // уникальное короткое имя
		{"", "Author", "", false},                  // есть в двух модулях
		{"", "Ghost", "", false},
		{"library", "Ghost", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		got, ok := st.NormalizeEntityName(c.module, c.name)
		assert.Equal(t, c.ok, ok, "module=%q name=%q", c.module, c.name)
		if c.ok {
			assert.Equal(t, c.want, got, "module=%q name=%q", c.module, c.name)
		}
	}
}

func TestRandomInstances(t *testing.T) {
	st := newLibrary(t)
	for i := 0; i < 10; i++ {
		_, err := st.NewInstance("shop.Order", map[string]any{"number": i})
		require.NoError(t, err)
	}

	out, err := st.RandomInstances("shop.Order", 3)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	// count <= 0 — все записи
	out, err = st.RandomInstances("shop.Order", 0)
	require.NoError(t, err)
	assert.Len(t, out, 10)

	// count больше имеющегося — не ошибка
	out, err = st.RandomInstances("shop.Order", 100)
	require.NoError(t, err)
	assert.Len(t, out, 10)

	_, err = st.RandomInstances("shop.Ghost", 1)
	require.Error(t, err)
}

func TestRandomInstancesConcurrent(t *testing.T) {
	st := newLibrary(t)
	for i := 0; i < 20; i++ {
		_, err := st.NewInstance("shop.Order", map[string]any{"number": i})
		require.NoError(t, err)
	}

	// конкурентные выборки не должны гонять общий генератор (go test -race)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				out, err := st.RandomInstances("shop.Order", 3)
				if err != nil {
					t.Errorf("RandomInstances: %v", err)
					return
				}
				if len(out) != 3 {
					t.Errorf("RandomInstances: got %d records, want 3", len(out))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGetOrNil(t *testing.T) {
	st := newLibrary(t)
	_, err := st.NewInstance("library.Author", map[string]any{"name": "Чехов"})
	require.NoError(t, err)

	inst := st.GetOrNil("library.Author", map[string]any{"name": "Чехов"})
	require.NotNil(t, inst)
	assert.Equal(t, "Чехов", inst.Data["name"])

	assert.Nil(t, st.GetOrNil("library.Author", map[string]any{"name": "Тургенев"}))
	assert.Nil(t, st.GetOrNil("library.Author", map[string]any{"no_such": "x"}))
}

func TestPatchEntityRebindsLiveInstances(t *testing.T) {
	st := newLibrary(t)
	b, err := st.NewInstance("library.Book", map[string]any{"title": "Чайка"})
	require.NoError(t, err)
	oldSchema := b.Schema

	patched, err := st.PatchEntity("library.Book", patch.New().
		Field(&entity.FieldDescriptor{Name: "pages", Type: "int"}).
		Func("display", func(i *entity.Instance) any { return i.Data["title"] }))
	require.NoError(t, err)

	// живая запись видит новую версию схемы
	assert.Same(t, patched, b.Schema)
	assert.NotSame(t, oldSchema, b.Schema)

	v, ok := b.Get("display")
	require.True(t, ok)
	assert.Equal(t, "Чайка", v.(entity.Callable).Call())

	// реестр тоже обновлён
	cur, ok := st.Schema("library.Book")
	require.True(t, ok)
	assert.NotNil(t, cur.FindField("pages"))
}

func TestReplaceSchemasDropsVanishedEntities(t *testing.T) {
	st := newLibrary(t)
	_, err := st.NewInstance("shop.Order", map[string]any{"number": "1"})
	require.NoError(t, err)
	b, err := st.NewInstance("library.Book", map[string]any{"title": "Чайка"})
	require.NoError(t, err)

	newBook := entity.NewSchema("library", "Book")
	require.NoError(t, newBook.AddField(&entity.FieldDescriptor{Name: "title", Type: "string"}))
	st.ReplaceSchemas(map[string]*entity.Schema{"library.Book": newBook})

	assert.Equal(t, []string{"library.Book"}, st.SchemaList())
	assert.Empty(t, st.List("shop.Order"))
	assert.Same(t, newBook, b.Schema)
}

func TestIncomingRefs(t *testing.T) {
	st := newLibrary(t)

	a, err := st.NewInstance("library.Author", map[string]any{"name": "Чехов"})
	require.NoError(t, err)
	b1, err := st.NewInstance("library.Book", map[string]any{"title": "Чайка", "author": a.ID})
	require.NoError(t, err)
	b2, err := st.NewInstance("library.Book", map[string]any{"title": "Иванов", "author": a.ID})
	require.NoError(t, err)
	_, err = st.NewInstance("library.Book", map[string]any{"title": "Без автора"})
	require.NoError(t, err)

	refs := st.IncomingRefs("library.Author", a.ID)
	require.Len(t, refs, 2)
	assert.Equal(t, "library.Book", refs[0].Entity)
	assert.Equal(t, "author", refs[0].Field)
	// порядок стабильный: по id ссылающихся записей
	assert.Equal(t, b1.ID, refs[0].ID)
	assert.Equal(t, b2.ID, refs[1].ID)

	assert.Empty(t, st.IncomingRefs("library.Book", b1.ID))
}

func TestIncomingRefsThroughCollections(t *testing.T) {
	tag := entity.NewSchema("library", "Tag")
	require.NoError(t, tag.AddField(&entity.FieldDescriptor{Name: "label", Type: "string"}))
	book := entity.NewSchema("library", "Book")
	require.NoError(t, book.AddField(&entity.FieldDescriptor{Name: "title", Type: "string"}))
	require.NoError(t, book.AddField(&entity.FieldDescriptor{Name: "tags", Kind: entity.ToMany, Type: "array[ref]", RefTarget: "library.Tag"}))
	st := store.NewStorage(map[string]*entity.Schema{"library.Tag": tag, "library.Book": book})

	tg, err := st.NewInstance("library.Tag", map[string]any{"label": "роман"})
	require.NoError(t, err)
	b, err := st.NewInstance("library.Book", map[string]any{"title": "Чайка", "tags": []string{tg.ID}})
	require.NoError(t, err)

	refs := st.IncomingRefs("library.Tag", tg.ID)
	require.Len(t, refs, 1)
	assert.Equal(t, "tags", refs[0].Field)
	assert.Equal(t, b.ID, refs[0].ID)
}

func TestDumpStableOrder(t *testing.T) {
	st := newLibrary(t)
	_, err := st.NewInstance("shop.Order", map[string]any{"number": "1"})
	require.NoError(t, err)
	a1, err := st.NewInstance("library.Author", map[string]any{"name": "Чехов"})
	require.NoError(t, err)
	a2, err := st.NewInstance("library.Author", map[string]any{"name": "Гоголь"})
	require.NoError(t, err)

	rows := st.Dump()
	require.Len(t, rows, 3)
	assert.Equal(t, "library.Author", rows[0].Entity)
	assert.Equal(t, a1.ID, rows[0].ID)
	assert.Equal(t, a2.ID, rows[1].ID)
	assert.Equal(t, "shop.Order", rows[2].Entity)
}
