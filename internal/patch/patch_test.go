package patch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oblik/internal/entity"
	"oblik/internal/patch"
)

func bookSchema(t *testing.T) *entity.Schema {
	t.Helper()
	s := entity.NewSchema("library", "Book")
	require.NoError(t, s.AddField(&entity.FieldDescriptor{Name: "title", Type: "string"}))
	require.NoError(t, s.AddField(&entity.FieldDescriptor{Name: "isbn", Type: "string", Verbose: "ISBN"}))
	require.NoError(t, s.AddField(&entity.FieldDescriptor{Name: "author", Kind: entity.ToOne, Type: "ref", RefTarget: "library.Author"}))
	require.NoError(t, s.AddField(&entity.FieldDescriptor{Name: "tags", Kind: entity.ToMany, Type: "array[ref]", RefTarget: "library.Tag"}))
	require.NoError(t, s.AttachMethod(&entity.Method{Name: "save", Fn: func(*entity.Instance) any { return "old save" }}))
	return s
}

func TestFieldOverridePreservesOrder(t *testing.T) {
	base := bookSchema(t)
	oldOrder := base.FindField("isbn").DeclarationOrder

	out, err := patch.Apply(base, patch.New().Field(&entity.FieldDescriptor{Name: "isbn", Type: "text"}))
	require.NoError(t, err)

	fd := out.FindField("isbn")
	require.NotNil(t, fd)
	assert.Equal(t, oldOrder, fd.DeclarationOrder)
	assert.Equal(t, "text", fd.Type)

	seen := 0
	for _, f := range out.Fields {
		if f.Name == "isbn" {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "old descriptor must be gone")

	// исходная схема не изменилась
	assert.Equal(t, "string", base.FindField("isbn").Type)
}

func TestNewFieldGetsFreshOrder(t *testing.T) {
	base := bookSchema(t)
	max := 0
	for _, f := range base.OrderedFields() {
		if f.DeclarationOrder > max {
			max = f.DeclarationOrder
		}
	}

	out, err := patch.Apply(base, patch.New().Field(&entity.FieldDescriptor{Name: "subtitle", Type: "string"}))
	require.NoError(t, err)
	assert.Greater(t, out.FindField("subtitle").DeclarationOrder, max)
}

func TestManyToManyOverridePreservesOrder(t *testing.T) {
	base := bookSchema(t)
	oldOrder := base.FindField("tags").DeclarationOrder

	out, err := patch.Apply(base, patch.New().Field(&entity.FieldDescriptor{
		Name: "tags", Kind: entity.ToMany, Type: "array[ref]", RefTarget: "library.Tag", Verbose: "Метки",
	}))
	require.NoError(t, err)

	fd := out.FindField("tags")
	require.NotNil(t, fd)
	assert.Equal(t, oldOrder, fd.DeclarationOrder)
	assert.Equal(t, "Метки", fd.Verbose)
	assert.Len(t, out.ManyToMany, 1)
}

func TestKindMismatchIsDuplicate(t *testing.T) {
	base := bookSchema(t)

	// to-many дескриптор с именем обычного поля: совпадение ищется только
	// в many-to-many списке, так что это дубликат, а не перекрытие
	_, err := patch.Apply(base, patch.New().Field(&entity.FieldDescriptor{
		Name: "isbn", Kind: entity.ToMany, RefTarget: "library.Tag",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")
}

func TestMethodShadowPreserved(t *testing.T) {
	base := bookSchema(t)

	out, err := patch.Apply(base, patch.New().Func("save", func(*entity.Instance) any { return "new save" }))
	require.NoError(t, err)

	inst := entity.NewInstance("B1", out, nil, nil)

	v, ok := inst.Get("save")
	require.True(t, ok)
	assert.Equal(t, "new save", v.(entity.Callable).Call())

	v, ok = inst.Get("save" + patch.OverriddenSuffix)
	require.True(t, ok)
	assert.Equal(t, "old save", v.(entity.Callable).Call())
}

func TestBrandNewMethodHasNoShadow(t *testing.T) {
	base := bookSchema(t)

	out, err := patch.Apply(base, patch.New().Func("display", func(*entity.Instance) any { return "x" }))
	require.NoError(t, err)

	_, shadowed := out.Methods["display"+patch.OverriddenSuffix]
	assert.False(t, shadowed)
}

func TestSchemaShapeErrors(t *testing.T) {
	var shapeErr *patch.SchemaShapeError

	_, err := patch.Apply(nil, patch.New())
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))

	// схема без таблицы методов — не валидная цель
	_, err = patch.Apply(&entity.Schema{Name: "X"}, patch.New())
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))
}

func TestBadMembersRejected(t *testing.T) {
	base := bookSchema(t)

	_, err := patch.Apply(base, patch.New().Field(nil))
	assert.True(t, errors.Is(err, patch.ErrBadMember))

	_, err = patch.Apply(base, patch.New().Method(&entity.Method{Name: "broken"}))
	assert.True(t, errors.Is(err, patch.ErrBadMember))
}

func TestNilSpecIsNoop(t *testing.T) {
	base := bookSchema(t)
	out, err := patch.Apply(base, nil)
	require.NoError(t, err)
	assert.Equal(t, len(base.Fields), len(out.Fields))
}

func TestSpecBuilderCountsMembers(t *testing.T) {
	s := patch.New()
	assert.Equal(t, 0, s.Len())

	s.Field(&entity.FieldDescriptor{Name: "subtitle", Type: "string"}).
		Func("display", func(*entity.Instance) any { return nil })
	assert.Equal(t, 2, s.Len())

	// пустая спецификация — такой же no-op, как nil
	base := bookSchema(t)
	out, err := patch.Apply(base, patch.New())
	require.NoError(t, err)
	assert.Equal(t, len(base.Fields), len(out.Fields))
	assert.Equal(t, len(base.Methods), len(out.Methods))
}
