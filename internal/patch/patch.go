package patch

import (
	"errors"
	"fmt"

	"oblik/internal/entity"
)

// OverriddenSuffix — под этим суффиксом остаётся доступной перекрытая
// реализация метода.
const OverriddenSuffix = "__overridden"

// SchemaShapeError: цель патча не похожа на корректную схему.
// Ошибка фатальна для вызова — патч выполняется на старте и не ретраится.
type SchemaShapeError struct {
	Reason string
}

func (e *SchemaShapeError) Error() string {
	return "patch: target is not a valid schema: " + e.Reason
}

// ErrBadMember: член спецификации без содержимого (nil-дескриптор,
// метод без имени или функции). Такие члены отклоняются, а не вшиваются молча.
var ErrBadMember = errors.New("patch: bad spec member")

// Apply вшивает спецификацию в схему и возвращает новую, пропатченную копию.
// Исходная схема не меняется; подмена её в реестре — забота вызывающего.
//
// Поле с совпадающим именем наследует DeclarationOrder старого дескриптора
// (позиция колонки сохраняется), старый дескриптор удаляется из списка.
// Совпадение ищется в списке, соответствующем kind'у нового дескриптора:
// to-many — среди many-to-many, остальные — среди обычных полей. Попытка
// перекрыть поле дескриптором другого kind'а даёт ошибку дубликата.
//
// Перекрытый метод переименовывается в name+"__overridden" и остаётся
// вызываемым под новым именем.
func Apply(base *entity.Schema, spec *Spec) (*entity.Schema, error) {
	if err := checkShape(base); err != nil {
		return nil, err
	}
	out := base.Clone()
	if spec == nil || spec.Len() == 0 {
		return out, nil
	}
	for _, m := range spec.members {
		switch m.kind {
		case memberField:
			fd := m.field
			if fd == nil || fd.Name == "" {
				return nil, fmt.Errorf("%w: empty field descriptor", ErrBadMember)
			}
			if old, ok := out.TakeField(fd.Name, fd.Kind); ok {
				fd.DeclarationOrder = old.DeclarationOrder
			} else {
				fd.DeclarationOrder = out.NextOrder()
			}
			if err := out.AddField(fd); err != nil {
				return nil, err
			}
		case memberMethod:
			mt := m.method
			if mt == nil || mt.Name == "" || mt.Fn == nil {
				return nil, fmt.Errorf("%w: empty method", ErrBadMember)
			}
			if prev, ok := out.Methods[mt.Name]; ok {
				shadow := *prev
				shadow.Name = mt.Name + OverriddenSuffix
				out.Methods[shadow.Name] = &shadow
			}
			out.Methods[mt.Name] = mt
		}
	}
	return out, nil
}

func checkShape(s *entity.Schema) error {
	switch {
	case s == nil:
		return &SchemaShapeError{Reason: "nil schema"}
	case s.Name == "":
		return &SchemaShapeError{Reason: "schema has no name"}
	case s.Methods == nil:
		return &SchemaShapeError{Reason: "schema has no method table"}
	}
	return nil
}
