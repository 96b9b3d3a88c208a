package patch

import "oblik/internal/entity"

type memberKind int

const (
	memberField memberKind = iota
	memberMethod
)

type member struct {
	kind   memberKind
	field  *entity.FieldDescriptor
	method *entity.Method
}

// Spec — типизированная спецификация патча: упорядоченный набор полей и
// методов, которые будут вшиты в схему. Собирается билдером и потребляется
// Apply; собственного жизненного цикла после применения у неё нет.
type Spec struct {
	members []member
}

func New() *Spec { return &Spec{} }

// Field добавляет (пере)определение поля. Имя берётся из дескриптора;
// дескриптор ещё не должен принадлежать никакой схеме.
func (s *Spec) Field(fd *entity.FieldDescriptor) *Spec {
	s.members = append(s.members, member{kind: memberField, field: fd})
	return s
}

// Method добавляет (пере)определение метода.
func (s *Spec) Method(m *entity.Method) *Spec {
	s.members = append(s.members, member{kind: memberMethod, method: m})
	return s
}

// Func — сокращение для метода без короткого описания.
func (s *Spec) Func(name string, fn entity.MethodFunc) *Spec {
	return s.Method(&entity.Method{Name: name, Fn: fn})
}

// Len — число членов спецификации.
func (s *Spec) Len() int { return len(s.members) }
