package entity

// Kind — разновидность поля: простое значение, одиночная ссылка (to-one)
// или коллекция связанных записей (to-many).
type Kind int

const (
	Plain Kind = iota
	ToOne
	ToMany
)

func (k Kind) String() string {
	switch k {
	case ToOne:
		return "to_one"
	case ToMany:
		return "to_many"
	default:
		return "plain"
	}
}

// FieldDescriptor описывает одно объявленное поле сущности.
// DeclarationOrder — монотонный счётчик объявления; он управляет порядком
// колонок и обязан сохраняться при патче схемы.
type FieldDescriptor struct {
	Name             string
	Kind             Kind
	Type             string // исходный тип из DSL: string, int, date, ref, array[ref] и т.д.
	Verbose          string // человекочитаемая подпись (для _comments)
	RefTarget        string // FQN целевой сущности для ToOne/ToMany
	Required         bool
	DeclarationOrder int
}
