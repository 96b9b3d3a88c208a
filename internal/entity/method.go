package entity

// MethodFunc — функция, привязываемая к экземпляру как метод: первым (и
// единственным) аргументом получает сам экземпляр.
type MethodFunc func(*Instance) any

// Method — вычисляемый член схемы (аналог метода или свойства).
// Short — короткое описание, попадает в _comments вместо verbose-подписи.
type Method struct {
	Name  string
	Short string
	Fn    MethodFunc
}

// Callable — вычисляемое значение поля. Движку проекций всё равно, хранится
// значение или считается: он спрашивает имя, подпись и результат вызова.
type Callable interface {
	Call() any
	DeclaredName() string
	ShortDescription() string
}

// BoundMethod — метод, связанный с конкретным экземпляром.
type BoundMethod struct {
	Method *Method
	Inst   *Instance
}

func (b *BoundMethod) Call() any                { return b.Method.Fn(b.Inst) }
func (b *BoundMethod) DeclaredName() string     { return b.Method.Name }
func (b *BoundMethod) ShortDescription() string { return b.Method.Short }
