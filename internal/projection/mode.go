package projection

// Mode — режим обхода: simple или full. Передаётся явным параметром по всей
// рекурсии; на экземплярах во время обхода не хранится и не читается.
type Mode int

const (
	Simple Mode = iota
	Full
)

func (m Mode) String() string {
	if m == Full {
		return "full"
	}
	return "simple"
}

// ParseMode: "full" → Full, всё остальное (включая пустую строку) → Simple.
func ParseMode(s string) Mode {
	if s == "full" {
		return Full
	}
	return Simple
}
