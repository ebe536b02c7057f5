package tui

type View int

const (
	ViewSearch View = iota
	ViewCategories
	ViewReader
)

func (v View) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewCategories:
		return "categories"
	case ViewReader:
		return "reader"
	default:
		return "unknown"
	}
}
