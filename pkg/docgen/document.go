package docgen

import "strings"

// Position identifies where a fact is embedded inside a document.
type Position string

const (
	PositionStart  Position = "start"
	PositionMiddle Position = "middle"
	PositionEnd    Position = "end"
)

// Positions lists the supported fact placements in canonical order.
var Positions = []Position{PositionStart, PositionMiddle, PositionEnd}

// Valid reports whether p is one of the supported placements.
func (p Position) Valid() bool {
	switch p {
	case PositionStart, PositionMiddle, PositionEnd:
		return true
	}
	return false
}

// Document is a single unit of text, either synthetic with an embedded fact
// or loaded from a real corpus (in which case Fact and FactPosition are empty).
// Documents are immutable once generated.
type Document struct {
	Content      string
	Fact         string
	FactPosition Position
	Metadata     map[string]interface{}
}

// WordCount returns the number of whitespace-separated words in the document.
func (d Document) WordCount() int {
	return len(strings.Fields(d.Content))
}
