package core

// SectionKind tells the rendering layer how to present a section's value.
type SectionKind string

const (
	SectionPlainText SectionKind = "plainText"
	SectionJSON      SectionKind = "json"
)

// ItemKind distinguishes call-site position rows from the function row.
type ItemKind string

const (
	ItemPosition ItemKind = "position"
	ItemFunction ItemKind = "function"
)

// DetailSection is one block of the detail view. A section carries either a
// freeform Value or a list of Items. An empty Title means the section is untitled.
type DetailSection struct {
	Title string       `json:"title,omitempty"`
	Kind  SectionKind  `json:"kind"`
	Value string       `json:"value,omitempty"`
	Items []DetailItem `json:"items,omitempty"`
}

// DetailItem is a labelled row inside a section. Icon is an opaque key
// resolved by the renderer.
type DetailItem struct {
	Kind  ItemKind `json:"kind"`
	Icon  string   `json:"icon"`
	Label string   `json:"label"`
	Value string   `json:"value"`
}
