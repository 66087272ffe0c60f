package core

// Document is the abstract document tree the Render stage builds and hands
// to the external typesetting collaborator. Its shape is fixed by that
// collaborator; the core only needs to construct it, not interpret it.
type Document struct {
	Title    string
	Sections []DocSection
	Sources  []Source // for the citation list
}

// DocSection is one top-level section of the rendered report.
type DocSection struct {
	Heading     string
	SubSections []DocSubSection
}

// DocSubSection is one sub-section, holding a mix of block-level content in
// insertion order.
type DocSubSection struct {
	Heading string
	Blocks  []DocBlock
}

// DocBlockKind discriminates the block-level node types the renderer
// understands.
type DocBlockKind string

const (
	BlockParagraph  DocBlockKind = "paragraph"
	BlockFigure     DocBlockKind = "figure"
	BlockTable      DocBlockKind = "table"
	BlockCitation   DocBlockKind = "citation"
	BlockEquation   DocBlockKind = "equation"
	BlockList       DocBlockKind = "list"
	BlockLink       DocBlockKind = "link"
	BlockQuotation  DocBlockKind = "quotation"
)

// DocBlock is one node within a sub-section's content.
type DocBlock struct {
	Kind DocBlockKind

	// Paragraph / Quotation / Equation text, or Link display text.
	Text string

	// Figure: image path. Link: target URL.
	Target string

	// Table content.
	TableHeaders []string
	TableRows    [][]string

	// List items (BlockList).
	Items []string

	// Citation: index into Document.Sources.
	SourceIndex int
}
