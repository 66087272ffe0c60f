package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// NewRender builds the abstract document tree from every field the earlier
// stages populated and hands it to the external typesetting collaborator.
func NewRender(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		if len(s.Sections) != len(s.SubSections) || len(s.Sections) != len(s.SubSectionContents) {
			return fn.Err[core.ReportState](invariantf(core.StageRender,
				"sections (%d), sub_sections (%d), sub_section_contents (%d) length mismatch",
				len(s.Sections), len(s.SubSections), len(s.SubSectionContents)))
		}

		doc := core.Document{Title: s.Title, Sources: s.Sources}
		for i, section := range s.Sections {
			subSections := s.SubSections[i]
			contents := s.SubSectionContents[i]
			doc.Sections = append(doc.Sections, buildDocSection(section, subSections, contents, i, s))
		}

		path, err := ectx.Render.Render(ctx, doc)
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage render: %w", err))
		}

		next := s.Clone()
		next.Report = path
		return fn.Ok(next)
	}
}

func buildDocSection(heading string, subSectionNames, contents []string, sectionIdx int, s core.ReportState) core.DocSection {
	ds := core.DocSection{Heading: heading}
	for j, subHeading := range subSectionNames {
		var content string
		if j < len(contents) {
			content = contents[j]
		}
		blocks := paragraphBlocks(content)
		blocks = insertVisuals(blocks, sectionIdx, j, s)
		ds.SubSections = append(ds.SubSections, core.DocSubSection{Heading: subHeading, Blocks: blocks})
	}
	return ds
}

// paragraphBlocks splits synthesized content on blank lines into paragraph
// blocks.
func paragraphBlocks(content string) []core.DocBlock {
	var blocks []core.DocBlock
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		blocks = append(blocks, core.DocBlock{Kind: core.BlockParagraph, Text: p})
	}
	return blocks
}

// insertVisuals splices figure/table blocks into blocks at the positions
// IdentifyVisualInsertions chose for this (section, sub_section).
func insertVisuals(blocks []core.DocBlock, sectionIdx, subSectionIdx int, s core.ReportState) []core.DocBlock {
	for i, pos := range s.ChartPositions {
		if pos.SectionIndex != sectionIdx || pos.SubSectionIndex != subSectionIdx {
			continue
		}
		blocks = spliceAfter(blocks, pos.AfterParagraph, core.DocBlock{Kind: core.BlockFigure, Target: s.Charts[i].Path})
	}
	for i, pos := range s.TablePositions {
		if pos.SectionIndex != sectionIdx || pos.SubSectionIndex != subSectionIdx {
			continue
		}
		t := s.Tables[i]
		blocks = spliceAfter(blocks, pos.AfterParagraph, core.DocBlock{Kind: core.BlockTable, Text: t.Title, TableHeaders: t.Headers, TableRows: t.Rows})
	}
	return blocks
}

func spliceAfter(blocks []core.DocBlock, after int, block core.DocBlock) []core.DocBlock {
	idx := after + 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(blocks) {
		idx = len(blocks)
	}
	out := make([]core.DocBlock, 0, len(blocks)+1)
	out = append(out, blocks[:idx]...)
	out = append(out, block)
	out = append(out, blocks[idx:]...)
	return out
}
