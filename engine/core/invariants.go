package core

import "fmt"

// ValidateAlignment checks invariant (c): sequence lengths across indexed
// fields stay aligned, i.e. len(SubSections[i]) == len(SubSectionQuestions[i])
// == len(SubSectionContents[i]) for every section i, whenever the latter two
// are populated.
func ValidateAlignment(s ReportState) error {
	n := len(s.SubSections)
	if len(s.SubSectionQuestions) > 0 && len(s.SubSectionQuestions) != n {
		return fmt.Errorf("%w: sub_section_questions has %d sections, want %d", ErrInvariantViolation, len(s.SubSectionQuestions), n)
	}
	if len(s.SubSectionContents) > 0 && len(s.SubSectionContents) != n {
		return fmt.Errorf("%w: sub_section_contents has %d sections, want %d", ErrInvariantViolation, len(s.SubSectionContents), n)
	}
	for i, subs := range s.SubSections {
		if len(s.SubSectionQuestions) > 0 && len(s.SubSectionQuestions[i]) != len(subs) {
			return fmt.Errorf("%w: section %d: sub_section_questions has %d entries, want %d", ErrInvariantViolation, i, len(s.SubSectionQuestions[i]), len(subs))
		}
		if len(s.SubSectionContents) > 0 && len(s.SubSectionContents[i]) != len(subs) {
			return fmt.Errorf("%w: section %d: sub_section_contents has %d entries, want %d", ErrInvariantViolation, i, len(s.SubSectionContents[i]), len(subs))
		}
	}
	return nil
}

// ValidateReferentialIntegrity checks invariant (d): every chunk's
// source_id exists in Sources.
func ValidateReferentialIntegrity(s ReportState) error {
	if len(s.Chunks) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(s.Sources))
	for _, src := range s.Sources {
		ids[src.ID] = struct{}{}
	}
	for _, c := range s.Chunks {
		if _, ok := ids[c.SourceID]; !ok {
			return fmt.Errorf("%w: chunk references unknown source_id %q", ErrInvariantViolation, c.SourceID)
		}
	}
	return nil
}

// ValidateEmbeddingUniformity checks invariant (e): all embedding vectors
// for a report share one dimension.
func ValidateEmbeddingUniformity(s ReportState) error {
	if len(s.ChunkEmbeddings) == 0 {
		return nil
	}
	dim := len(s.ChunkEmbeddings[0].Embedding)
	for _, ce := range s.ChunkEmbeddings[1:] {
		if len(ce.Embedding) != dim {
			return fmt.Errorf("%w: embedding for source %q has dimension %d, want %d", ErrInvariantViolation, ce.SourceID, len(ce.Embedding), dim)
		}
	}
	return nil
}

// ValidateURLSet checks the URL-set testable property: SearchURLs is sorted
// ascending and contains no duplicates.
func ValidateURLSet(urls []string) error {
	for i := 1; i < len(urls); i++ {
		if urls[i] <= urls[i-1] {
			return fmt.Errorf("%w: search_urls not strictly ascending at index %d (%q, %q)", ErrInvariantViolation, i, urls[i-1], urls[i])
		}
	}
	return nil
}

// ValidateAll runs every invariant check against a state snapshot. The
// scheduler calls this after a stage runs and before persisting the result.
func ValidateAll(s ReportState) error {
	if err := ValidateAlignment(s); err != nil {
		return err
	}
	if err := ValidateReferentialIntegrity(s); err != nil {
		return err
	}
	if err := ValidateEmbeddingUniformity(s); err != nil {
		return err
	}
	if err := ValidateURLSet(s.SearchURLs); err != nil {
		return err
	}
	return nil
}
