// Package generation builds the question sets sent to shortlisted candidates.
package generation

import (
	"fmt"
	"strings"

	"github.com/jonathan/hirezaa/internal/types"
)

// SectionError reports that one section could not be generated.
type SectionError struct {
	Section types.Section
	Cause   error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("generate %s questions: %v", e.Section, e.Cause)
}

func (e *SectionError) Unwrap() error {
	return e.Cause
}

// PartialError is returned alongside a partially filled question set when
// at least one section failed. Sections not listed were generated in full.
type PartialError struct {
	Sections []*SectionError
}

func (e *PartialError) Error() string {
	parts := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		parts = append(parts, s.Error())
	}
	return fmt.Sprintf("question generation incomplete: %s", strings.Join(parts, "; "))
}

// Unwrap exposes every section failure to errors.Is / errors.As.
func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Sections))
	for _, s := range e.Sections {
		errs = append(errs, s)
	}
	return errs
}

// Failed reports whether the given section is among the failures.
func (e *PartialError) Failed(section types.Section) bool {
	for _, s := range e.Sections {
		if s.Section == section {
			return true
		}
	}
	return false
}
