package ingest

import (
	"github.com/KirkDiggler/rpg-compendium/internal/parsers"
)

// IngestFileInput names one compendium XML file
type IngestFileInput struct {
	Path string
}

// IngestFileOutput reports every element found in the file
type IngestFileOutput struct {
	Path    string
	Results []ElementResult
	Summary Summary
}

// IngestElementsInput carries already decoded elements
type IngestElementsInput struct {
	Elements []parsers.Element
}

// IngestElementsOutput has one result per input element, in input order
type IngestElementsOutput struct {
	Results []ElementResult
	Summary Summary
}

// ElementResult is the outcome of importing one element. Err is nil on success.
type ElementResult struct {
	Index    int
	Kind     string
	Name     string
	EntityID string
	Created  bool
	Err      error
}

// Summary counts results by outcome
type Summary struct {
	Created int
	Updated int
	Failed  int
}

// Total is the number of elements seen
func (s Summary) Total() int {
	return s.Created + s.Updated + s.Failed
}

// Add folds other into s
func (s *Summary) Add(other Summary) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Failed += other.Failed
}

func summarize(results []ElementResult) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Created:
			s.Created++
		default:
			s.Updated++
		}
	}
	return s
}
