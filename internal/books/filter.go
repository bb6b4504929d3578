package books

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// SelectOption is one entry of a filterable select list.
type SelectOption struct {
	Value string
	Label string
}

// SelectFilter narrows a static option list as the user types, the way the
// filterable dropdowns on the transaction form behave. The zero Value option
// acts as the placeholder and is never filtered out.
type SelectFilter struct {
	Options       []SelectOption
	NoResultsText string
	Fuzzy         bool // rank with fuzzy matching instead of plain substring
}

// NewSelectFilter builds a filter over the given options.
func NewSelectFilter(options []SelectOption) SelectFilter {
	return SelectFilter{
		Options:       options,
		NoResultsText: "No matching items found",
	}
}

// Apply returns the options visible for the given filter text, in their
// original order (or ranked, in fuzzy mode). The placeholder option is always
// first when present.
func (f SelectFilter) Apply(filter string) []SelectOption {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return f.Options
	}

	var visible []SelectOption
	for _, opt := range f.Options {
		if opt.Value == "" {
			visible = append(visible, opt)
		}
	}

	if f.Fuzzy {
		labels := make([]string, len(f.Options))
		for i, opt := range f.Options {
			labels[i] = opt.Label
		}
		for _, match := range fuzzy.Find(filter, labels) {
			if f.Options[match.Index].Value == "" {
				continue
			}
			visible = append(visible, f.Options[match.Index])
		}
		return visible
	}

	lower := strings.ToLower(filter)
	for _, opt := range f.Options {
		if opt.Value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(opt.Label), lower) {
			visible = append(visible, opt)
		}
	}
	return visible
}

// HasMatches reports whether any real (non-placeholder) option survives the
// filter; when false and the filter is non-empty, NoResultsText should show.
func (f SelectFilter) HasMatches(filter string) bool {
	for _, opt := range f.Apply(filter) {
		if opt.Value != "" {
			return true
		}
	}
	return false
}
