// Package profile accumulates facts about the user across a session and
// renders them as one sentence of prompt context.
package profile

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Well-known fields used by Summarize.
const (
	FieldName       = "name"
	FieldLocation   = "location"
	FieldOccupation = "occupation"
	FieldInterests  = "interests"
)

const maxSummaryInterests = 3

// Snapshot is a point-in-time copy of a profile.
type Snapshot struct {
	Fields map[string]string   `json:"fields,omitempty"`
	Lists  map[string][]string `json:"lists,omitempty"`
}

// Profile merges identity facts. Scalar fields keep the first value seen;
// list fields collect distinct values in arrival order.
type Profile struct {
	listFields map[string]bool
	fields     map[string]string
	lists      map[string][]string
	mu         sync.RWMutex
}

// New creates an empty profile. listFields name the fields that accumulate
// values; when none are given only "interests" does.
func New(listFields ...string) *Profile {
	if len(listFields) == 0 {
		listFields = []string{FieldInterests}
	}
	p := &Profile{
		listFields: map[string]bool{},
		fields:     map[string]string{},
		lists:      map[string][]string{},
	}
	for _, f := range listFields {
		p.listFields[f] = true
	}
	return p
}

// Update merges one fact and reports whether the profile changed.
func (p *Profile) Update(field, value string) bool {
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.listFields[field] {
		if slices.Contains(p.lists[field], value) {
			return false
		}
		p.lists[field] = append(p.lists[field], value)
		return true
	}

	if _, ok := p.fields[field]; ok {
		return false
	}
	p.fields[field] = value
	return true
}

// Merge applies Update for every fact, in field name order, and returns the
// number of changes.
func (p *Profile) Merge(facts map[string]string) int {
	changed := 0
	for _, field := range slices.Sorted(maps.Keys(facts)) {
		if p.Update(field, facts[field]) {
			changed++
		}
	}
	return changed
}

// Get returns a scalar field.
func (p *Profile) Get(field string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.fields[field]
	return v, ok
}

// List returns a copy of a list field.
func (p *Profile) List(field string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.lists[field])
}

// Empty reports whether no fact has been recorded.
func (p *Profile) Empty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.fields) == 0 && len(p.lists) == 0
}

func (p *Profile) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{}
	if len(p.fields) > 0 {
		s.Fields = maps.Clone(p.fields)
	}
	if len(p.lists) > 0 {
		s.Lists = make(map[string][]string, len(p.lists))
		for k, v := range p.lists {
			s.Lists[k] = slices.Clone(v)
		}
	}
	return s
}

// Summarize describes the user in one sentence, for example
// "You're speaking with Alex from Austin who works as a nurse and enjoys jazz, hiking."
// At most three interests are listed.
func (p *Profile) Summarize() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("You're speaking with ")
	if name := p.fields[FieldName]; name != "" {
		sb.WriteString(name)
	} else {
		sb.WriteString("a user")
	}
	if loc := p.fields[FieldLocation]; loc != "" {
		sb.WriteString(" from ")
		sb.WriteString(loc)
	}

	occupation := p.fields[FieldOccupation]
	if occupation != "" {
		sb.WriteString(" who works as a ")
		sb.WriteString(occupation)
	}

	if interests := p.lists[FieldInterests]; len(interests) > 0 {
		if occupation != "" {
			sb.WriteString(" and enjoys ")
		} else {
			sb.WriteString(" who enjoys ")
		}
		sb.WriteString(strings.Join(interests[:min(len(interests), maxSummaryInterests)], ", "))
	}

	sb.WriteString(".")
	return sb.String()
}
