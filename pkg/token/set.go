package token

import (
	"fmt"
	"strings"
)

// Set is a set of token kinds.
type Set map[Kind]struct{}

// NewSet creates a set holding kinds.
func NewSet(kinds ...Kind) Set {
	s := make(Set, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// DefaultIgnored returns every kind that is not Significant.
func DefaultIgnored() Set {
	s := make(Set)
	for _, k := range Kinds() {
		if !k.Significant() {
			s[k] = struct{}{}
		}
	}
	return s
}

// ParseSet builds a set from configuration names.
func ParseSet(names []string) (Set, error) {
	s := make(Set, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		s[k] = struct{}{}
	}
	return s, nil
}

// Contains reports whether k is in the set. A nil set contains nothing.
func (s Set) Contains(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Names returns the configuration names of the kinds in declaration order.
func (s Set) Names() []string {
	var names []string
	for _, k := range Kinds() {
		if s.Contains(k) {
			names = append(names, k.String())
		}
	}
	return names
}

func (s Set) String() string {
	return fmt.Sprintf("[%s]", strings.Join(s.Names(), " "))
}
