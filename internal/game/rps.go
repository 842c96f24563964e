package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrTooFewElements   = errors.New("at least 3 elements required")
	ErrEvenElements     = errors.New("element count must be odd")
	ErrEmptyElement     = errors.New("element label is empty")
	ErrDuplicateElement = errors.New("duplicate element")
)

// Compare is the generalized rock-paper-scissors rule. Every element beats
// the floor(n/2) elements preceding it in the cyclic order and loses to the
// rest. a and b must both be members of elements.
func Compare(elements []string, a, b string) Outcome {
	i := slices.Index(elements, a)
	j := slices.Index(elements, b)
	if i == j {
		return Draw
	}

	n := len(elements)
	d := (i - j) % n
	if d < 0 {
		d += n
	}

	// 2*d < n is d < n/2 without truncating n.
	if 2*d < n {
		return Win
	}
	return Loss
}

// ValidateElements checks that elements form a well-defined cyclic move set:
// odd cardinality of at least three, distinct non-empty labels.
func ValidateElements(elements []string) error {
	if len(elements) < 3 {
		return ErrTooFewElements
	}
	if len(elements)%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrEvenElements, len(elements))
	}

	seen := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if strings.TrimSpace(el) == "" {
			return ErrEmptyElement
		}
		if _, ok := seen[el]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateElement, el)
		}
		seen[el] = struct{}{}
	}
	return nil
}

// Contains reports whether move is one of elements.
func Contains(elements []string, move string) bool {
	return slices.Contains(elements, move)
}
