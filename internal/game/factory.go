package game

import "fmt"

type VariantName string

const (
	VariantClassic VariantName = "classic"
	VariantRPSLS   VariantName = "rpsls"
	// VariantCustom names an explicit element list
	VariantCustom VariantName = "custom"
)

// Rock, Spock, Paper, Lizard, Scissors: each element beats the two before it
// cyclically, which reproduces the lizard-spock table under Compare.
var variants = map[VariantName][]string{
	VariantClassic: {"Rock", "Paper", "Scissors"},
	VariantRPSLS:   {"Rock", "Spock", "Paper", "Lizard", "Scissors"},
}

// Variant returns a copy of the named element list.
func Variant(name VariantName) ([]string, error) {
	els, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant: %s", name)
	}
	return append([]string(nil), els...), nil
}

// ResolveElements picks explicit elements when given, the named variant
// otherwise, and validates the result. The name must be known even when
// explicit elements win.
func ResolveElements(name VariantName, explicit []string) ([]string, error) {
	if name == VariantCustom {
		if len(explicit) == 0 {
			return nil, fmt.Errorf("variant %s requires explicit elements", name)
		}
	} else if _, ok := variants[name]; !ok {
		return nil, fmt.Errorf("unknown variant: %s", name)
	}

	els := explicit
	if len(els) == 0 {
		els = variants[name]
	}
	if err := ValidateElements(els); err != nil {
		return nil, err
	}
	return append([]string(nil), els...), nil
}
