package charger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Connector is a semantic connector category.
type Connector uint8

const (
	Tesla Connector = 1 << iota
	CCS
	CHAdeMO
)

// AllConnectors lists every connector category in display order.
var AllConnectors = []Connector{Tesla, CCS, CHAdeMO}

// providerCodes maps each category to its Open Charge Map connection type ids.
var providerCodes = map[Connector][]int{
	Tesla:   {30, 31, 8, 27},
	CCS:     {32, 33},
	CHAdeMO: {2},
}

func (c Connector) String() string {
	switch c {
	case Tesla:
		return "Tesla"
	case CCS:
		return "CCS"
	case CHAdeMO:
		return "CHAdeMO"
	default:
		return fmt.Sprintf("Connector(%d)", uint8(c))
	}
}

// Codes returns the provider connection type ids for the category.
func (c Connector) Codes() []int {
	return providerCodes[c]
}

// ParseConnector accepts a connector name in any case.
func ParseConnector(s string) (Connector, error) {
	for _, c := range AllConnectors {
		if strings.EqualFold(strings.TrimSpace(s), c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown connector %q", s)
}

// ConnectorForCode maps a provider connection type id to its category.
func ConnectorForCode(code int) (Connector, bool) {
	for _, c := range AllConnectors {
		for _, k := range providerCodes[c] {
			if k == code {
				return c, true
			}
		}
	}
	return 0, false
}

// ConnectorSet is a set of connector categories.
type ConnectorSet uint8

// NewConnectorSet builds a set from the given categories.
func NewConnectorSet(cs ...Connector) ConnectorSet {
	var s ConnectorSet
	for _, c := range cs {
		s |= ConnectorSet(c)
	}
	return s
}

// ConnectorsFromCodes maps provider codes to categories, ignoring unknown codes.
func ConnectorsFromCodes(codes []int) ConnectorSet {
	var s ConnectorSet
	for _, code := range codes {
		if c, ok := ConnectorForCode(code); ok {
			s |= ConnectorSet(c)
		}
	}
	return s
}

// AllConnectorSet contains every known category.
func AllConnectorSet() ConnectorSet {
	return NewConnectorSet(AllConnectors...)
}

func (s ConnectorSet) Has(c Connector) bool {
	return s&ConnectorSet(c) != 0
}

func (s ConnectorSet) Intersects(o ConnectorSet) bool {
	return s&o != 0
}

func (s ConnectorSet) Empty() bool {
	return s == 0
}

// List returns the members in display order.
func (s ConnectorSet) List() []Connector {
	var out []Connector
	for _, c := range AllConnectors {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Codes returns the sorted provider codes of every member.
func (s ConnectorSet) Codes() []int {
	var out []int
	for _, c := range s.List() {
		out = append(out, c.Codes()...)
	}
	sort.Ints(out)
	return out
}

// CodeList formats Codes as a comma-separated list for the directory request.
func (s ConnectorSet) CodeList() string {
	codes := s.Codes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func (s ConnectorSet) String() string {
	names := make([]string, 0, 3)
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// MarshalJSON encodes the set as a list of category names.
func (s ConnectorSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, 3)
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of category names.
func (s *ConnectorSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return fmt.Errorf("decoding connector set: %w", err)
	}
	var out ConnectorSet
	for _, n := range names {
		c, err := ParseConnector(n)
		if err != nil {
			return err
		}
		out |= ConnectorSet(c)
	}
	*s = out
	return nil
}
