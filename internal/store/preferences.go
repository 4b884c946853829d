package store

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

type FilterKind string

const (
	FilterString FilterKind = "string"
	FilterNumber FilterKind = "number"
	FilterBool   FilterKind = "bool"
	FilterList   FilterKind = "list"
)

// FilterValue is one active filter value. Exactly the field matching Kind
// is meaningful.
type FilterValue struct {
	Kind   FilterKind
	Str    string
	Num    float64
	Bool   bool
	Values []string
}

func StringFilter(v string) FilterValue  { return FilterValue{Kind: FilterString, Str: v} }
func NumberFilter(v float64) FilterValue { return FilterValue{Kind: FilterNumber, Num: v} }
func BoolFilter(v bool) FilterValue      { return FilterValue{Kind: FilterBool, Bool: v} }
func ListFilter(v ...string) FilterValue { return FilterValue{Kind: FilterList, Values: append([]string(nil), v...)} }

// ParseFilterValue infers the kind of a raw palette value: true/false are
// booleans, numerics are numbers, comma-separated values are lists.
func ParseFilterValue(raw string) FilterValue {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "true":
		return BoolFilter(true)
	case "false":
		return BoolFilter(false)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberFilter(n)
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return ListFilter(out...)
	}
	return StringFilter(raw)
}

func (v FilterValue) String() string {
	switch v.Kind {
	case FilterNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FilterBool:
		return strconv.FormatBool(v.Bool)
	case FilterList:
		return strings.Join(v.Values, ",")
	case FilterString:
		return v.Str
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// Preferences holds UI flags for the current process only.
type Preferences struct {
	sidebarCollapsed bool
	filters          map[string]FilterValue
}

func NewPreferences() *Preferences {
	return &Preferences{filters: make(map[string]FilterValue)}
}

func (p *Preferences) SidebarCollapsed() bool { return p.sidebarCollapsed }

func (p *Preferences) SetSidebarCollapsed(collapsed bool) {
	p.sidebarCollapsed = collapsed
}

func (p *Preferences) ToggleSidebar() bool {
	p.sidebarCollapsed = !p.sidebarCollapsed
	return p.sidebarCollapsed
}

// SetFilters replaces the whole filter mapping with a copy of filters.
func (p *Preferences) SetFilters(filters map[string]FilterValue) {
	next := make(map[string]FilterValue, len(filters))
	maps.Copy(next, filters)
	p.filters = next
}

func (p *Preferences) ClearFilters() {
	p.filters = make(map[string]FilterValue)
}

func (p *Preferences) Filters() map[string]FilterValue {
	return maps.Clone(p.filters)
}

func (p *Preferences) Reset() {
	p.sidebarCollapsed = false
	p.ClearFilters()
}
