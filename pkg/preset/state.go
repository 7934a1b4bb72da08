package preset

import "github.com/burnwise/burnwise/pkg/expense"

type OriginKind string

const (
	OriginPreset OriginKind = "preset"
	OriginCustom OriginKind = "custom"
)

// Origin records where the active filter values came from: either a preset
// or custom values. Build it with PresetOrigin or CustomOrigin.
type Origin struct {
	kind  OriginKind
	which Preset
}

func PresetOrigin(p Preset) Origin {
	return Origin{kind: OriginPreset, which: p}
}

func CustomOrigin() Origin {
	return Origin{kind: OriginCustom}
}

func (o Origin) Kind() OriginKind {
	return o.kind
}

// Which returns the preset of a preset origin. It is false for custom origins.
func (o Origin) Which() (Preset, bool) {
	if o.kind != OriginPreset {
		return "", false
	}
	return o.which, true
}

// State is the active expense filter. It is a value: every transition
// returns a new State.
type State struct {
	Origin        Origin
	Filter        expense.Filter
	GroupByPerson bool
}

func DefaultState() State {
	return Select(Default)
}

// Select replaces the filter wholesale with the preset's canonical values.
func Select(p Preset) State {
	return State{
		Origin:        PresetOrigin(p),
		Filter:        p.Filter(),
		GroupByPerson: p.ForcesGrouping(),
	}
}

// SubmitCustom applies hand-entered filter values. The origin becomes custom
// even when the values equal a preset's, and forced grouping is cleared.
func (s State) SubmitCustom(f expense.Filter) State {
	return State{
		Origin:        CustomOrigin(),
		Filter:        f,
		GroupByPerson: false,
	}
}

func (s State) Select(p Preset) State {
	return Select(p)
}

func (s State) Reset() State {
	return DefaultState()
}

// ActivePreset is the preset identity reported for the state; custom filters
// report All.
func (s State) ActivePreset() Preset {
	if p, ok := s.Origin.Which(); ok {
		return p
	}
	return All
}

func (s State) IsCustom() bool {
	return s.Origin.Kind() == OriginCustom
}

// Apply filters expenses and, when grouping is forced, buckets them per
// incurring person.
func (s State) Apply(expenses []expense.Expense) ([]expense.Expense, []expense.PersonGroup) {
	filtered := expense.Apply(expenses, s.Filter)
	if !s.GroupByPerson {
		return filtered, nil
	}
	return filtered, expense.GroupByIncurringPerson(filtered)
}
