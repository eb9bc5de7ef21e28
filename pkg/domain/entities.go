// Package domain defines the odontogram entities, value types, and rule
// evaluation primitives used by odontocore.
package domain

// EntityType identifies the kind of chart record a change or violation refers to.
type EntityType string

// Supported entity type identifiers used in Change and Violation records.
const (
	// EntityTooth identifies a tooth record.
	EntityTooth EntityType = "tooth"
	// EntitySpace identifies an inter-tooth space record.
	EntitySpace EntityType = "space"
)

// Jaw identifies the arch a tooth belongs to.
type Jaw string

// Supported jaws.
const (
	JawUpper Jaw = "upper"
	JawLower Jaw = "lower"
)

// Severity captures rule outcomes.
type Severity string

// Rule severities.
const (
	// SeverityBlock prevents the mutation from being committed.
	SeverityBlock Severity = "block"
	// SeverityWarn surfaces a warning without blocking.
	SeverityWarn Severity = "warn"
	// SeverityLog records an informational notice.
	SeverityLog Severity = "log"
)

// SpaceShape selects how an inter-tooth space stores its finding state.
type SpaceShape string

// Space shapes.
const (
	// ShapeSingleColor spaces carry one nullable colour and a design.
	ShapeSingleColor SpaceShape = "single_color"
	// ShapeMultiFinding spaces carry a list of findings keyed like tooth findings.
	ShapeMultiFinding SpaceShape = "multi_finding"
)

// Color is a catalog colour choice.
type Color struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Equal reports whether two optional colours are deep-equal. Two nil colours are equal.
func (c *Color) Equal(other *Color) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return c.ID == other.ID && c.Name == other.Name
}

// SubOption is a finer classification under a catalog option.
type SubOption struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Design is a discrete visual variant offered by an option.
type Design struct {
	Number    int    `json:"number" yaml:"number"`
	Component string `json:"component" yaml:"component"`
}

// Option is a read-only catalog entry describing a selectable finding type.
// Designs are offered to the user in the picker; Variants are drawn for
// designs computed by the resolver and are never picked directly.
type Option struct {
	ID         int         `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Colors     []Color     `json:"colors,omitempty" yaml:"colors"`
	SubOptions []SubOption `json:"sub_options,omitempty" yaml:"sub_options"`
	Designs    []Design    `json:"designs,omitempty" yaml:"designs"`
	Variants   []Design    `json:"variants,omitempty" yaml:"variants"`
}

// Design returns the design drawn for number, looking at resolver variants
// before pickable designs.
func (o Option) Design(number int) (Design, bool) {
	for _, d := range o.Variants {
		if d.Number == number {
			return d, true
		}
	}
	for _, d := range o.Designs {
		if d.Number == number {
			return d, true
		}
	}
	return Design{}, false
}

// Finding is an applied finding instance owned by a tooth or a space.
type Finding struct {
	UniqueID      uint64 `json:"unique_id"`
	OptionID      int    `json:"option_id"`
	SubOptionID   *int   `json:"sub_option_id,omitempty"`
	Color         *Color `json:"color,omitempty"`
	DynamicDesign *int   `json:"dynamic_design,omitempty"`
	Zone          *int   `json:"zone,omitempty"`
}

// Matches reports whether the finding carries the supplied (option, sub-option) key.
func (f Finding) Matches(optionID int, subOptionID *int) bool {
	return f.OptionID == optionID && SameInt(f.SubOptionID, subOptionID)
}

// DisplayProperties carries rendering hints for a tooth.
type DisplayProperties struct {
	Jaw          Jaw  `json:"jaw" yaml:"jaw"`
	Position     int  `json:"position" yaml:"position"`
	LeftSpaceID  *int `json:"left_space_id,omitempty" yaml:"left_space_id"`
	RightSpaceID *int `json:"right_space_id,omitempty" yaml:"right_space_id"`
}

// Tooth is identified by its FDI number and owns its applied findings.
type Tooth struct {
	ID       int               `json:"id"`
	Findings []Finding         `json:"findings"`
	Display  DisplayProperties `json:"display"`
}

// Space is the gap between two adjacent teeth for one finding type.
type Space struct {
	ID            int        `json:"id"`
	OptionID      int        `json:"option_id"`
	LeftToothID   *int       `json:"left_tooth_id,omitempty"`
	RightToothID  *int       `json:"right_tooth_id,omitempty"`
	Shape         SpaceShape `json:"shape"`
	Color         *Color     `json:"color,omitempty"`
	DynamicDesign *int       `json:"dynamic_design,omitempty"`
	Findings      []Finding  `json:"findings,omitempty"`
}

// Change records a design or finding mutation applied to a chart entity.
type Change struct {
	Entity   EntityType
	EntityID int
	OptionID int
	Action   Action
	Before   *int
	After    *int
}

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	// ActionRegister indicates a finding was inserted or replaced.
	ActionRegister Action = "register"
	// ActionRemove indicates a finding was deleted.
	ActionRemove Action = "remove"
	// ActionToggle indicates a space colour or finding was toggled.
	ActionToggle Action = "toggle"
	// ActionResolve indicates a design variant was recomputed.
	ActionResolve Action = "resolve"
)

// Violation describes a rule outcome.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int
}

// Result aggregates changes and violations from a mutation.
type Result struct {
	Changes    []Change
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "mutation blocked by rules"
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// SameInt compares two optional integers by value.
func SameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CloneFinding returns a deep copy of f.
func CloneFinding(f Finding) Finding {
	cp := f
	cp.SubOptionID = cloneInt(f.SubOptionID)
	cp.DynamicDesign = cloneInt(f.DynamicDesign)
	cp.Zone = cloneInt(f.Zone)
	if f.Color != nil {
		c := *f.Color
		cp.Color = &c
	}
	return cp
}

// CloneTooth returns a deep copy of t.
func CloneTooth(t Tooth) Tooth {
	cp := t
	cp.Findings = cloneFindings(t.Findings)
	cp.Display.LeftSpaceID = cloneInt(t.Display.LeftSpaceID)
	cp.Display.RightSpaceID = cloneInt(t.Display.RightSpaceID)
	return cp
}

// CloneSpace returns a deep copy of s.
func CloneSpace(s Space) Space {
	cp := s
	cp.LeftToothID = cloneInt(s.LeftToothID)
	cp.RightToothID = cloneInt(s.RightToothID)
	cp.DynamicDesign = cloneInt(s.DynamicDesign)
	cp.Findings = cloneFindings(s.Findings)
	if s.Color != nil {
		c := *s.Color
		cp.Color = &c
	}
	return cp
}

func cloneFindings(in []Finding) []Finding {
	if in == nil {
		return nil
	}
	out := make([]Finding, len(in))
	for i, f := range in {
		out[i] = CloneFinding(f)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
