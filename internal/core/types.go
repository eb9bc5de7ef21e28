package core

import "odontocore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Tooth              = domain.Tooth
	Space              = domain.Space
	Finding            = domain.Finding
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityTooth = domain.EntityTooth
	EntitySpace = domain.EntitySpace
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}
