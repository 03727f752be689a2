// Package shield defines the contract for the external security
// collaborator. The core treats authorization as an opaque gate plus
// pass-through metadata; none of the collaborator's scoring is
// reimplemented here.
package shield

// #region operation-class

// OperationClass groups pipeline operations for authorization.
type OperationClass string

const (
	OpMutateContent OperationClass = "mutate_content" // insert, delete, replace
	OpUndoRedo      OperationClass = "undo_redo"
	OpRender        OperationClass = "render"
	OpSnapshot      OperationClass = "snapshot"
)

// #endregion operation-class

// #region decision

// Decision is the collaborator's verdict for one operation. ShieldFactor
// is the collaborator's own safety score in [0,1]; the core only carries
// it through to results and the journal.
type Decision struct {
	Allowed      bool
	ShieldFactor float32
	RiskLevel    string
	AllowedOps   map[OperationClass]bool
}

// #endregion decision

// #region authorizer

// Authorizer is the injected single-method security capability. A nil
// authorizer on the orchestrator means security is disabled.
type Authorizer interface {
	Authorize(class OperationClass) Decision
}

// #endregion authorizer

// #region static-policy

// StaticPolicy is a deterministic Authorizer for tests and the CLI: a
// fixed set of denied classes and a fixed shield factor.
type StaticPolicy struct {
	Denied       map[OperationClass]bool
	ShieldFactor float32
	RiskLevel    string
}

// AllowAll returns a policy that permits every operation class.
func AllowAll() *StaticPolicy {
	return &StaticPolicy{ShieldFactor: 1.0, RiskLevel: "low"}
}

// Authorize implements Authorizer.
func (p *StaticPolicy) Authorize(class OperationClass) Decision {
	allowed := make(map[OperationClass]bool, 4)
	for _, op := range []OperationClass{OpMutateContent, OpUndoRedo, OpRender, OpSnapshot} {
		allowed[op] = !p.Denied[op]
	}
	return Decision{
		Allowed:      !p.Denied[class],
		ShieldFactor: p.ShieldFactor,
		RiskLevel:    p.RiskLevel,
		AllowedOps:   allowed,
	}
}

// #endregion static-policy
