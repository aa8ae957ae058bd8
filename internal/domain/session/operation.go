package session

import (
	"sort"
	"time"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// Operation names the closed set of emergency operations a crisis session
// may perform.
type Operation string

const (
	OpViewCrisisPlan    Operation = "view_crisis_plan"
	OpEmergencyContacts Operation = "emergency_contacts"
	OpCrisisButton      Operation = "crisis_button"
	OpEmergencyMoodLog  Operation = "emergency_mood_log"
	OpSafetyAssessment  Operation = "safety_assessment"
)

// AuditLevel decides how an operation's audit entry is classified.
type AuditLevel string

const (
	AuditStandard AuditLevel = "standard"
	AuditClinical AuditLevel = "clinical"
	AuditCritical AuditLevel = "critical"
)

// Sensitivity maps the audit level onto a data sensitivity tier.
func (l AuditLevel) Sensitivity() values.Sensitivity {
	switch l {
	case AuditClinical, AuditCritical:
		return values.SensitivityClinical
	}
	return values.SensitivityOperational
}

// Policy is the admission policy for one operation.
type Policy struct {
	// RequiresFullAuth is always false here: crisis operations bypass normal
	// authentication.
	RequiresFullAuth bool
	// MaxExecutionsPerSession caps executions within one session; 0 means
	// unlimited.
	MaxExecutionsPerSession int
	PerformanceBudget       time.Duration
	AuditLevel              AuditLevel
}

// Gate is the static allow-list of crisis operations. It holds no mutable
// state and is safe to share.
type Gate struct {
	policies map[Operation]Policy
	ordered  []Operation
}

// DefaultGate is the operation table used by the session manager.
var DefaultGate = NewGate(map[Operation]Policy{
	OpViewCrisisPlan: {
		PerformanceBudget: 100 * time.Millisecond,
		AuditLevel:        AuditStandard,
	},
	OpEmergencyContacts: {
		PerformanceBudget: 100 * time.Millisecond,
		AuditLevel:        AuditStandard,
	},
	OpCrisisButton: {
		PerformanceBudget: 50 * time.Millisecond,
		AuditLevel:        AuditCritical,
	},
	OpEmergencyMoodLog: {
		MaxExecutionsPerSession: 5,
		PerformanceBudget:       200 * time.Millisecond,
		AuditLevel:              AuditClinical,
	},
	OpSafetyAssessment: {
		MaxExecutionsPerSession: 3,
		PerformanceBudget:       200 * time.Millisecond,
		AuditLevel:              AuditClinical,
	},
})

// NewGate copies policies into an immutable gate.
func NewGate(policies map[Operation]Policy) *Gate {
	g := &Gate{policies: make(map[Operation]Policy, len(policies))}
	for op, p := range policies {
		p.RequiresFullAuth = false
		g.policies[op] = p
		g.ordered = append(g.ordered, op)
	}
	sort.Slice(g.ordered, func(i, j int) bool { return g.ordered[i] < g.ordered[j] })
	return g
}

// Policy returns the policy for op and whether op is allowed at all.
func (g *Gate) Policy(op Operation) (Policy, bool) {
	p, ok := g.policies[op]
	return p, ok
}

// Allowed returns the allowed operations in a stable order.
func (g *Gate) Allowed() []Operation {
	out := make([]Operation, len(g.ordered))
	copy(out, g.ordered)
	return out
}
