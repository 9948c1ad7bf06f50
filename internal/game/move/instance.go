package move

// Instance is a move learned by one combatant.
//
// Invariant: 0 <= UsesRemaining <= Def.PP.
type Instance struct {
	Def           *Definition
	UsesRemaining int
}

// NewInstance returns an Instance with full uses.
//
// Precondition: def must not be nil.
func NewInstance(def *Definition) *Instance {
	return &Instance{Def: def, UsesRemaining: def.PP}
}

// CanUse reports whether at least one use remains.
func (i *Instance) CanUse() bool {
	return i.UsesRemaining > 0
}

// Use consumes one use. It reports false and leaves the count unchanged when
// no uses remain.
func (i *Instance) Use() bool {
	if i.UsesRemaining <= 0 {
		return false
	}
	i.UsesRemaining--
	return true
}
