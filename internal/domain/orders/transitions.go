package orders

type Role uint8

const (
	RoleRenter Role = 1 << iota
	RoleOwner
	RoleAdmin
)

type RoleSet uint8

func (s RoleSet) Has(r Role) bool { return s&RoleSet(r) != 0 }

// Actor is the caller of a lifecycle operation.
type Actor struct {
	UserID string
	Admin  bool
}

// ListingEffect is what a transition does to the listing's availability state.
type ListingEffect int

const (
	EffectNone ListingEffect = iota
	EffectMarkRented
	EffectRelease
)

type Transition struct {
	From        Status
	To          Status
	Allowed     RoleSet
	Effect      ListingEffect
	Deactivates bool
}

func (t Transition) AllowsAny(roles RoleSet) bool {
	return t.Allowed&roles != 0
}

var (
	ownerOrAdmin = RoleSet(RoleOwner) | RoleSet(RoleAdmin)
	anyParty     = RoleSet(RoleRenter) | ownerOrAdmin
)

// transitions is the single source for update, cancel and batch operations.
var transitions = []Transition{
	{From: StatusPending, To: StatusApproved, Allowed: ownerOrAdmin, Effect: EffectMarkRented},
	{From: StatusPending, To: StatusRejected, Allowed: ownerOrAdmin, Effect: EffectRelease, Deactivates: true},
	{From: StatusApproved, To: StatusCompleted, Allowed: ownerOrAdmin, Effect: EffectRelease, Deactivates: true},
	{From: StatusPending, To: StatusCancelled, Allowed: anyParty, Effect: EffectRelease, Deactivates: true},
	{From: StatusApproved, To: StatusCancelled, Allowed: anyParty, Effect: EffectRelease, Deactivates: true},
}

func Lookup(from, to Status) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// Transitions returns a copy of the table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}
