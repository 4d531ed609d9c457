package store

// Space product tiers. The tier picks which permission engine serves a
// space's computations.
const (
	SpaceTierFree = "free"
	SpaceTierPaid = "paid"
)

type Space struct {
	ID         string
	Name       string
	Tier       string
	IsReadonly bool
}
