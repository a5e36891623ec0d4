// Package refdata provides typed, read-only access to externally managed
// reference records (children, providers, families). The rest of the system
// never sees the raw rows of the upstream source; a Source implementation
// maps them into these DTOs at the boundary.
package refdata

type Child struct {
	ID       string
	FamilyID string

	FirstName string
	LastName  string

	// Standard monthly subsidy in cents, and the prorated amount used for
	// a child's first-ever allocation.
	MonthlyAllocationCents  int64
	ProratedAllocationCents int64

	PaymentEnabled bool
}

type Provider struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string

	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	ZipCode      string
	CountryCode  string

	Approved bool
}

type Family struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string

	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	ZipCode      string
	CountryCode  string

	PaymentEnabled bool
}

// Source is the read-only boundary to the external reference data.
type Source interface {
	Child(id string) (*Child, error)
	Children() ([]Child, error)
	Provider(id string) (*Provider, error)
	Family(id string) (*Family, error)
}
