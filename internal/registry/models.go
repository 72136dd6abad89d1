// Package registry answers capability questions for the ledger: which account
// operates a carrier, which accounts may verify deliveries, and which public
// key a verifier signs with. It is pure lookup; account and key provisioning
// happen out of band.
package registry

import (
	id "freightledger/pkg/domain"
)

type Role string

const (
	RoleCarrier   Role = "carrier"
	RoleWarehouse Role = "warehouse"
	RoleVerifier  Role = "verifier"
	RoleAdmin     Role = "admin"
)

// Account is a ledger identity with its granted roles.
type Account struct {
	ID       id.AccountID
	Roles    []Role
	Location string // reported site, recorded on authentication events
	Active   bool
}

// HasRole reports whether the account holds the given role.
func (a Account) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
