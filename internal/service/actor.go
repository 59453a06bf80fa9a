package service

import "github.com/Eursukkul/quickfix-service/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role models.Role
}

func (a Actor) IsAdmin() bool    { return a.Role == models.RoleAdmin }
func (a Actor) IsProvider() bool { return a.Role == models.RoleProvider }
func (a Actor) IsCustomer() bool { return a.Role == models.RoleCustomer }

func (a Actor) isProviderOf(b *models.Booking) bool {
	return a.IsProvider() && b.ProviderID != nil && *b.ProviderID == a.ID
}

// canView covers reads of a single booking: admins, the owner, the assigned
// provider, and any provider while the booking is still up for grabs.
func (a Actor) canView(b *models.Booking) bool {
	if a.IsAdmin() || b.CustomerID == a.ID {
		return true
	}
	return a.IsProvider() && (b.Status == models.StatusPending || a.isProviderOf(b))
}
