package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleProvider || r == RoleAdmin
}

type MembershipTier string

const (
	TierNone    MembershipTier = "none"
	TierBasic   MembershipTier = "basic"
	TierPremium MembershipTier = "premium"
	TierGold    MembershipTier = "gold"
)

// MembershipPlan is a purchasable tier with its fixed discount.
type MembershipPlan struct {
	Tier        MembershipTier `json:"id"`
	Name        string         `json:"name"`
	Price       int64          `json:"price"`
	DiscountPct int            `json:"discount"`
}

var membershipPlans = []MembershipPlan{
	{Tier: TierBasic, Name: "Basic", Price: 199, DiscountPct: 10},
	{Tier: TierPremium, Name: "Premium", Price: 399, DiscountPct: 20},
	{Tier: TierGold, Name: "Gold", Price: 699, DiscountPct: 30},
}

func MembershipPlans() []MembershipPlan {
	out := make([]MembershipPlan, len(membershipPlans))
	copy(out, membershipPlans)
	return out
}

func (t MembershipTier) IsValid() bool {
	if t == TierNone {
		return true
	}
	for _, p := range membershipPlans {
		if p.Tier == t {
			return true
		}
	}
	return false
}

// Discount returns the tier's discount as a fraction; unknown tiers get none.
func (t MembershipTier) Discount() float64 {
	for _, p := range membershipPlans {
		if p.Tier == t {
			return float64(p.DiscountPct) / 100
		}
	}
	return 0
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string         `json:"phone"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	Membership   MembershipTier `gorm:"type:varchar(20);not null;default:'none'" json:"membership"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
