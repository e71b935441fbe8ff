package usecase

import (
	"strings"

	"storefront/internal/domain/entity"
)

// SellerPolicy decides whether an identity may list products for sale.
type SellerPolicy interface {
	IsSeller(identity *entity.Identity) bool
}

// ClaimsSellerPolicy grants the seller capability through a custom claim set
// by an administrator.
type ClaimsSellerPolicy struct {
	Claim string
}

func NewClaimsSellerPolicy(claim string) *ClaimsSellerPolicy {
	return &ClaimsSellerPolicy{Claim: claim}
}

func (p *ClaimsSellerPolicy) IsSeller(identity *entity.Identity) bool {
	return HasClaim(identity, p.Claim)
}

// HasClaim accepts true, "true" and 1 as set.
func HasClaim(identity *entity.Identity, claim string) bool {
	if identity == nil || claim == "" {
		return false
	}
	switch v := identity.Claims[claim].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case float64:
		return v == 1
	case int:
		return v == 1
	default:
		return false
	}
}
