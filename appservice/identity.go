package appservice

const (
	// AuthenticationType names the scheme that produced an Identity
	AuthenticationType = "AppServiceAuthentication"

	ClaimTypeIDToken      = "id_token"
	ClaimTypeProviderName = "provider_name"
)

// Claim is a typed key/value fact about an identity
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Identity is the authenticated user as reported by the endpoint
type Identity struct {
	Name               string  `json:"name"`
	AuthenticationType string  `json:"authentication_type"`
	Claims             []Claim `json:"claims"`
}

// FindFirst returns the value of the first claim of the given type
func (i *Identity) FindFirst(claimType string) (string, bool) {
	for _, c := range i.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// Principal is an identity plus its role set. Roles are never derived
// from claims and stay empty.
type Principal struct {
	Identity Identity `json:"identity"`
	Roles    []string `json:"roles"`
}

// IsInRole reports whether the principal holds role
func (p *Principal) IsInRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BuildIdentity turns a parsed payload into an Identity. User claims keep
// their source order; id_token and provider_name are appended last.
func BuildIdentity(p *Payload) Identity {
	claims := make([]Claim, 0, len(p.UserClaims)+2)
	claims = append(claims, p.UserClaims...)
	claims = append(claims,
		Claim{Type: ClaimTypeIDToken, Value: p.IDToken},
		Claim{Type: ClaimTypeProviderName, Value: p.ProviderName},
	)

	return Identity{
		Name:               p.UserID,
		AuthenticationType: AuthenticationType,
		Claims:             claims,
	}
}

// BuildPrincipal wraps BuildIdentity with an empty role set
func BuildPrincipal(p *Payload) *Principal {
	return &Principal{
		Identity: BuildIdentity(p),
		Roles:    []string{},
	}
}
