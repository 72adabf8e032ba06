package auth

// Roles recognised by the platform.
const (
	RoleFarmer     = "farmer"
	RoleAgronomist = "agronomist"
	RoleAdmin      = "admin"
)

// Claims are the verified identity attributes derived from a bearer token.
// They live for one request and are never persisted.
type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Role          string `json:"role"`
	FarmID        string `json:"farmId,omitempty"`
}

// ClaimsFromMap maps raw token claims onto Claims. Tokens without a role
// claim default to farmer.
func ClaimsFromMap(m map[string]interface{}) *Claims {
	c := &Claims{
		UID:         str(m, "sub"),
		Email:       str(m, "email"),
		PhoneNumber: str(m, "phone_number"),
		DisplayName: str(m, "name"),
		PhotoURL:    str(m, "picture"),
		Role:        str(m, "role"),
		FarmID:      str(m, "farm_id"),
	}
	if v, ok := m["email_verified"].(bool); ok {
		c.EmailVerified = v
	}
	if c.Role == "" {
		c.Role = RoleFarmer
	}
	return c
}

func str(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}
