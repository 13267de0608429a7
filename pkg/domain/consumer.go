package domain

// Consumer is supplied by the caller on every request and never stored by the engine.
type Consumer struct {
	ID        string         `json:"id" mapstructure:"id"`
	FirstName string         `json:"first_name" mapstructure:"first_name"`
	LastName  string         `json:"last_name" mapstructure:"last_name"`
	Email     string         `json:"email" mapstructure:"email"`
	Phone     string         `json:"phone,omitempty" mapstructure:"phone"`
	Profile   map[string]any `json:"profile" mapstructure:"profile"`
}

// Lookup resolves a field name against the identity fields first and the profile second.
func (c Consumer) Lookup(field string) (any, bool) {
	switch field {
	case "id":
		return c.ID, c.ID != ""
	case "first_name":
		return c.FirstName, c.FirstName != ""
	case "last_name":
		return c.LastName, c.LastName != ""
	case "email":
		return c.Email, c.Email != ""
	case "phone":
		return c.Phone, c.Phone != ""
	}
	v, ok := c.Profile[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Attributes is the map eligibility rules are evaluated against: the profile plus
// the non-empty identity fields, with profile entries taking precedence.
func (c Consumer) Attributes() map[string]any {
	attrs := make(map[string]any, len(c.Profile)+5)
	for _, f := range []string{"id", "first_name", "last_name", "email", "phone"} {
		if v, ok := c.Lookup(f); ok {
			attrs[f] = v
		}
	}
	for k, v := range c.Profile {
		attrs[k] = v
	}
	return attrs
}
