package domain

// Operator is a comparison operator of a Qualifier.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "neq"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpContains     Operator = "contains"
)

// Operators lists every operator accepted in product configuration.
var Operators = []Operator{
	OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpIn, OpNotIn, OpContains,
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Logic defines how the qualifiers of a rule are combined.
type Logic string

const (
	LogicAll Logic = "all"
	LogicAny Logic = "any"
)

// Category groups products by line of coverage.
type Category string

const (
	CategoryHealth     Category = "health"
	CategoryDental     Category = "dental"
	CategoryVision     Category = "vision"
	CategoryLife       Category = "life"
	CategoryDisability Category = "disability"
	CategoryMedicare   Category = "medicare"
	CategoryAncillary  Category = "ancillary"
)

// Categories lists every category accepted in product configuration.
var Categories = []Category{
	CategoryHealth, CategoryDental, CategoryVision, CategoryLife,
	CategoryDisability, CategoryMedicare, CategoryAncillary,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Quote defaults.
const (
	// QuoteValidityDays is the default lifetime of a quote when the provider does not set one.
	QuoteValidityDays = 30
)
