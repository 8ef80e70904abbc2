package types

// Standard table names for Catalog operations. Both tables share the
// BeerRecord shape and evolve through identical schema migrations.
const (
	AllBeersTable = "allbeers"
	TastedTable   = "tasted_brew_current_round"
)

// BeerTableNames lists the beer tables for enumeration; migrations apply
// to every table in this list, in order.
var BeerTableNames = []string{
	AllBeersTable,
	TastedTable,
}

// ValidTableName reports whether name is a standard beer table.
func ValidTableName(name string) bool {
	for _, n := range BeerTableNames {
		if n == name {
			return true
		}
	}
	return false
}
