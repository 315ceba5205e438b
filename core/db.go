package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings parses a comma separated list of fields ("-" prefix for descending)
// keeping only the fields present in `allowed` ({field: column}).
func ParseOrderings(raw string, allowed map[string]string) []DBOrdering {
	orderings := make([]DBOrdering, 0)
	for _, field := range strings.Split(raw, ",") {
		field = CleanString(field, true /* lower */)
		if field == "" {
			continue
		}
		asc := true
		if strings.HasPrefix(field, "-") {
			asc = false
			field = field[1:]
		}
		if col, ok := allowed[field]; ok {
			orderings = append(orderings, DBOrdering{Field: col, Ascending: asc})
		}
	}
	return orderings
}
