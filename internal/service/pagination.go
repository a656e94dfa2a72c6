package service

// Page size bounds shared by every listing.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// normalizePage clamps page and limit and returns the row offset.
func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}

func normalizeOrder(order string) (string, bool) {
	switch order {
	case "", "desc":
		return "desc", true
	case "asc":
		return "asc", true
	}
	return "", false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
