package domain

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

func defaultLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}

	if limit > maxPageLimit {
		return maxPageLimit
	}

	return limit
}
