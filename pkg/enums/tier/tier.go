package tier

// Tier is the access level of a user. The effective tier is always computed
// from the premium expiry timestamp at read time, never stored as a flag.
type Tier string

const (
	Free    Tier = "free"
	Premium Tier = "premium"
)

func (t Tier) String() string {
	return string(t)
}

var tierDisplay = map[Tier]string{
	Free:    "Free",
	Premium: "Premium",
}

func GetDisplay(t Tier) string {
	if s, ok := tierDisplay[t]; ok {
		return s
	}
	return tierDisplay[Free]
}
