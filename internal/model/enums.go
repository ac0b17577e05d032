package model

// ConnectionType is the closed set of relationship kinds between two contacts.
type ConnectionType string

const (
	ConnectionFriend       ConnectionType = "friend"
	ConnectionFamily       ConnectionType = "family"
	ConnectionColleague    ConnectionType = "colleague"
	ConnectionPartner      ConnectionType = "partner"
	ConnectionMentor       ConnectionType = "mentor"
	ConnectionClient       ConnectionType = "client"
	ConnectionAcquaintance ConnectionType = "acquaintance"
	ConnectionClassmate    ConnectionType = "classmate"
	ConnectionOther        ConnectionType = "other"
)

// ConnectionTypes lists every recognized connection type.
var ConnectionTypes = []ConnectionType{
	ConnectionFriend,
	ConnectionFamily,
	ConnectionColleague,
	ConnectionPartner,
	ConnectionMentor,
	ConnectionClient,
	ConnectionAcquaintance,
	ConnectionClassmate,
	ConnectionOther,
}

// Valid reports whether t is one of ConnectionTypes.
func (t ConnectionType) Valid() bool {
	for _, v := range ConnectionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseConnectionType converts a raw string into a ConnectionType.
func ParseConnectionType(s string) (ConnectionType, bool) {
	t := ConnectionType(s)
	return t, t.Valid()
}

// Strength bounds of a connection.
const (
	MinStrength     = 1
	MaxStrength     = 5
	DefaultStrength = 3
)

type FavorDirection string

const (
	FavorGiven    FavorDirection = "given"
	FavorReceived FavorDirection = "received"
)

func (d FavorDirection) Valid() bool {
	return d == FavorGiven || d == FavorReceived
}

type FavorStatus string

const (
	FavorOpen FavorStatus = "open"
	FavorDone FavorStatus = "done"
)

func (s FavorStatus) Valid() bool {
	return s == FavorOpen || s == FavorDone
}

// WishlistPriority ranks wishlist countries.
type WishlistPriority string

const (
	PriorityLow    WishlistPriority = "low"
	PriorityMedium WishlistPriority = "medium"
	PriorityHigh   WishlistPriority = "high"
)

func (p WishlistPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// WishlistStatus tracks how far a wishlist trip has progressed.
type WishlistStatus string

const (
	StatusDreaming WishlistStatus = "dreaming"
	StatusPlanning WishlistStatus = "planning"
	StatusBooked   WishlistStatus = "booked"
)

func (s WishlistStatus) Valid() bool {
	switch s {
	case StatusDreaming, StatusPlanning, StatusBooked:
		return true
	}
	return false
}
