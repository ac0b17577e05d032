package model

// Contact is the data structure for a person that we know. Every contact belongs to exactly one
// user. All fields with the exception of Id, UserId, and Name are optional. Lat and Lng stay nil
// until the contact has been geocoded.
type Contact struct {
	Id       int64    `json:"id"                 db:"id"`
	UserId   string   `json:"-"                  db:"user_id"`
	Name     string   `json:"name"               db:"name"`
	Email    *string  `json:"email,omitempty"    db:"email"`
	Phone    *string  `json:"phone,omitempty"    db:"phone"`
	Company  *string  `json:"company,omitempty"  db:"company"`
	Role     *string  `json:"role,omitempty"     db:"role"`
	City     *string  `json:"city,omitempty"     db:"city"`
	Country  *string  `json:"country,omitempty"  db:"country"`
	Address  *string  `json:"address,omitempty"  db:"address"`
	Website  *string  `json:"website,omitempty"  db:"website"`
	Notes    *string  `json:"notes,omitempty"    db:"notes"`
	Birthday *string  `json:"birthday,omitempty" db:"birthday"`
	Lat      *float64 `json:"lat,omitempty"      db:"lat"`
	Lng      *float64 `json:"lng,omitempty"      db:"lng"`
	IsSelf   bool     `json:"isSelf"             db:"is_self"`
	Tags     []string `json:"tags,omitempty"     db:"-"`
}

// ContactSummary is the part of a contact that is shown next to a connection.
type ContactSummary struct {
	Id      int64    `json:"id"                db:"id"`
	Name    string   `json:"name"              db:"name"`
	City    *string  `json:"city,omitempty"    db:"city"`
	Country *string  `json:"country,omitempty" db:"country"`
	Lat     *float64 `json:"lat,omitempty"     db:"lat"`
	Lng     *float64 `json:"lng,omitempty"     db:"lng"`
}

// Connection is a directed, typed and weighted edge between two contacts of the same user.
// Bidirectional edges are stored once and treated as undirected for display and aggregation.
type Connection struct {
	Id              int64          `json:"id"              db:"id"`
	UserId          string         `json:"-"               db:"user_id"`
	SourceContactId int64          `json:"sourceContactId" db:"source_contact_id"`
	TargetContactId int64          `json:"targetContactId" db:"target_contact_id"`
	ConnectionType  ConnectionType `json:"connectionType"  db:"connection_type"`
	Strength        int            `json:"strength"        db:"strength"`
	Bidirectional   bool           `json:"bidirectional"   db:"bidirectional"`
	Notes           *string        `json:"notes,omitempty" db:"notes"`
}

// ConnectionView is a connection with both endpoint contacts resolved.
type ConnectionView struct {
	Connection
	Source ContactSummary `json:"source"`
	Target ContactSummary `json:"target"`
}

// CountryConnection aggregates all connections between contacts of two countries. CountryA is
// never greater than CountryB, so a pair is reported once regardless of edge direction.
type CountryConnection struct {
	CountryA        string  `json:"countryA"`
	CountryB        string  `json:"countryB"`
	Count           int     `json:"count"`
	TotalStrength   int     `json:"totalStrength"`
	AverageStrength float64 `json:"averageStrength"`
	MaxStrength     int     `json:"maxStrength"`
}

// Interaction is a logged touchpoint with a contact.
type Interaction struct {
	Id         int64   `json:"id"                db:"id"`
	UserId     string  `json:"-"                 db:"user_id"`
	ContactId  int64   `json:"contactId"         db:"contact_id"`
	Kind       string  `json:"kind"              db:"kind"`
	OccurredOn string  `json:"occurredOn"        db:"occurred_on"`
	Summary    *string `json:"summary,omitempty" db:"summary"`
}

// Favor is something done for or by a contact.
type Favor struct {
	Id          int64          `json:"id"          db:"id"`
	UserId      string         `json:"-"           db:"user_id"`
	ContactId   int64          `json:"contactId"   db:"contact_id"`
	Direction   FavorDirection `json:"direction"   db:"direction"`
	Description string         `json:"description" db:"description"`
	Status      FavorStatus    `json:"status"      db:"status"`
}

// Tag is a user scoped label. Contacts reference tags through contact_tags.
type Tag struct {
	Id     int64  `json:"id"   db:"id"`
	UserId string `json:"-"    db:"user_id"`
	Name   string `json:"name" db:"name"`
}

// VisitedCountry records a country the user has been to, optionally together with a contact.
type VisitedCountry struct {
	Id        int64   `json:"id"                  db:"id"`
	UserId    string  `json:"-"                   db:"user_id"`
	Country   string  `json:"country"             db:"country"`
	ContactId *int64  `json:"contactId,omitempty" db:"contact_id"`
	Notes     *string `json:"notes,omitempty"     db:"notes"`
}

// WishlistCountry is a country the user wants to visit, optionally with a contact living there.
type WishlistCountry struct {
	Id        int64            `json:"id"                  db:"id"`
	UserId    string           `json:"-"                   db:"user_id"`
	Country   string           `json:"country"             db:"country"`
	ContactId *int64           `json:"contactId,omitempty" db:"contact_id"`
	Priority  WishlistPriority `json:"priority"            db:"priority"`
	Status    WishlistStatus   `json:"status"              db:"status"`
	Notes     *string          `json:"notes,omitempty"     db:"notes"`
}

// Trip is a user scoped stay in a city. It is independent of the contact graph.
type Trip struct {
	Id            int64    `json:"id"                      db:"id"`
	UserId        string   `json:"-"                       db:"user_id"`
	City          string   `json:"city"                    db:"city"`
	Country       string   `json:"country"                 db:"country"`
	ArrivalDate   string   `json:"arrivalDate"             db:"arrival_date"`
	DepartureDate *string  `json:"departureDate,omitempty" db:"departure_date"`
	DurationDays  *int     `json:"durationDays,omitempty"  db:"duration_days"`
	Notes         *string  `json:"notes,omitempty"         db:"notes"`
	Lat           *float64 `json:"lat,omitempty"           db:"lat"`
	Lng           *float64 `json:"lng,omitempty"           db:"lng"`
}
