package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

type tripInput struct {
	City          string  `json:"city"          binding:"required"`
	Country       string  `json:"country"       binding:"required"`
	ArrivalDate   string  `json:"arrivalDate"   binding:"required"`
	DepartureDate *string `json:"departureDate"`
	DurationDays  *int    `json:"durationDays"`
	Notes         *string `json:"notes"`
}

// findTrips responds with the caller's trips ordered by arrival.
//
// Example REST API call:
//
//	> curl http://localhost:8080/trips --header "X-User-Id: u1"
func (s *Server) findTrips(c *gin.Context) {
	trips, err := s.store.ListTrips(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, trips)
}

// createTrip records a stay in a city. If a departure date is given, the duration is derived from
// it unless specified. Coordinates are filled in later by the trip enrichment.
//
// Example REST API call:
//
//	> curl http://localhost:8080/trips --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"city": "Lisbon", "country": "Portugal", "arrivalDate": "2024-05-01", "departureDate": "2024-05-08"}'
func (s *Server) createTrip(c *gin.Context) {
	var in tripInput
	if !bindJSON(c, &in) {
		return
	}
	trip, err := newTrip(userID(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.CreateTrip(c.Request.Context(), trip); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, trip)
}

// newTrip validates the input and builds the trip to be stored.
func newTrip(userID string, in tripInput) (*model.Trip, error) {
	trip := &model.Trip{
		UserId:        userID,
		City:          strings.TrimSpace(in.City),
		Country:       strings.TrimSpace(in.Country),
		ArrivalDate:   in.ArrivalDate,
		DepartureDate: in.DepartureDate,
		DurationDays:  in.DurationDays,
		Notes:         in.Notes,
	}
	if trip.City == "" || trip.Country == "" {
		return nil, apperror.Validation("city and country must not be empty")
	}
	arrival, err := time.Parse(model.DateLayout, in.ArrivalDate)
	if err != nil {
		return nil, apperror.Validation("invalid arrivalDate")
	}
	if in.DepartureDate != nil {
		departure, err := time.Parse(model.DateLayout, *in.DepartureDate)
		if err != nil {
			return nil, apperror.Validation("invalid departureDate")
		}
		if departure.Before(arrival) {
			return nil, apperror.Validation("departureDate must not be before arrivalDate")
		}
		if trip.DurationDays == nil {
			days := int(departure.Sub(arrival).Hours() / 24)
			trip.DurationDays = &days
		}
	}
	if trip.DurationDays != nil && *trip.DurationDays < 0 {
		return nil, apperror.Validation("durationDays must not be negative")
	}
	return trip, nil
}

// deleteTripByID deletes a trip of the caller.
//
// Example REST API call:
//
//	> curl http://localhost:8080/trips/7 --request "DELETE" --header "X-User-Id: u1"
func (s *Server) deleteTripByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := s.store.DeleteTrip(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if n == 1 {
		c.IndentedJSON(http.StatusOK, gin.H{"message": "trip deleted"})
	} else {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "trip not found"})
	}
}

// findVisitedCountries responds with the countries the caller has visited.
//
// Example REST API call:
//
//	> curl http://localhost:8080/countries/visited --header "X-User-Id: u1"
func (s *Server) findVisitedCountries(c *gin.Context) {
	visited, err := s.store.ListVisitedCountries(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, visited)
}

// createVisitedCountry records a visited country, optionally together with the contact visited
// there.
//
// Example REST API call:
//
//	> curl http://localhost:8080/countries/visited --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"country": "Japan", "contactId": 56}'
func (s *Server) createVisitedCountry(c *gin.Context) {
	var in struct {
		Country   string  `json:"country"   binding:"required"`
		ContactId *int64  `json:"contactId"`
		Notes     *string `json:"notes"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if !s.checkOptionalContact(c, in.ContactId) {
		return
	}
	visited := model.VisitedCountry{
		UserId:    userID(c),
		Country:   strings.TrimSpace(in.Country),
		ContactId: in.ContactId,
		Notes:     in.Notes,
	}
	if err := s.store.CreateVisitedCountry(c.Request.Context(), &visited); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, visited)
}

// findWishlist responds with the countries the caller wants to visit.
//
// Example REST API call:
//
//	> curl http://localhost:8080/countries/wishlist --header "X-User-Id: u1"
func (s *Server) findWishlist(c *gin.Context) {
	wishes, err := s.store.ListWishlistCountries(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wishes)
}

// createWishlistCountry puts a country on the wishlist. Priority defaults to medium and status
// to dreaming.
//
// Example REST API call:
//
//	> curl http://localhost:8080/countries/wishlist --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"country": "Chile", "priority": "high"}'
func (s *Server) createWishlistCountry(c *gin.Context) {
	var in struct {
		Country   string                 `json:"country"   binding:"required"`
		ContactId *int64                 `json:"contactId"`
		Priority  model.WishlistPriority `json:"priority"`
		Status    model.WishlistStatus   `json:"status"`
		Notes     *string                `json:"notes"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Status == "" {
		in.Status = model.StatusDreaming
	}
	if !in.Priority.Valid() || !in.Status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid priority or status"})
		return
	}
	if !s.checkOptionalContact(c, in.ContactId) {
		return
	}
	wish := model.WishlistCountry{
		UserId:    userID(c),
		Country:   strings.TrimSpace(in.Country),
		ContactId: in.ContactId,
		Priority:  in.Priority,
		Status:    in.Status,
		Notes:     in.Notes,
	}
	if err := s.store.CreateWishlistCountry(c.Request.Context(), &wish); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, wish)
}

// checkOptionalContact verifies that a referenced contact belongs to the caller.
func (s *Server) checkOptionalContact(c *gin.Context, contactID *int64) bool {
	if contactID == nil {
		return true
	}
	owned, err := s.store.CountOwnedContacts(c.Request.Context(), userID(c), *contactID)
	if err != nil {
		s.respondError(c, err)
		return false
	}
	if owned != 1 {
		s.respondError(c, apperror.Validation("contact %d does not exist", *contactID))
		return false
	}
	return true
}

// enrichContacts geocodes the next batch of the caller's contacts that have a city or country but
// no coordinates. The response tells how many remain; callers repeat until none are left.
//
// Example REST API call:
//
//	> curl http://localhost:8080/enrich/contacts --request "POST" --header "X-User-Id: u1"
func (s *Server) enrichContacts(c *gin.Context) {
	s.enrich(c, s.contactEnricher)
}

// enrichTrips geocodes the next batch of the caller's trips without coordinates.
//
// Example REST API call:
//
//	> curl http://localhost:8080/enrich/trips --request "POST" --header "X-User-Id: u1"
func (s *Server) enrichTrips(c *gin.Context) {
	s.enrich(c, s.tripEnricher)
}

func (s *Server) enrich(c *gin.Context, enricher Enricher) {
	if enricher == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "enrichment is not configured"})
		return
	}
	result, err := enricher.Run(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}
