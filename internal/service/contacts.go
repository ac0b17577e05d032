package service

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
)

// findSelf responds with the caller's own contact, which is created on first use.
//
// Example REST API call:
//
//	> curl http://localhost:8080/self --header "X-User-Id: u1"
func (s *Server) findSelf(c *gin.Context) {
	self, err := s.store.EnsureSelfContact(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, self)
}

// findContacts responds with a list of the caller's contacts as JSON. The list is empty if no
// contact matches.
//
// The URL parameter 'name' is interpreted as the beginning of the name of the contact.
//
// The URL parameter 'limit' specifies how many contacts matching the search criteria are returned.
// The URL parameter 'offset' specifies how many items from the sorted list of results are skipped
// in the beginning. Together with the 'limit' parameter, one can implement search result paging.
//
// The URL parameter 'orderby' specifies the contact property by which the results shall be sorted.
// Valid values are 'id', 'name', 'company', 'city', 'country', and 'birthday'. If this URL
// parameter is not specified, the contacts will be sorted by id.
//
// If the URL parameter 'ascending' is set to 'false' then the sort order is reversed.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts" --header "X-User-Id: u1"
//	> curl "http://localhost:8080/contacts?name=Eri" --header "X-User-Id: u1"
//	> curl "http://localhost:8080/contacts?limit=20&offset=60" --header "X-User-Id: u1"
//	> curl "http://localhost:8080/contacts?orderby=country&ascending=false" --header "X-User-Id: u1"
func (s *Server) findContacts(c *gin.Context) {
	limit, offset, ok := parseLimitAndOffset(c)
	if !ok {
		return
	}
	descending, ok := parseAscending(c)
	if !ok {
		return
	}
	contacts, err := s.store.ListContacts(c.Request.Context(), userID(c), store.ContactFilter{
		NamePrefix: c.Query("name"),
		Limit:      limit,
		Offset:     offset,
		OrderBy:    c.Query("orderby"),
		Descending: descending,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseLimitAndOffset inspects the URL parameters and determines values for limit and offset of
// the result set. A limit of 0 leaves the default of the store.
func parseLimitAndOffset(c *gin.Context) (limit int, offset int, success bool) {
	var err error
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return 0, 0, false
		}
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid offset parameter"})
			return 0, 0, false
		}
	}
	return limit, offset, true
}

// parseAscending inspects the 'ascending' URL parameter and reports whether the result shall be
// sorted in descending order.
func parseAscending(c *gin.Context) (descending bool, success bool) {
	switch c.Query("ascending") {
	case "", "true":
		return false, true
	case "false":
		return true, true
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid ascending parameter"})
		return false, false
	}
}

// createContact inserts the contact specified in the request's JSON into the database. It responds
// with the full contact data including the newly assigned id. Only the name is required.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "phone": "0815", "city": "Berlin", "country": "Germany"}'
func (s *Server) createContact(c *gin.Context) {
	var contact model.Contact
	if !bindJSON(c, &contact) {
		return
	}
	if strings.TrimSpace(contact.Name) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "name must not be empty"})
		return
	}
	if contact.Birthday != nil && !model.ValidDate(*contact.Birthday) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid birthday"})
		return
	}
	if err := model.ValidateCoordinates(contact.Lat, contact.Lng); err != nil {
		s.respondError(c, err)
		return
	}
	contact.Id = 0
	contact.UserId = userID(c)
	contact.IsSelf = false
	contact.Tags = nil
	if err := s.store.CreateContact(c.Request.Context(), &contact); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact including its tags as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --header "X-User-Id: u1"
func (s *Server) findContactByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	contact, err := s.loadContact(c, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// loadContact reads a contact of the caller together with its tag names.
func (s *Server) loadContact(c *gin.Context, id int64) (*model.Contact, error) {
	contact, err := s.store.GetContact(c.Request.Context(), userID(c), id)
	if err != nil {
		return nil, err
	}
	contact.Tags, err = s.store.ContactTagNames(c.Request.Context(), userID(c), id)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL, updates the values specified in the JSON (and only those), and finally responds with the
// new version of the contact. A value of null clears a field.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"city": "Prague", "lat": null, "lng": null}'
func (s *Server) updateContactByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var submitted map[string]any
	if !bindJSON(c, &submitted) {
		return
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(submitted) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}
	values, err := model.NormalizeContactFields(submitted)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.GetContact(ctx, userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.store.UpdateContact(ctx, userID(c), id, values); err != nil {
		s.respondError(c, err)
		return
	}

	// In the HTTP response, return the full contact after the update.
	contact, err := s.loadContact(c, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request
// URL, together with its connections, interactions, favors, and tag links.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE" --header "X-User-Id: u1"
func (s *Server) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := s.store.DeleteContact(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if deleted {
		c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
	} else {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	}
}

type interactionInput struct {
	Kind       string  `json:"kind"       binding:"required"`
	OccurredOn string  `json:"occurredOn" binding:"required"`
	Summary    *string `json:"summary"`
}

// findInteractions responds with the interactions with a contact, newest first.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/interactions --header "X-User-Id: u1"
func (s *Server) findInteractions(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	interactions, err := s.store.ListInteractions(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, interactions)
}

// createInteraction logs a touchpoint with a contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/interactions --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"kind": "call", "occurredOn": "2024-03-01", "summary": "Talked about the move"}'
func (s *Server) createInteraction(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	var in interactionInput
	if !bindJSON(c, &in) {
		return
	}
	if !model.ValidDate(in.OccurredOn) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid occurredOn"})
		return
	}
	interaction := model.Interaction{
		UserId:     userID(c),
		ContactId:  id,
		Kind:       strings.TrimSpace(in.Kind),
		OccurredOn: in.OccurredOn,
		Summary:    in.Summary,
	}
	if err := s.store.CreateInteraction(c.Request.Context(), &interaction); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, interaction)
}

type favorInput struct {
	Direction   model.FavorDirection `json:"direction"   binding:"required"`
	Description string               `json:"description" binding:"required"`
	Status      model.FavorStatus    `json:"status"`
}

// findFavors responds with the favors exchanged with a contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/favors --header "X-User-Id: u1"
func (s *Server) findFavors(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	favors, err := s.store.ListFavors(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, favors)
}

// createFavor records a favor given to or received from a contact. The status defaults to open.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/favors --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"direction": "received", "description": "Helped with the move"}'
func (s *Server) createFavor(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	var in favorInput
	if !bindJSON(c, &in) {
		return
	}
	if in.Status == "" {
		in.Status = model.FavorOpen
	}
	if !in.Direction.Valid() || !in.Status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid direction or status"})
		return
	}
	favor := model.Favor{
		UserId:      userID(c),
		ContactId:   id,
		Direction:   in.Direction,
		Description: in.Description,
		Status:      in.Status,
	}
	if err := s.store.CreateFavor(c.Request.Context(), &favor); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, favor)
}

// findTags responds with the caller's tags.
//
// Example REST API call:
//
//	> curl http://localhost:8080/tags --header "X-User-Id: u1"
func (s *Server) findTags(c *gin.Context) {
	tags, err := s.store.ListTags(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, tags)
}

// createTag creates a tag. Tag names are unique per user.
//
// Example REST API call:
//
//	> curl http://localhost:8080/tags --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"name": "climbing"}'
func (s *Server) createTag(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	tag := model.Tag{UserId: userID(c), Name: strings.TrimSpace(in.Name)}
	existing, err := s.store.FindTag(c.Request.Context(), tag.UserId, tag.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if existing != nil {
		s.respondError(c, apperror.Conflict("tag %q already exists", tag.Name))
		return
	}
	if err := s.store.CreateTag(c.Request.Context(), &tag); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, tag)
}

// attachTag attaches a tag to a contact. Attaching it twice has no effect.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/tags/3 --request "PUT" --header "X-User-Id: u1"
func (s *Server) attachTag(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	owned, err := s.store.CountOwnedTags(ctx, userID(c), tagID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if owned == 0 {
		s.respondError(c, apperror.NotFound("tag %d", tagID))
		return
	}
	if err := s.store.AttachTag(ctx, userID(c), id, tagID); err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.loadContact(c, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// detachTag removes a tag from a contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/tags/3 --request "DELETE" --header "X-User-Id: u1"
func (s *Server) detachTag(c *gin.Context) {
	id, ok := s.ownedContactID(c)
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}
	if _, err := s.store.DetachTag(c.Request.Context(), userID(c), id, tagID); err != nil {
		s.respondError(c, err)
		return
	}
	contact, err := s.loadContact(c, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// ownedContactID parses the id URL parameter and checks that it names a contact of the caller.
func (s *Server) ownedContactID(c *gin.Context) (int64, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return 0, false
	}
	if _, err := s.store.GetContact(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return id, true
}
