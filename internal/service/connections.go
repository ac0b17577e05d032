package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/graph"
	apimodel "gitlab.com/dirk.krummacker/contacts-globe/pkg/model"
)

// findConnections responds with every connection of the caller, each with both contacts
// resolved.
//
// Example REST API call:
//
//	> curl http://localhost:8080/connections --header "X-User-Id: u1"
func (s *Server) findConnections(c *gin.Context) {
	views, err := s.graph.ListAll(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, views)
}

// findConnectionsOfContact responds with the connections in which the contact takes part,
// regardless of direction.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/connections --header "X-User-Id: u1"
func (s *Server) findConnectionsOfContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	views, err := s.graph.ListForContact(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, views)
}

// findCountryConnections responds with the connections of the caller aggregated by the pair of
// countries the two contacts live in.
//
// Example REST API call:
//
//	> curl http://localhost:8080/connections/countries --header "X-User-Id: u1"
func (s *Server) findCountryConnections(c *gin.Context) {
	buckets, err := s.graph.CountryConnections(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, buckets)
}

// createConnection connects two contacts of the caller. Strength is 1 to 5 and defaults to 3;
// connections are bidirectional unless specified otherwise.
//
// Example REST API call:
//
//	> curl http://localhost:8080/connections --request "POST" --include --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"sourceContactId": 56, "targetContactId": 57, "connectionType": "colleague", "strength": 4}'
func (s *Server) createConnection(c *gin.Context) {
	var in graph.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	connection, err := s.graph.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, connection)
}

// deleteConnectionByID deletes a connection. Deleting a connection that does not exist succeeds
// as well.
//
// Example REST API call:
//
//	> curl http://localhost:8080/connections/12 --request "DELETE" --header "X-User-Id: u1"
func (s *Server) deleteConnectionByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.graph.Delete(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "connection deleted"})
}

// mergeContacts merges the contact given as loserId into the contact of the URL and deletes it.
// Connections and dependent records of the deleted contact move to the remaining one. The
// optional fieldOverrides pick the value of single fields explicitly.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/merge --request "POST" --header "X-User-Id: u1" --header "Content-Type: application/json" --data '{"loserId": 57, "fieldOverrides": {"phone": "+420 111"}}'
func (s *Server) mergeContacts(c *gin.Context) {
	winnerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var request apimodel.MergeRequest
	if !bindJSON(c, &request) {
		return
	}
	if request.LoserId < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing or invalid field loserId"})
		return
	}
	merged, err := s.merger.Merge(c.Request.Context(), userID(c), winnerID, request.LoserId, request.FieldOverrides)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, apimodel.MergeResponse{Contact: merged, DeletedId: request.LoserId})
}
