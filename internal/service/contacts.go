package service

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/contactbook/contacts-service/internal/model"
)

// createContact inserts the contact specified in the request's JSON into the
// database, owned by the authenticated user. It responds with the full
// contact data including the newly assigned id.
//
// The email and the phone number are unique across all contacts. A violation
// is answered with the CONFLICT status code.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@example.com", "phone": "0815", "birthday": "1969-03-02T00:00:00Z"}'
func (s *Server) createContact(c *gin.Context) {
	var newContact model.Contact
	if err := c.BindJSON(&newContact); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	newContact.OwnerId = currentUser(c).Id
	result, err := s.insertContact.Exec(&newContact)
	if isDuplicateKey(err) {
		abortConflict(c, "email or phone already exists")
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	newContact.Id = id
	c.IndentedJSON(http.StatusCreated, newContact)
}

// findContactByID locates the contact whose ID value matches the id parameter
// of the request URL, then returns that contact as a response. Contacts of
// other users are reported as not found.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --header "Authorization: Bearer $TOKEN"
func (s *Server) findContactByID(c *gin.Context) {
	id := c.Param("id")
	switch id {
	case "search":
		s.searchContacts(c)
		return
	case "upcoming_birthdays":
		s.upcomingBirthdays(c)
		return
	}
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	var contacts []model.Contact
	err := s.selectContactWhereId.Select(&contacts, id, currentUser(c).Id)
	if err != nil {
		log.Panicln(err)
	}
	if len(contacts) == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	} else {
		c.IndentedJSON(http.StatusOK, contacts[0])
	}
}

// updateContactByID updates the contact whose ID value matches the id
// parameter of the request URL, updates the values specified in the JSON
// (and only those), and finally responds with the new version of the
// contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"birthday": "1972-06-06T00:00:00Z"}'
func (s *Server) updateContactByID(c *gin.Context) {
	id := c.Param("id")
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	var submitted model.Contact
	if errBind := c.BindJSON(&submitted); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}

	var args []interface{}
	sql := "UPDATE contacts SET "
	if submitted.FirstName != nil {
		args = append(args, submitted.FirstName)
		sql += "first_name=?, "
	}
	if submitted.LastName != nil {
		args = append(args, submitted.LastName)
		sql += "last_name=?, "
	}
	if submitted.Email != nil {
		args = append(args, submitted.Email)
		sql += "email=?, "
	}
	if submitted.Phone != nil {
		args = append(args, submitted.Phone)
		sql += "phone=?, "
	}
	if submitted.Birthday != nil {
		args = append(args, submitted.Birthday)
		sql += "birthday=?, "
	}
	if submitted.AdditionalInfo != nil {
		args = append(args, submitted.AdditionalInfo)
		sql += "additional_info=?, "
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(args) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}

	sql = sql[:len(sql)-2]
	sql += " WHERE id=? AND owner_id=?"
	args = append(args, id, currentUser(c).Id)
	_, errExec := s.db.Exec(sql, args...)
	if isDuplicateKey(errExec) {
		abortConflict(c, "email or phone already exists")
		return
	}
	if errExec != nil {
		log.Panicln(errExec)
	}

	// In the HTTP response, return the full contact after the update.
	var contacts []model.Contact
	errSelect := s.selectContactWhereId.Select(&contacts, id, currentUser(c).Id)
	if errSelect != nil {
		log.Panicln(errSelect)
	}
	if len(contacts) == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contacts[0])
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database and responds with the
// removed record.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE" --header "Authorization: Bearer $TOKEN"
func (s *Server) deleteContactByID(c *gin.Context) {
	id := c.Param("id")
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	// Fetch the record first so that the response can echo what was removed.
	var contacts []model.Contact
	errSelect := s.selectContactWhereId.Select(&contacts, id, currentUser(c).Id)
	if errSelect != nil {
		log.Panicln(errSelect)
	}
	if len(contacts) == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}

	result, err := s.deleteContactWhereId.Exec(id, currentUser(c).Id)
	if err != nil {
		log.Panicln(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Panicln(err)
	}
	if rowsAffected == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contacts[0])
}

// findContacts responds with the authenticated user's contacts as JSON, in
// natural id order.
//
// The URL parameter 'skip' specifies how many items from the list of results
// are skipped in the beginning. The URL parameter 'limit' specifies how many
// contacts are returned at most. Together, the two parameters implement
// simple paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts" --header "Authorization: Bearer $TOKEN"
//	> curl "http://localhost:8080/contacts?skip=10&limit=10" --header "Authorization: Bearer $TOKEN"
func (s *Server) findContacts(c *gin.Context) {
	skip, limit, success := parseSkipAndLimit(c)
	if !success {
		return
	}
	contacts := []model.Contact{}
	err := s.db.Select(&contacts, `
		SELECT *
		FROM contacts
		WHERE owner_id = ?
		ORDER BY id
		LIMIT ?
		OFFSET ?`, currentUser(c).Id, limit, skip)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseSkipAndLimit inspects the URL parameters and determines values for
// skip and limit of the result set.
func parseSkipAndLimit(c *gin.Context) (skip string, limit string, success bool) {
	skip = c.Query("skip")
	if skip != "" {
		skipAsInt, errConv := strconv.Atoi(skip)
		if errConv != nil || skipAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid skip parameter"})
			return "", "", false
		}
	} else {
		skip = "0"
	}
	limit = c.Query("limit")
	if limit != "" {
		limitAsInt, errConv := strconv.Atoi(limit)
		if errConv != nil || limitAsInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return "", "", false
		}
	} else {
		limit = strconv.Itoa(maxInt)
	}
	return skip, limit, true
}

// searchContacts responds with the authenticated user's contacts whose first
// name, last name or email contains the 'query' URL parameter as a
// substring.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/search?query=must" --header "Authorization: Bearer $TOKEN"
func (s *Server) searchContacts(c *gin.Context) {
	pattern := "%" + c.Query("query") + "%"
	contacts := []model.Contact{}
	err := s.db.Select(&contacts, `
		SELECT *
		FROM contacts
		WHERE owner_id = ?
			AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)
		ORDER BY id`, currentUser(c).Id, pattern, pattern, pattern)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// upcomingBirthdays responds with the authenticated user's contacts whose
// birthday falls within the next 7 days including today. Only month and day
// are compared; the birth year is ignored, so the window also works across a
// year boundary.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/upcoming_birthdays" --header "Authorization: Bearer $TOKEN"
func (s *Server) upcomingBirthdays(c *gin.Context) {
	condition, args := birthdayWindow(time.Now(), currentUser(c).Id)
	contacts := []model.Contact{}
	err := s.db.Select(&contacts, `
		SELECT *
		FROM contacts
		WHERE owner_id = ?
			AND (`+condition+`)
		ORDER BY id`, args...)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// birthdayWindow builds the SQL condition matching the month/day pairs of the
// 8 calendar days starting at the given date, together with the full argument
// list (owner id first).
func birthdayWindow(start time.Time, ownerID int64) (string, []interface{}) {
	var clauses []string
	args := []interface{}{ownerID}
	for i := 0; i < 8; i++ {
		day := start.AddDate(0, 0, i)
		clauses = append(clauses, "(MONTH(birthday) = ? AND DAY(birthday) = ?)")
		args = append(args, int(day.Month()), day.Day())
	}
	return strings.Join(clauses, " OR "), args
}
