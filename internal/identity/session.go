package identity

import "github.com/AlexTLDR/flok/internal/document"

// BindAccount points sessionID at a permanent user. Any temporary login on
// the session is dropped, a session never holds both.
func BindAccount(doc *document.Document, sessionID string, userID document.ID) {
	doc.Sessions[sessionID] = document.Session{UserID: userID}
}

// BindTemporary points sessionID at a temporary login only.
func BindTemporary(doc *document.Document, sessionID string, eventID document.ID, username string) {
	doc.Sessions[sessionID] = document.Session{
		Temp: &document.TempSession{EventID: eventID, Username: username},
	}
}

// Unbind forgets the account on sessionID. A session left with neither
// binding is removed.
func Unbind(doc *document.Document, sessionID string) {
	s, ok := doc.Sessions[sessionID]
	if !ok {
		return
	}
	s.UserID = ""
	if s.Temp == nil {
		delete(doc.Sessions, sessionID)
		return
	}
	doc.Sessions[sessionID] = s
}
