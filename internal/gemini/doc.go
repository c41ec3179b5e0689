// Package gemini implements the tutoring collaborator on top of the Gemini
// generateContent REST API.
//
// Every capability is one generateContent call. Text replies are returned as
// Result values; failures are *Error values carrying a coarse Kind so callers
// can tell configuration, auth, quota, network and empty-response failures
// apart without parsing messages.
package gemini
