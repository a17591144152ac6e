// Package domain contains core concepts of the chat system.
// This file defines Party identities and conversations.
// No runtime, network, or UI logic should be added here.
package domain

// PartyID is the opaque identity of a registered user.
// It is issued elsewhere and never validated beyond presence.
type PartyID string

// Conversation is the unordered pair of parties exchanging messages.
// First always sorts before or equal to Second, so both directions share one value.
type Conversation struct {
	First  PartyID
	Second PartyID
}

func NewConversation(a, b PartyID) Conversation {
	if b < a {
		a, b = b, a
	}
	return Conversation{First: a, Second: b}
}

func (c Conversation) Includes(p PartyID) bool {
	return c.First == p || c.Second == p
}
