// Package domain contains core concepts of the chat relay.
// This file defines the line protocol spoken by clients.
package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const recipientSeparator = ","

// ParseLine splits a client line of the form "r1,r2,...:body".
// Everything before the first ':' is the recipient list, each entry trimmed;
// everything after it is the body, trimmed. Duplicated recipients are kept.
// ok is false when the line has no ':' at all.
func ParseLine(line string) (to []PeerName, body string, ok bool) {
	dest, msg, found := strings.Cut(line, ":")
	if !found {
		return nil, "", false
	}
	to = lo.Map(strings.Split(dest, recipientSeparator), func(name string, _ int) PeerName {
		return PeerName(strings.TrimSpace(name))
	})
	return to, strings.TrimSpace(msg), true
}

// FormatDelivery builds the line written to a recipient's socket.
func FormatDelivery(from PeerName, body string) string {
	return fmt.Sprintf("from %s: %s\n", from, body)
}
