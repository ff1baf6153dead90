package sessionkey

import (
	"crypto/sha256"
	"slices"
	"strings"
)

// FallbackKey derives SHA-256(chatID + ":" + sorted(userIDs) joined by ",").
// The result is predictable by anyone who knows the ids and offers no
// secrecy; it only keeps chats usable while key distribution is down.
func FallbackKey(chatID string, userIDs []string) []byte {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	sum := sha256.Sum256([]byte(chatID + ":" + strings.Join(ids, ",")))
	return sum[:]
}

func participantIDs(participants []Participant) []string {
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
