// Package room derives the canonical key of a two-party chat room.
package room

import (
	"strings"

	"github.com/fathima-sithara/snip/internal/errs"
)

// Separator joins the two participant ids. User ids never contain it.
const Separator = "_"

// Key returns the same key for (a, b) and (b, a): the lexicographically
// smaller id, Separator, then the larger id.
func Key(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", errs.InvalidArgument("room key needs two user ids")
	}
	if a == b {
		return "", errs.InvalidArgument("room key needs two distinct user ids, got %q twice", a)
	}
	if strings.Contains(a, Separator) || strings.Contains(b, Separator) {
		return "", errs.InvalidArgument("user id must not contain %q", Separator)
	}
	if a > b {
		a, b = b, a
	}
	return a + Separator + b, nil
}

// Peer returns the participant of key that is not me.
func Peer(key, me string) (string, bool) {
	left, right, ok := strings.Cut(key, Separator)
	if !ok {
		return "", false
	}
	switch me {
	case left:
		return right, true
	case right:
		return left, true
	}
	return "", false
}
