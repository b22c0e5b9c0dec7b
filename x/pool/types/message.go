package types

import "strconv"

// AuthorizationMessage is the byte string signed for a withdrawal of amount to
// destination, rendered as "{amount}_{destination}". The vault verifies the
// same bytes, with destination being the owner's token account.
func AuthorizationMessage(amount uint64, destination string) []byte {
	msg := make([]byte, 0, 21+len(destination))
	msg = strconv.AppendUint(msg, amount, 10)
	msg = append(msg, '_')
	return append(msg, destination...)
}
