package common

// WipeByteArray zeroes b in place. Passwords and keys are wiped this way
// once they are no longer needed. A nil slice is ignored.
func WipeByteArray(b []byte) {
	clear(b)
}
