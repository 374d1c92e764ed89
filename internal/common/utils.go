package common

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Used to shorten the in-memory lifetime of passwords.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
