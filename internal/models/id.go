package models

// Internally an entity with ID == 0 is pending (not yet persisted).
// Old clients instead sent Date.now()-style placeholder identifiers, so
// payloads arriving from them are sanitized once at the decode boundary
// with IsPlaceholderID; nothing past that boundary inspects magnitudes.

// placeholderThreshold: real upstream ids are small sequential integers,
// client-generated placeholders are millisecond timestamps (12+ digits).
const placeholderThreshold = int64(100_000_000_000)

// IsPlaceholderID reports whether id looks like a client-generated
// placeholder rather than an upstream-assigned identifier.
func IsPlaceholderID(id int64) bool {
	return id >= placeholderThreshold
}

// CanonicalID collapses placeholder ids to the pending form (0).
func CanonicalID(id int64) int64 {
	if IsPlaceholderID(id) {
		return 0
	}
	return id
}
