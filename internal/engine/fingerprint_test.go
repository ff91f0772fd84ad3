package engine

import "testing"

// TestFingerprintDeterministic verifies identical inputs always produce
// identical keys.
func TestFingerprintDeterministic(t *testing.T) {
	memories := []Memory{
		{ID: "m1", Content: "ate a meal"},
		{ID: "m2", Content: "fought a raider"},
	}

	a := ComputeFingerprint("pawn1", memories)
	b := ComputeFingerprint("pawn1", memories)
	if a != b {
		t.Errorf("Expected identical fingerprints, got %q and %q", a, b)
	}
}

// TestFingerprintSensitivity verifies any change in order, count, content
// identity, or entity changes the key.
func TestFingerprintSensitivity(t *testing.T) {
	base := []Memory{
		{ID: "m1", Content: "ate a meal"},
		{ID: "m2", Content: "fought a raider"},
	}
	baseKey := ComputeFingerprint("pawn1", base)

	tests := []struct {
		name     string
		entityID string
		memories []Memory
	}{
		{
			name:     "reordered",
			entityID: "pawn1",
			memories: []Memory{base[1], base[0]},
		},
		{
			name:     "fewer entries",
			entityID: "pawn1",
			memories: base[:1],
		},
		{
			name:     "different id",
			entityID: "pawn1",
			memories: []Memory{{ID: "m1", Content: "ate a meal"}, {ID: "m3", Content: "fought a raider"}},
		},
		{
			name:     "different entity",
			entityID: "pawn2",
			memories: base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if key := ComputeFingerprint(tt.entityID, tt.memories); key == baseKey {
				t.Errorf("Expected a different fingerprint, got the base key %q", key)
			}
		})
	}
}

// TestFingerprintContentIdentity verifies a memory without an id is
// identified by its content hash.
func TestFingerprintContentIdentity(t *testing.T) {
	a := ComputeFingerprint("pawn1", []Memory{{Content: "ate a meal"}})
	b := ComputeFingerprint("pawn1", []Memory{{Content: "ate a meal"}})
	if a != b {
		t.Errorf("Expected stable fingerprint for id-less memories, got %q and %q", a, b)
	}

	c := ComputeFingerprint("pawn1", []Memory{{Content: "ate a feast"}})
	if a == c {
		t.Error("Expected different content to change the fingerprint")
	}
}

// TestFingerprintShape checks the entity id and count prefix the key.
func TestFingerprintShape(t *testing.T) {
	key := ComputeFingerprint("pawn1", []Memory{{ID: "m1"}, {ID: "m2"}})
	want := "pawn1_2_"
	if len(key) <= len(want) || key[:len(want)] != want {
		t.Errorf("Expected fingerprint prefixed with %q, got %q", want, key)
	}
}
