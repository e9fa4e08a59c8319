package utils

import "testing"

func TestKeyLockScriptCompiles(t *testing.T) {
	// Compile-time smoke test: the release script should be initialized.
	if keyLockReleaseScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}
