package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !Verify("correct horse", encoded) {
		t.Fatal("expected password to verify")
	}
	if Verify("wrong horse", encoded) {
		t.Fatal("expected mismatch")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, _ := Hash("same-password")
	b, _ := Hash("same-password")
	if a == b {
		t.Fatal("expected different salts")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"plain",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA",
		"$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=4$c2FsdA$aGFzaA",
	}
	for _, encoded := range cases {
		if Verify("anything", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
	}
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	cheap := Params{Memory: 8 * 1024, Time: 2, Threads: 1, KeyLen: 16, SaltLen: 8}
	encoded, err := cheap.hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=2,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !Verify("correct horse", encoded) {
		t.Fatal("expected hash with non-default parameters to verify")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]bool{
		"":         false,
		"        ": false,
		"short":    false,
		"12345678": true,
		"pässwörd": true,
		"pässwör":  false,
	}
	for plain, ok := range cases {
		err := Validate(plain)
		if ok && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", plain, err)
		}
		if !ok && err != ErrTooShort {
			t.Errorf("Validate(%q) = %v, want ErrTooShort", plain, err)
		}
	}
}
