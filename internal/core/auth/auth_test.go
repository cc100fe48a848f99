package auth

import "testing"

func TestSignAndVerify(t *testing.T) {
	const secret = "webhook-secret"
	body := []byte(`{"orderUuid":"abc"}`)

	sig := Sign(secret, body)
	if !Verify(secret, body, sig) {
		t.Error("signature did not verify")
	}
	if Verify(secret, []byte(`{"orderUuid":"tampered"}`), sig) {
		t.Error("tampered body verified")
	}
	if Verify("other-secret", body, sig) {
		t.Error("wrong secret verified")
	}
	if Verify(secret, body, "not-hex") {
		t.Error("malformed signature verified")
	}
}
