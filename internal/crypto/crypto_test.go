package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	plain := "Fixed the flaky deploy script and paired on the API."
	enc, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if enc == plain {
		t.Fatalf("Expected ciphertext to differ from plaintext")
	}
	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if dec != plain {
		t.Errorf("Expected %q, got %q", plain, dec)
	}
}

func TestCipherNonceIsRandom(t *testing.T) {
	c, _ := NewCipher(testKey())
	a, _ := c.Encrypt("same text")
	b, _ := c.Encrypt("same text")
	if a == b {
		t.Errorf("Expected two encryptions of the same text to differ")
	}
}

func TestNilCipherPassesThrough(t *testing.T) {
	var c *Cipher
	got, err := c.Encrypt("plain")
	if err != nil || got != "plain" {
		t.Fatalf("Expected passthrough, got %q, %v", got, err)
	}
	got, err = c.Decrypt("plain")
	if err != nil || got != "plain" {
		t.Fatalf("Expected passthrough, got %q, %v", got, err)
	}
}

func TestNewCipherRejectsShortKey(t *testing.T) {
	if _, err := NewCipher([]byte("short")); err != ErrKeySize {
		t.Errorf("Expected ErrKeySize, got %v", err)
	}
}

func TestNewCipherFromBase64(t *testing.T) {
	c, err := NewCipherFromBase64("")
	if err != nil || c != nil {
		t.Fatalf("Expected nil cipher for empty key, got %v, %v", c, err)
	}
	c, err = NewCipherFromBase64(base64.StdEncoding.EncodeToString(testKey()))
	if err != nil || c == nil {
		t.Fatalf("Expected cipher, got %v, %v", c, err)
	}
}

func TestDecryptRejectsTamperedText(t *testing.T) {
	c, _ := NewCipher(testKey())
	enc, _ := c.Encrypt("hello")
	raw, _ := base64.StdEncoding.DecodeString(enc)
	raw[len(raw)-1] ^= 0xFF
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Errorf("Expected error decrypting tampered ciphertext")
	}
}
