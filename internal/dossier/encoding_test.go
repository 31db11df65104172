package dossier

import (
	"bytes"
	"testing"
)

func utf16leBytes(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func utf16beBytes(s string) []byte {
	out := []byte{0xFE, 0xFF}
	for _, r := range s {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

func TestNormalizeToUTF8_Plain(t *testing.T) {
	input := []byte("<h1>${company_name}</h1>")
	out, err := NormalizeToUTF8(input)
	if err != nil {
		t.Fatalf("NormalizeToUTF8() returned error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("Plain UTF-8 should pass through unchanged")
	}
}

func TestNormalizeToUTF8_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	out, err := NormalizeToUTF8(input)
	if err != nil {
		t.Fatalf("NormalizeToUTF8() returned error: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Expected BOM stripped, got %q", out)
	}
}

func TestNormalizeToUTF8_UTF16LE(t *testing.T) {
	out, err := NormalizeToUTF8(utf16leBytes("hello"))
	if err != nil {
		t.Fatalf("NormalizeToUTF8() returned error: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", out)
	}
}

func TestNormalizeToUTF8_UTF16BE(t *testing.T) {
	out, err := NormalizeToUTF8(utf16beBytes("hello"))
	if err != nil {
		t.Fatalf("NormalizeToUTF8() returned error: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", out)
	}
}

func TestNormalizeToUTF8_Invalid(t *testing.T) {
	if _, err := NormalizeToUTF8([]byte{0x80, 0x81, 0x82}); err == nil {
		t.Fatal("Expected error for invalid UTF-8")
	}
}
