package gfx

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeBase64PayloadRoundTrip(t *testing.T) {
	input := []byte("hello, kitty graphics protocol")
	enc := base64.StdEncoding.EncodeToString(input)

	got, err := decodeBase64Payload([]byte(enc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("got %q, want %q", got, input)
	}
}

func TestDecodeBase64PayloadIgnoresWhitespace(t *testing.T) {
	input := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	enc := base64.StdEncoding.EncodeToString(input)
	withWS := enc[:2] + "\n \t" + enc[2:]

	got, err := decodeBase64Payload([]byte(withWS))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("got %v, want %v", got, input)
	}
}

func TestBase64WriterAcrossChunks(t *testing.T) {
	input := []byte{0, 0, 0, 0, 0, 0, 255, 0, 255, 0, 0}
	enc := base64.StdEncoding.EncodeToString(input)

	var out bytes.Buffer
	bw := newBase64Writer(&out)

	mid := len(enc) / 2
	if _, err := bw.Write([]byte(enc[:mid])); err != nil {
		t.Fatalf("write chunk 1: %v", err)
	}
	if _, err := bw.Write([]byte(enc[mid:])); err != nil {
		t.Fatalf("write chunk 2: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if !bytes.Equal(out.Bytes(), input) {
		t.Fatalf("got %v, want %v", out.Bytes(), input)
	}
}
