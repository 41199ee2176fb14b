package minio

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
	if _, err := New(Config{Bucket: "assets"}); err == nil {
		t.Fatalf("expected error without endpoint or client")
	}
	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "assets", Prefix: "/game/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.object("asset:units/orc"); got != "game/asset:units/orc" {
		t.Fatalf("unexpected object name %q", got)
	}
}

func TestObjectWithoutPrefix(t *testing.T) {
	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "assets"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.object("asset:ui/title"); got != "asset:ui/title" {
		t.Fatalf("unexpected object name %q", got)
	}
}

func TestIsNoSuchKey(t *testing.T) {
	if !isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}) {
		t.Fatalf("NoSuchKey not detected")
	}
	if isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}) {
		t.Fatalf("AccessDenied misread as a miss")
	}
	if isNoSuchKey(errors.New("dial tcp: refused")) {
		t.Fatalf("transport error misread as a miss")
	}
}
