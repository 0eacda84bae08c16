package storage

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8080/illustrations/")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	url, err := s.Put(ctx, "chat/abc.svg", []byte("<svg/>"), "image/svg+xml")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "http://localhost:8080/illustrations/chat/abc.svg" {
		t.Errorf("Put() url = %q", url)
	}

	rc, err := s.Get(ctx, "chat/abc.svg")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "<svg/>" {
		t.Errorf("Get() = %q, want %q", data, "<svg/>")
	}

	if err := s.Delete(ctx, "chat/abc.svg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "chat/abc.svg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "chat/abc.svg"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestLocalStore_RejectsBadKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../escape.svg", "/abs.svg", "a//b", "a/../../b", `a\b`} {
		t.Run(key, func(t *testing.T) {
			if _, err := s.Put(context.Background(), key, []byte("x"), "text/plain"); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
			}
		})
	}
}
