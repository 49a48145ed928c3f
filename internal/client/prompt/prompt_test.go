package prompt

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCredentials_AsksOnlyMissing(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("s3cret\nAlice\n"), &out)

	email, password, name, err := p.Credentials("a@b.c", "", "", true)
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	if email != "a@b.c" || password != "s3cret" || name != "Alice" {
		t.Errorf("got (%q, %q, %q)", email, password, name)
	}
	if strings.Contains(out.String(), "Email") {
		t.Errorf("email asked although given: %q", out.String())
	}
}

func TestCredentials_EOF(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{})
	if _, _, _, err := p.Credentials("", "", "", false); !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v; want ErrNoInput", err)
	}
}

func TestNoteContent_FilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("filecontent\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := New(strings.NewReader(path+"\n"), &bytes.Buffer{})

	content, err := p.NoteContent()
	if err != nil {
		t.Fatalf("NoteContent returned error: %v", err)
	}
	if content != "filecontent" {
		t.Errorf("content = %q; want %q", content, "filecontent")
	}
}

func TestNoteContent_Manual(t *testing.T) {
	p := New(strings.NewReader("\nmanual data\n"), &bytes.Buffer{})
	content, err := p.NoteContent()
	if err != nil {
		t.Fatalf("NoteContent returned error: %v", err)
	}
	if content != "manual data" {
		t.Errorf("content = %q; want %q", content, "manual data")
	}
}

func TestNoteContent_MissingFile(t *testing.T) {
	p := New(strings.NewReader("/no/such/file\n"), &bytes.Buffer{})
	if _, err := p.NoteContent(); err == nil {
		t.Error("expected error for missing file")
	}
}
