package wordlist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeWordlist(t *testing.T, content string) string {
	t.Helper()
	wl := filepath.Join(t.TempDir(), "passwords.txt")
	if err := os.WriteFile(wl, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return wl
}

func TestLoadKeepsOrderAndDuplicates(t *testing.T) {
	wl := writeWordlist(t, "  wrong1\nwrong2\r\n\nwrong1\n#notacomment\ncorrect  \n")

	got, err := Load(wl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"wrong1", "wrong2", "wrong1", "#notacomment", "correct"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadDeduplication(t *testing.T) {
	wl := writeWordlist(t, "admin\nadmin\nlogin\nadmin\n")

	got, err := Source{Path: wl, Dedupe: true}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"admin", "login"}) {
		t.Errorf("expected 2 deduplicated entries, got %v", got)
	}
}

func TestLoadBlankLinesOnly(t *testing.T) {
	wl := writeWordlist(t, "\n   \n\t\n\n")

	got, err := Load(wl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty sequence, got %v", got)
	}
}

func TestLoadRereadsFile(t *testing.T) {
	wl := writeWordlist(t, "a\n")
	src := Source{Path: wl}

	first, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(wl, []byte("a\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || len(second) != 2 {
		t.Errorf("first=%v second=%v, want a fresh read each time", first, second)
	}
}

func TestLoadStdin(t *testing.T) {
	got, err := Source{Path: "-", Stdin: strings.NewReader("x\ny\n")}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, ErrWordlistUnreadable) {
		t.Errorf("error = %v, want ErrWordlistUnreadable", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want to wrap os.ErrNotExist", err)
	}

	if _, err := Load(""); !errors.Is(err, ErrWordlistUnreadable) {
		t.Errorf("empty path error = %v", err)
	}
}
