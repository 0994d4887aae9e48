package chess_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"elucidate/pkg/chess"
)

func TestDecodeText(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("[White \"Réti\"]"), "[White \"Réti\"]"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "1. e4 *"...), "1. e4 *"},
		{"windows-1252", []byte{'R', 0xE9, 't', 'i'}, "Réti"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'e', 0, '4', 0}, "e4"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'e', 0, '4'}, "e4"},
	}
	for _, c := range cases {
		got, err := chess.DecodeText(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %q want %q", c.name, got, c.want)
		}
	}
}

func TestReadAndCollectPGN(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		filepath.Join(dir, "b.pgn"):     "1. e4 e5 *\r\n",
		filepath.Join(sub, "a.PGN"):     "1. d4 *",
		filepath.Join(dir, "notes.txt"): "ignore me",
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	got, err := chess.CollectPGN(dir)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{filepath.Join(dir, "b.pgn"), filepath.Join(sub, "a.PGN")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("collect: got %v want %v", got, want)
	}
	text, err := chess.ReadPGNFile(filepath.Join(dir, "b.pgn"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if text != "1. e4 e5 *\n" {
		t.Fatalf("read: got %q", text)
	}
	single, err := chess.CollectPGN(filepath.Join(dir, "b.pgn"))
	if err != nil || len(single) != 1 {
		t.Fatalf("collect single file: %v %v", single, err)
	}
}
