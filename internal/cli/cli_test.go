package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vennkit/vennkit/pkg/cache"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png", []string{"svg", "png"}},
	}
	for _, tc := range tests {
		if got := parseFormats(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCacheDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(base, appName) {
		t.Errorf("dir = %q", dir)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"render": false, "serve": false, "assets": false,
		"cache": false, "completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewCacheWarnsAndFallsBack(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	// A cache dir whose parent is a regular file cannot be created.
	occupied := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(occupied, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{Cache: CacheConfig{Dir: filepath.Join(occupied, "sub")}}

	store, err := c.newCache(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*cache.NullCache); !ok {
		t.Errorf("store = %T, want fallback to NullCache", store)
	}
	if !bytes.Contains(buf.Bytes(), []byte("caching disabled")) {
		t.Error("degrading to a null cache should log a warning")
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v", c.Logger.GetLevel())
	}
}
