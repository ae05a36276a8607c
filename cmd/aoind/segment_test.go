package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jchantrell/aoind/internal/assets"
	"github.com/jchantrell/aoind/internal/config"
)

func TestParseTile(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"32x48", 32, 48, true},
		{"32X48", 32, 48, true},
		{"16", 16, 16, true},
		{"0x8", 0, 0, false},
		{"axb", 0, 0, false},
	}

	for _, tt := range tests {
		w, h, err := parseTile(tt.in)
		if (err == nil) != tt.ok || w != tt.w || h != tt.h {
			t.Errorf("parseTile(%q) = %d, %d, %v", tt.in, w, h, err)
		}
	}
}

func TestGraphicsFileNum(t *testing.T) {
	n, err := graphicsFileNum("Graficos/1234.bmp")
	if err != nil || n != 1234 {
		t.Fatalf("got %d, %v", n, err)
	}
	if _, err := graphicsFileNum("sheet.png"); err == nil {
		t.Fatal("expected an error for a non-numeric name")
	}
}

func TestShapeNameFollowsConfiguredSystems(t *testing.T) {
	cfg = &config.Config{HeadSystem: "mold", HelmetSystem: "directional"}
	t.Cleanup(func() { cfg = nil })

	tests := map[string]string{
		"Cabezas.ind":    "mold",
		"Cascos.ind":     "directional",
		"Graficos.ind":   "grh",
		"Personajes.ind": "directional",
		"unknown.ind":    "mold",
	}
	for file, want := range tests {
		if got := shapeName(kindForFile("INIT/" + file)); got != want {
			t.Errorf("%s: got %s, want %s", file, got, want)
		}
	}
}

func TestSelectedKinds(t *testing.T) {
	all, err := selectedKinds(nil)
	if err != nil || len(all) != len(assets.Kinds()) {
		t.Fatalf("got %v, %v", all, err)
	}

	kinds, err := selectedKinds([]string{"Heads", "weapons"})
	if err != nil || len(kinds) != 2 || kinds[0] != assets.Heads {
		t.Fatalf("got %v, %v", kinds, err)
	}

	if _, err := selectedKinds([]string{"capes"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestConvertOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "converted")

	got, err := convertOutput("INIT/cabezas.IND", assets.Heads, dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "Cabezas.ind"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}

	got, err = convertOutput("legacy/Custom.ind", "", dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "Custom.ind"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestConvertOutputRewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "HEADS.IND")
	if err := os.WriteFile(existing, []byte{0, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := convertOutput(existing, assets.Heads, dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != existing {
		t.Fatalf("got %s, want %s", got, existing)
	}
}
