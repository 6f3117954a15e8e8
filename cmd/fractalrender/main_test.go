package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func TestRun_WritesImages(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "m.png")
	if err := run([]string{"-o", pngPath, "-w", "24", "-h", "16", "-iter", "50", "-scale", "2", "-log", "error"}); err != nil {
		t.Fatalf("run() = %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Errorf("png is %v, want 24x16", b)
	}

	tifPath := filepath.Join(dir, "j.tiff")
	wavPath := filepath.Join(dir, "orbit.wav")
	if err := run([]string{"-o", tifPath, "-w", "8", "-h", "8", "-julia", "-0.8,0.156",
		"-orbit-wav", wavPath, "-orbit", "0.1,0.1", "-orbit-length", "50ms", "-log", "error"}); err != nil {
		t.Fatalf("run() = %v", err)
	}
	tf, err := os.Open(tifPath)
	if err != nil {
		t.Fatal(err)
	}
	defer tf.Close()
	if _, err := tiff.Decode(tf); err != nil {
		t.Errorf("tiff.Decode() = %v", err)
	}
	if fi, err := os.Stat(wavPath); err != nil || fi.Size() <= 44 {
		t.Errorf("orbit wav missing or empty: %v", err)
	}
}

func TestRun_RejectsBadArguments(t *testing.T) {
	dir := t.TempDir()
	for _, args := range [][]string{
		{"-o", filepath.Join(dir, "x.bmp")},
		{"-o", filepath.Join(dir, "x.png"), "-scale", "0"},
		{"-o", filepath.Join(dir, "x.png"), "-w", "4", "-h", "4", "-orbit-wav", filepath.Join(dir, "o.wav"), "-orbit", "nope"},
		{"-nosuchflag"},
	} {
		if err := run(append(args, "-log", "error")); err == nil {
			t.Errorf("run(%v) succeeded", args)
		}
	}
}
