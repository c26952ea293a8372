package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath holds the path to the compiled imagecomplete binary. Set in
// TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "imagecomplete-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "imagecomplete")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = rootDir()
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Mark binary as empty so tests skip gracefully.
		binaryPath = ""
		os.Exit(m.Run())
	}

	os.Exit(m.Run())
}

// rootDir returns the absolute path of the cmd/imagecomplete source directory.
func rootDir() string {
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(err)
	}
	return dir
}

func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("imagecomplete binary not built; skipping")
	}
}

func runImagecomplete(t *testing.T, stdin []byte, args ...string) (stdout, stderr []byte, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// createTestImages writes a gradient input PNG and a mask PNG (the
// right half unknown) to dir, returning both paths.
func createTestImages(t *testing.T, dir string, size int) (inputPath, maskPath string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	mask := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 100, A: 255})
			if x >= size/2 {
				mask.SetGray(x, y, color.Gray{Y: 0}) // unknown
			} else {
				mask.SetGray(x, y, color.Gray{Y: 255}) // known
			}
		}
	}

	inputPath = filepath.Join(dir, "input.png")
	f, err := os.Create(inputPath)
	if err != nil {
		t.Fatalf("creating input PNG: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("encoding input PNG: %v", err)
	}
	f.Close()

	maskPath = filepath.Join(dir, "mask.png")
	mf, err := os.Create(maskPath)
	if err != nil {
		t.Fatalf("creating mask PNG: %v", err)
	}
	if err := png.Encode(mf, mask); err != nil {
		mf.Close()
		t.Fatalf("encoding mask PNG: %v", err)
	}
	mf.Close()
	return inputPath, maskPath
}

func TestComplete_FillsHole(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	inputPath, maskPath := createTestImages(t, dir, 32)
	outPath := filepath.Join(dir, "output.png")

	_, stderr, err := runImagecomplete(t, nil, "--ii", inputPath, "--im", maskPath, "--io", outPath)
	if err != nil {
		t.Fatalf("imagecomplete failed: %v\nstderr: %s", err, stderr)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding output PNG config: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Errorf("output dimensions = %dx%d, want 32x32", cfg.Width, cfg.Height)
	}
}

func TestComplete_ShowSettingsExitsWithoutMask(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	inputPath, _ := createTestImages(t, dir, 16)

	stdout, stderr, err := runImagecomplete(t, nil, "--ii", inputPath, "--ss")
	if err != nil {
		t.Fatalf("imagecomplete -ss failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(string(stdout), "LatticeGapX:") {
		t.Errorf("expected -ss output to mention LatticeGapX, got:\n%s", stdout)
	}
}

func TestComplete_MissingInput(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runImagecomplete(t, nil, "--im", "x.png", "--io", "y.png")
	if err == nil {
		t.Fatal("expected non-zero exit for missing -ii, got nil")
	}
}

func TestComplete_MissingMaskWithoutShowSettings(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	inputPath, _ := createTestImages(t, dir, 16)

	_, _, err := runImagecomplete(t, nil, "--ii", inputPath, "--io", filepath.Join(dir, "out.png"))
	if err == nil {
		t.Fatal("expected non-zero exit for missing -im, got nil")
	}
}

func TestComplete_BadPatchType(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	inputPath, maskPath := createTestImages(t, dir, 16)

	_, _, err := runImagecomplete(t, nil, "--ii", inputPath, "--im", maskPath, "--io", filepath.Join(dir, "out.png"), "--sct", "bogus")
	if err == nil {
		t.Fatal("expected non-zero exit for unrecognized -sct, got nil")
	}
}

func TestComplete_PatchesRoundTrip(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	inputPath, maskPath := createTestImages(t, dir, 32)
	outPath := filepath.Join(dir, "output.png")
	patchesPath := filepath.Join(dir, "patches.bin")

	_, stderr, err := runImagecomplete(t, nil, "--ii", inputPath, "--im", maskPath, "--io", outPath, "--po", patchesPath)
	if err != nil {
		t.Fatalf("solving with -po failed: %v\nstderr: %s", err, stderr)
	}
	data, err := os.ReadFile(patchesPath)
	if err != nil {
		t.Fatalf("reading patches file: %v", err)
	}
	if len(data) < 4 {
		t.Fatal("patches file too small to contain a count header")
	}

	replayOut := filepath.Join(dir, "replay.png")
	_, stderr, err = runImagecomplete(t, nil, "--ii", inputPath, "--im", maskPath, "--io", replayOut, "--pi", patchesPath)
	if err != nil {
		t.Fatalf("replaying with -pi failed: %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(replayOut); err != nil {
		t.Fatalf("expected replay output: %v", err)
	}
}

func TestHelp(t *testing.T) {
	skipIfNoBinary(t)
	stdout, _, err := runImagecomplete(t, nil, "-h")
	if err != nil {
		t.Fatalf("expected zero exit for -h, got: %v", err)
	}
	if !strings.Contains(string(stdout), "imagecomplete") {
		t.Errorf("expected usage text to mention imagecomplete, got:\n%s", stdout)
	}
}
