package reader

import (
	"archive/zip"
	"bytes"
	"errors"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/scene/writer"
	"github.com/achilleasa/spheretrace/types"
)

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReadTextScene(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.scene": `# test scene
camera 1 2 3 0.5 0.25
light 15 4 -2 10 255 255 200

sphere 0 1 0 1 10 20 30 0.9 0.9 1.5 0.1 32
include extra.scene
`,
		"extra.scene": "random 10 42\n",
	})

	sc, err := ReadScene(filepath.Join(dir, "main.scene"))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Spheres) != 12 {
		t.Fatalf("expected 12 spheres; got %d", len(sc.Spheres))
	}
	if sc.Camera.Position != types.XYZ(1, 2, 3) || sc.Camera.Yaw != 0.5 || sc.Camera.Pitch != 0.25 {
		t.Fatalf("unexpected camera %v", sc.Camera)
	}

	light := sc.Spheres[0]
	if !light.IsLight || light.Radius != 10 || light.Color != (color.RGBA{255, 255, 200, 255}) {
		t.Fatalf("unexpected light sphere %+v", light)
	}

	glass := sc.Spheres[1]
	expGlass := scene.Sphere{
		Center:          types.XYZ(0, 1, 0),
		Radius:          1,
		Color:           color.RGBA{10, 20, 30, 255},
		Reflectivity:    0.9,
		Transparency:    0.9,
		RefractiveIndex: 1.5,
		Diffuse:         0.1,
		Specular:        32,
	}
	if glass != expGlass {
		t.Fatalf("expected sphere %+v; got %+v", expGlass, glass)
	}

	rng := rand.New(rand.NewSource(42))
	for index := 2; index < 12; index++ {
		if exp := scene.NewRandomSphere(rng, false); sc.Spheres[index] != exp {
			t.Fatalf("expected random sphere %d to match the seeded generator", index)
		}
	}
}

func TestReadTextSceneDefaultCamera(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.scene": "random 3 1\n"})

	sc, err := ReadScene(filepath.Join(dir, "main.scene"))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Camera == nil || sc.Camera.Position != types.XYZ(2, 4, 15) {
		t.Fatalf("expected default camera; got %v", sc.Camera)
	}
}

func TestReadTextSceneErrors(t *testing.T) {
	type spec struct {
		contents string
		expError string
	}
	specs := []spec{
		{"camera 1 2 3\n", `main.scene:1: unsupported syntax for "camera"; expected 5 arguments; got 3`},
		{"\n\nsphere 0 0 0 1 255 0 0\n", `main.scene:3: unsupported syntax for "sphere"; expected 12 arguments; got 7`},
		{"light 0 0 0 1 300 0 0\n", `main.scene:1: invalid color component "300"`},
		{"light 0 0 0 -1 255 0 0\n", `main.scene:1: sphere radius must not be negative`},
		{"sphere 0 0 0 1 1 1 1 2 0 1 0 0\n", `main.scene:1: reflectivity must be in [0, 1]`},
		{"sphere 0 0 0 1 1 1 1 0 0 0 0 0\n", `main.scene:1: refractive index must be positive`},
		{"sphere 0 0 x 1 1 1 1 0 0 1 0 0\n", `main.scene:1: could not parse argument 3 of "sphere"`},
		{"random ten 1\n", `main.scene:1: invalid sphere count`},
		{"include missing.scene\n", `main.scene:1: open`},
		{"include main.scene\n", `include depth exceeds 16`},
	}

	for index, s := range specs {
		dir := writeFiles(t, map[string]string{"main.scene": s.contents})
		_, err := ReadScene(filepath.Join(dir, "main.scene"))
		if err == nil || !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expError, err)
		}
	}
}

func TestReadTextSceneIncludeErrorStack(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.scene":  "random 1 1\ninclude extra.scene\n",
		"extra.scene": "sphere 1\n",
	})

	_, err := ReadScene(filepath.Join(dir, "main.scene"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "extra.scene:1:") || !strings.Contains(err.Error(), "included from") || !strings.Contains(err.Error(), "main.scene:2") {
		t.Fatalf("expected error to reference the include chain; got %v", err)
	}
}

func TestReadEmptyScene(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.scene": "# nothing here\ncamera 0 0 0 0 0\n"})
	_, err := ReadScene(filepath.Join(dir, "main.scene"))
	if !errors.Is(err, scene.ErrNoSpheres) {
		t.Fatalf("expected ErrNoSpheres; got %v", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	res := asset.NewResourceFromStream("scene.obj", strings.NewReader(""))
	defer res.Close()
	if _, err := Read(res); err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}

func TestZipSceneRoundTrip(t *testing.T) {
	sc := scene.NewRandomScene(rand.New(rand.NewSource(9)), 25)
	sc.Camera.Rotate(0.3, 0.2)

	filename := filepath.Join(t.TempDir(), "compiled.zip")
	if err := writer.WriteScene(sc, filename); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadScene(filename)
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Spheres) != len(sc.Spheres) {
		t.Fatalf("expected %d spheres; got %d", len(sc.Spheres), len(loaded.Spheres))
	}
	for index := range sc.Spheres {
		if loaded.Spheres[index] != sc.Spheres[index] {
			t.Fatalf("expected sphere %d to survive the round trip", index)
		}
	}
	if *loaded.Camera != *sc.Camera {
		t.Fatalf("expected camera %v; got %v", sc.Camera, loaded.Camera)
	}
}

func TestZipSceneMissingData(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("readme.txt"); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	res := asset.NewResourceFromStream("scene.zip", &buf)
	defer res.Close()
	if _, err := Read(res); err == nil || !strings.Contains(err.Error(), "does not contain scene.bin") {
		t.Fatalf("expected missing data error; got %v", err)
	}
}
