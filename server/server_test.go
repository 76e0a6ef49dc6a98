package server

import (
	"encoding/json"
	"image/color"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
)

func newTestServer(t *testing.T) (*Server, renderer.Renderer) {
	return newSceneServer(t, scene.NewRandomScene(rand.New(rand.NewSource(1)), 20))
}

func newSceneServer(t *testing.T, sc *scene.Scene) (*Server, renderer.Renderer) {
	r, err := renderer.NewDefault(sc, tracer.NaiveScheduler(), renderer.Options{
		FrameW:   32,
		FrameH:   24,
		MaxDepth: 3,
		Workers:  2,
		UseBVH:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(r, sc), r
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetFrame(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	rec := serve(s, http.MethodGet, "/frame.png", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png content type; got %q", ct)
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 32 || bounds.Dy() != 24 {
		t.Fatalf("expected 32x24 frame; got %v", bounds)
	}

	rec = serve(s, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d", rec.Code)
	}
	var stats renderer.FrameStats
	if err = json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if len(stats.Tracers) != 2 || stats.BVHNodes == 0 {
		t.Fatalf("expected stats for 2 tracers with a BVH; got %+v", stats)
	}
}

func TestUpdateCamera(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	rec := serve(s, http.MethodPost, "/camera", `{"x": 1, "y": 2, "z": 3, "yaw": 0, "pitch": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d: %s", rec.Code, rec.Body.String())
	}

	// Move forward along +Z (yaw 0)
	rec = serve(s, http.MethodPost, "/camera", `{"move": "forward", "amount": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, http.MethodGet, "/camera", "")
	var state CameraState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.X != 1 || state.Y != 2 || state.Z != 5 || state.Yaw != 0 {
		t.Fatalf("expected camera at (1, 2, 5) with yaw 0; got %+v", state)
	}
	if cam := r.Camera(); cam.Position[2] != 5 {
		t.Fatalf("expected renderer camera to be updated; got %v", cam.Position)
	}
}

func TestUpdateCameraErrors(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	type spec struct {
		body    string
		expCode int
	}
	specs := []spec{
		{`{"move": "sideways", "amount": 1}`, http.StatusBadRequest},
		{`{"x": "not a number"}`, http.StatusBadRequest},
		{`{`, http.StatusBadRequest},
	}

	for index, sp := range specs {
		if rec := serve(s, http.MethodPost, "/camera", sp.body); rec.Code != sp.expCode {
			t.Fatalf("[spec %d] expected status %d; got %d", index, sp.expCode, rec.Code)
		}
	}
}

func TestGetScene(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	rec := serve(s, http.MethodGet, "/scene", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Spheres") {
		t.Fatalf("expected scene stats table; got %d: %s", rec.Code, rec.Body.String())
	}
}

// Render a frame through the server and return the color of a pixel.
func framePixel(t *testing.T, s *Server, x, y int) color.RGBA {
	rec := serve(s, http.MethodGet, "/frame.png", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRunningFrameStats(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	for frame := 0; frame < 2; frame++ {
		framePixel(t, s, 0, 0)
	}

	rec := serve(s, http.MethodGet, "/stats", "")
	var stats renderer.FrameStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Frames != 2 {
		t.Fatalf("expected 2 rendered frames; got %d", stats.Frames)
	}
	if stats.TotalRenderTime <= 0 || stats.AverageRenderTime <= 0 || stats.FPS <= 0 {
		t.Fatalf("expected running frame time totals; got %+v", stats)
	}
}

func TestSetBVH(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	type spec struct {
		body     string
		expCode  int
		expNodes bool
	}
	specs := []spec{
		{`{"enabled": false}`, http.StatusOK, false},
		{`{"enabled": true}`, http.StatusOK, true},
		{`{"enabled": true}`, http.StatusOK, true},
		{`{}`, http.StatusBadRequest, false},
		{`{"enabled": "yes"}`, http.StatusBadRequest, false},
	}

	for index, sp := range specs {
		rec := serve(s, http.MethodPost, "/bvh", sp.body)
		if rec.Code != sp.expCode {
			t.Fatalf("[spec %d] expected status %d; got %d: %s", index, sp.expCode, rec.Code, rec.Body.String())
		}
		if rec.Code != http.StatusOK {
			continue
		}

		var state BVHState
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatal(err)
		}
		if (state.Nodes > 0) != sp.expNodes || state.Enabled != sp.expNodes {
			t.Fatalf("[spec %d] expected bvh enabled %t; got %+v", index, sp.expNodes, state)
		}
		if nodes := r.Stats().BVHNodes; nodes != state.Nodes {
			t.Fatalf("[spec %d] expected renderer to report %d BVH nodes; got %d", index, state.Nodes, nodes)
		}
	}
}

func TestUpdateSphere(t *testing.T) {
	sphereColor := color.RGBA{200, 100, 50, 255}
	sc := scene.New([]scene.Sphere{
		{Center: types.XYZ(50, 0, 10), Radius: 1, Color: sphereColor},
		{Center: types.XYZ(-50, 0, 10), Radius: 1, Color: sphereColor},
		{Center: types.XYZ(0, 50, 10), Radius: 1, Color: sphereColor},
	}, scene.NewCamera(types.XYZ(0, 0, 0), 0, 0))

	s, r := newSceneServer(t, sc)
	defer r.Close()

	// Ambient contribution of the sphere color
	expHit := color.RGBA{20, 10, 5, 255}

	// The 32x24 frame center looks straight down +Z
	if got := framePixel(t, s, 16, 12); got == expHit {
		t.Fatalf("expected frame center to miss all spheres; got %v", got)
	}

	rec := serve(s, http.MethodPut, "/spheres/0", `{"x": 0, "y": 0, "z": 10, "radius": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d: %s", rec.Code, rec.Body.String())
	}
	var state SphereState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if exp := (SphereState{Index: 0, Z: 10, Radius: 2}); state != exp {
		t.Fatalf("expected sphere state %+v; got %+v", exp, state)
	}
	if r.Stats().BVHNodes != 5 {
		t.Fatalf("expected BVH to be rebuilt with 5 nodes; got %d", r.Stats().BVHNodes)
	}

	if got := framePixel(t, s, 16, 12); got != expHit {
		t.Fatalf("expected moved sphere to be hit at the frame center with color %v; got %v", expHit, got)
	}

	// Partial updates only change the supplied fields
	rec = serve(s, http.MethodPut, "/spheres/0", `{"radius": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200; got %d: %s", rec.Code, rec.Body.String())
	}
	rec = serve(s, http.MethodGet, "/spheres/0", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if exp := (SphereState{Index: 0, Z: 10, Radius: 3}); state != exp {
		t.Fatalf("expected sphere state %+v; got %+v", exp, state)
	}
}

func TestUpdateSphereErrors(t *testing.T) {
	s, r := newTestServer(t)
	defer r.Close()

	type spec struct {
		method  string
		target  string
		body    string
		expCode int
	}
	specs := []spec{
		{http.MethodPut, "/spheres/1000", `{"x": 1}`, http.StatusNotFound},
		{http.MethodPut, "/spheres/-1", `{"x": 1}`, http.StatusNotFound},
		{http.MethodPut, "/spheres/abc", `{"x": 1}`, http.StatusBadRequest},
		{http.MethodPut, "/spheres/0", `{"radius": -1}`, http.StatusBadRequest},
		{http.MethodPut, "/spheres/0", `{"x": "left"}`, http.StatusBadRequest},
		{http.MethodGet, "/spheres/1000", "", http.StatusNotFound},
	}

	for index, sp := range specs {
		if rec := serve(s, sp.method, sp.target, sp.body); rec.Code != sp.expCode {
			t.Fatalf("[spec %d] expected status %d; got %d: %s", index, sp.expCode, rec.Code, rec.Body.String())
		}
	}
}
