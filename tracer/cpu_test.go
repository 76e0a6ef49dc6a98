package tracer

import (
	"errors"
	"image"
	"math/rand"
	"testing"
	"time"

	"github.com/achilleasa/spheretrace/scene"
)

func renderBlock(t *testing.T, tr Tracer, req BlockRequest) error {
	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	req.DoneChan = doneChan
	req.ErrChan = errChan

	tr.Enqueue(req)
	select {
	case rows := <-doneChan:
		if rows != req.BlockH {
			t.Fatalf("expected tracer to complete %d rows; got %d", req.BlockH, rows)
		}
		return nil
	case err := <-errChan:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for tracer")
	}
	return nil
}

func TestCPUTracerRender(t *testing.T) {
	sc := scene.NewRandomScene(rand.New(rand.NewSource(1)), 30)
	frame := image.NewRGBA(image.Rect(0, 0, 32, 24))

	tr := NewCPUTracer("cpu-0", 1)
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	tr.Update(UpdateScene, sc)
	tr.Update(UpdateCamera, sc.Camera)

	req := BlockRequest{FrameW: 32, FrameH: 24, BlockY: 8, BlockH: 10, MaxDepth: 3, Frame: frame}
	if err := renderBlock(t, tr, req); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			got := frame.RGBAAt(x, y)
			if y < 8 || y >= 18 {
				if got.A != 0 {
					t.Fatalf("[pixel %d, %d] expected rows outside the block to be untouched", x, y)
				}
				continue
			}

			r := sc.Camera.Ray(float32(x)/32-0.5, -(float32(y)/24 - 0.5))
			if exp := Trace(r, sc, 3, nil); got != exp {
				t.Fatalf("[pixel %d, %d] expected %v; got %v", x, y, exp, got)
			}
		}
	}

	if stats := tr.Stats(); stats.BlockH != 10 {
		t.Fatalf("expected stats to report block height 10; got %d", stats.BlockH)
	}
}

func TestCPUTracerErrors(t *testing.T) {
	sc := scene.NewRandomScene(rand.New(rand.NewSource(1)), 5)
	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	req := BlockRequest{FrameW: 8, FrameH: 8, BlockH: 8, MaxDepth: 1, Frame: frame}

	tr := NewCPUTracer("cpu-0", 1)
	if err := renderBlock(t, tr, req); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized; got %v", err)
	}

	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	if err := renderBlock(t, tr, req); err != ErrNoSceneData {
		t.Fatalf("expected ErrNoSceneData; got %v", err)
	}

	tr.Update(UpdateScene, sc)
	if err := renderBlock(t, tr, req); err != ErrNoCamera {
		t.Fatalf("expected ErrNoCamera; got %v", err)
	}

	tr.Update(UpdateCamera, sc.Camera)
	badReq := req
	badReq.BlockY = 4
	if err := renderBlock(t, tr, badReq); !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame; got %v", err)
	}
	if err := renderBlock(t, tr, req); err != nil {
		t.Fatal(err)
	}

	tr.Update(UpdateType(99), nil)
	if err := renderBlock(t, tr, req); !errors.Is(err, ErrUnsupportedUpdate) {
		t.Fatalf("expected ErrUnsupportedUpdate; got %v", err)
	}
}

func TestCPUTracerRecoversFromUnsupportedUpdate(t *testing.T) {
	sc := scene.NewRandomScene(rand.New(rand.NewSource(1)), 5)
	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	req := BlockRequest{FrameW: 8, FrameH: 8, BlockH: 8, MaxDepth: 1, Frame: frame}

	tr := NewCPUTracer("cpu-0", 1)
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	// Valid updates in the same batch as the bad one are still applied
	tr.Update(UpdateType(42), nil)
	tr.Update(UpdateScene, sc)
	tr.Update(UpdateCamera, sc.Camera)
	if err := renderBlock(t, tr, req); !errors.Is(err, ErrUnsupportedUpdate) {
		t.Fatalf("expected ErrUnsupportedUpdate; got %v", err)
	}

	for frameIndex := 0; frameIndex < 3; frameIndex++ {
		if err := renderBlock(t, tr, req); err != nil {
			t.Fatalf("[frame %d] expected block to render after a bad update; got %v", frameIndex, err)
		}
	}
}

func TestCPUTracerCloseIsIdempotent(t *testing.T) {
	tr := NewCPUTracer("cpu-0", 1)
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	tr.Close()
	tr.Close()

	// Tracers can be restarted after a close
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	tr.Close()
}
