package writer

import (
	"archive/zip"
	"encoding/gob"
	"io"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
)

const (
	dataFile = "scene.bin"
)

type zipSceneWriter struct {
	logger log.Logger
	out    io.Writer
	name   string
}

// Create a new zip scene writer
func newZipSceneWriter(out io.Writer, name string) *zipSceneWriter {
	return &zipSceneWriter{
		logger: log.New("zip writer"),
		out:    out,
		name:   name,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	w.logger.Noticef("writing compressed scene to %s", w.name)
	start := time.Now()

	// Create zip writer
	zw := zip.NewWriter(w.out)

	// Write scene data
	cw, err := zw.Create(dataFile)
	if err != nil {
		zw.Close()
		return err
	}
	encoder := gob.NewEncoder(cw)
	if err = encoder.Encode(sc); err != nil {
		zw.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
