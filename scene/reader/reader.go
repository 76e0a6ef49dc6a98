package reader

import (
	"fmt"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file or URL.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read scene from a resource selecting a reader based on the resource extension.
func Read(res *asset.Resource) (*scene.Scene, error) {
	var reader Reader
	switch res.Ext() {
	case ".scene":
		reader = newTextSceneReader()
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format %q", res.Ext())
	}
	return reader.Read(res)
}
