package reader

import (
	"bufio"
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

// Includes nested deeper than this are rejected to break include cycles.
const maxIncludeDepth = 16

type textSceneReader struct {
	logger log.Logger

	spheres []scene.Sphere
	camera  *scene.Camera

	// Include chain used for annotating errors.
	errStack []string
}

// Create a new text scene reader.
func newTextSceneReader() *textSceneReader {
	return &textSceneReader{
		logger:   log.New("text scene reader"),
		spheres:  make([]scene.Sphere, 0),
		errStack: make([]string, 0),
	}
}

// Read scene definition.
func (r *textSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	if r.camera == nil {
		r.logger.Warning("no camera defined; using default camera")
		r.camera = scene.NewCamera(types.XYZ(2, 4, 15), -math32.Pi, 0)
	}

	sc := scene.New(r.spheres, r.camera)
	if err = sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", sceneRes.Path(), err)
	}

	r.logger.Noticef("parsed scene with %d spheres in %d ms", len(sc.Spheres), time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *textSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf("%s", strings.Trim(
		fmt.Sprintf("%s:%d: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

// Push a frame to the error stack.
func (r *textSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *textSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse the text scene format.
func (r *textSceneReader) parse(res *asset.Resource) error {
	var lineNum int
	var err error

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "include":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "include"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			if len(r.errStack) >= maxIncludeDepth {
				return r.emitError(res.Path(), lineNum, "include depth exceeds %d", maxIncludeDepth)
			}

			r.pushFrame(fmt.Sprintf("included from %s:%d", res.Path(), lineNum))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}

			r.popFrame()
		case "camera":
			args, err := parseFloats(lineTokens, 5)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.camera = scene.NewCamera(types.XYZ(args[0], args[1], args[2]), args[3], args[4])
		case "light":
			s, err := parseSphere(lineTokens, false)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			s.IsLight = true
			s.RefractiveIndex = 1
			r.spheres = append(r.spheres, s)
		case "sphere":
			s, err := parseSphere(lineTokens, true)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.spheres = append(r.spheres, s)
		case "random":
			if len(lineTokens) != 3 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "random"; expected 2 arguments: count seed; got %d`, len(lineTokens)-1)
			}
			count, err := strconv.ParseUint(lineTokens[1], 10, 31)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "invalid sphere count: %s", err.Error())
			}
			seed, err := strconv.ParseInt(lineTokens[2], 10, 64)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "invalid seed: %s", err.Error())
			}
			rng := rand.New(rand.NewSource(seed))
			for index := uint64(0); index < count; index++ {
				r.spheres = append(r.spheres, scene.NewRandomSphere(rng, false))
			}
		default:
			r.logger.Warningf("%s:%d: skipping unsupported directive %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err)
	}
	return nil
}

// Parse a light or sphere definition:
//
// light cx cy cz r R G B
// sphere cx cy cz r R G B reflectivity transparency ior diffuse specular
func parseSphere(lineTokens []string, withMaterial bool) (scene.Sphere, error) {
	expArgs := 7
	if withMaterial {
		expArgs = 12
	}
	if len(lineTokens)-1 != expArgs {
		return scene.Sphere{}, fmt.Errorf(`unsupported syntax for "%s"; expected %d arguments; got %d`, lineTokens[0], expArgs, len(lineTokens)-1)
	}

	geom, err := parseFloats(lineTokens[:5], 4)
	if err != nil {
		return scene.Sphere{}, err
	}
	if geom[3] < 0 {
		return scene.Sphere{}, fmt.Errorf("sphere radius must not be negative; got %f", geom[3])
	}

	var rgb [3]uint8
	for index := range rgb {
		channel, err := strconv.ParseUint(lineTokens[5+index], 10, 8)
		if err != nil {
			return scene.Sphere{}, fmt.Errorf("invalid color component %q: expected a value in [0, 255]", lineTokens[5+index])
		}
		rgb[index] = uint8(channel)
	}

	s := scene.Sphere{
		Center: types.XYZ(geom[0], geom[1], geom[2]),
		Radius: geom[3],
		Color:  color.RGBA{rgb[0], rgb[1], rgb[2], 255},
	}
	if !withMaterial {
		return s, nil
	}

	mat, err := parseFloats(append(lineTokens[:1:1], lineTokens[8:]...), 5)
	if err != nil {
		return scene.Sphere{}, err
	}
	for index, name := range []string{"reflectivity", "transparency"} {
		if mat[index] < 0 || mat[index] > 1 {
			return scene.Sphere{}, fmt.Errorf("%s must be in [0, 1]; got %f", name, mat[index])
		}
	}
	if mat[2] <= 0 {
		return scene.Sphere{}, fmt.Errorf("refractive index must be positive; got %f", mat[2])
	}

	s.Reflectivity = mat[0]
	s.Transparency = mat[1]
	s.RefractiveIndex = mat[2]
	s.Diffuse = mat[3]
	s.Specular = mat[4]
	return s, nil
}

// Parse the count float arguments following the directive token.
func parseFloats(lineTokens []string, count int) ([]float32, error) {
	if len(lineTokens)-1 != count {
		return nil, fmt.Errorf(`unsupported syntax for "%s"; expected %d arguments; got %d`, lineTokens[0], count, len(lineTokens)-1)
	}

	values := make([]float32, count)
	for tokIdx := 1; tokIdx <= count; tokIdx++ {
		val, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return nil, fmt.Errorf(`could not parse argument %d of "%s": %s`, tokIdx, lineTokens[0], err.Error())
		}
		values[tokIdx-1] = float32(val)
	}
	return values, nil
}
