package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var cameraDirections = map[string]scene.CameraDirection{
	"forward":  scene.Forward,
	"backward": scene.Backward,
	"left":     scene.Left,
	"right":    scene.Right,
	"up":       scene.Up,
	"down":     scene.Down,
}

// The state of the camera as exchanged with clients.
type CameraState struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Z     float32 `json:"z"`
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

// A camera update. Absolute values are applied first, followed by the
// optional move along the camera basis.
type cameraRequest struct {
	X     *float32 `json:"x"`
	Y     *float32 `json:"y"`
	Z     *float32 `json:"z"`
	Yaw   *float32 `json:"yaw"`
	Pitch *float32 `json:"pitch"`

	Move   string  `json:"move"`
	Amount float32 `json:"amount"`
}

// A sphere as exchanged with clients.
type SphereState struct {
	Index  int     `json:"index"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
	Radius float32 `json:"radius"`
}

// A sphere edit. Only the supplied fields are changed.
type sphereRequest struct {
	X      *float32 `json:"x"`
	Y      *float32 `json:"y"`
	Z      *float32 `json:"z"`
	Radius *float32 `json:"radius"`
}

type bvhRequest struct {
	Enabled *bool `json:"enabled"`
}

// The BVH state returned by the bvh endpoint.
type BVHState struct {
	Enabled   bool          `json:"enabled"`
	Nodes     int           `json:"nodes"`
	BuildTime time.Duration `json:"build_time"`
}

// A Server exposes a renderer over HTTP so frames can be previewed from a
// browser.
type Server struct {
	logger   log.Logger
	echo     *echo.Echo
	renderer renderer.Renderer
	scene    *scene.Scene

	// Serializes camera updates.
	cameraMutex sync.Mutex

	// Guards scene reads against sphere edits.
	sceneMutex sync.RWMutex
}

// Create a new preview server for the given renderer and scene. The scene
// must be the one the renderer is rendering; sphere edits are applied to it
// through the renderer.
func New(r renderer.Renderer, sc *scene.Scene) *Server {
	s := &Server{
		logger:   log.New("server"),
		echo:     echo.New(),
		renderer: r,
		scene:    sc,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debugf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s.echo.GET("/frame.png", s.getFrame)
	s.echo.GET("/camera", s.getCamera)
	s.echo.POST("/camera", s.updateCamera)
	s.echo.GET("/stats", s.getStats)
	s.echo.GET("/scene", s.getScene)
	s.echo.GET("/spheres/:index", s.getSphere)
	s.echo.PUT("/spheres/:index", s.updateSphere)
	s.echo.POST("/bvh", s.setBVH)

	return s
}

// Get the HTTP handler for the server routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Listen on addr and serve requests until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Noticef("serving preview on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Gracefully shutdown the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) getFrame(c echo.Context) error {
	frame, err := s.renderer.Render()
	if err != nil {
		s.logger.Errorf("render failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, frame); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) getCamera(c echo.Context) error {
	return c.JSON(http.StatusOK, cameraState(s.renderer.Camera()))
}

func (s *Server) updateCamera(c echo.Context) error {
	req := cameraRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request: " + err.Error(),
		})
	}

	var moveDir scene.CameraDirection
	if req.Move != "" {
		var ok bool
		if moveDir, ok = cameraDirections[req.Move]; !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("unknown move direction %q", req.Move),
			})
		}
	}

	s.cameraMutex.Lock()
	defer s.cameraMutex.Unlock()

	camera := s.renderer.Camera()
	if req.X != nil {
		camera.Position[0] = *req.X
	}
	if req.Y != nil {
		camera.Position[1] = *req.Y
	}
	if req.Z != nil {
		camera.Position[2] = *req.Z
	}
	if req.Yaw != nil {
		camera.Yaw = *req.Yaw
	}
	if req.Pitch != nil {
		camera.Pitch = *req.Pitch
	}
	camera.Update()
	if req.Move != "" {
		camera.Move(moveDir, req.Amount)
	}

	if err := s.renderer.SetCamera(&camera); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, cameraState(camera))
}

func (s *Server) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.renderer.Stats())
}

func (s *Server) getScene(c echo.Context) error {
	s.sceneMutex.RLock()
	defer s.sceneMutex.RUnlock()
	return c.String(http.StatusOK, s.scene.Stats())
}

func (s *Server) setBVH(c echo.Context) error {
	req := bvhRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request: " + err.Error(),
		})
	}
	if req.Enabled == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "missing enabled field",
		})
	}

	if err := s.renderer.SetUseBVH(*req.Enabled); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	stats := s.renderer.Stats()
	return c.JSON(http.StatusOK, BVHState{
		Enabled:   *req.Enabled,
		Nodes:     stats.BVHNodes,
		BuildTime: stats.BVHBuildTime,
	})
}

// Parse the sphere index path parameter.
func sphereIndex(c echo.Context, sc *scene.Scene) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return -1, fmt.Errorf("%w: %q", ErrInvalidSphereIndex, c.Param("index"))
	}
	if index < 0 || index >= len(sc.Spheres) {
		return -1, fmt.Errorf("%w: %d", ErrSphereNotFound, index)
	}
	return index, nil
}

func (s *Server) getSphere(c echo.Context) error {
	s.sceneMutex.RLock()
	defer s.sceneMutex.RUnlock()

	index, err := sphereIndex(c, s.scene)
	if err != nil {
		return c.JSON(errorStatus(err), map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, sphereState(index, &s.scene.Spheres[index]))
}

func (s *Server) updateSphere(c echo.Context) error {
	req := sphereRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Failed to parse request: " + err.Error(),
		})
	}
	if req.Radius != nil && !(*req.Radius >= 0) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("%s: radius must be non-negative", ErrInvalidSphere),
		})
	}

	s.sceneMutex.Lock()
	defer s.sceneMutex.Unlock()

	var state SphereState
	err := s.renderer.EditScene(func(sc *scene.Scene) error {
		index, err := sphereIndex(c, sc)
		if err != nil {
			return err
		}

		sphere := &sc.Spheres[index]
		if req.X != nil {
			sphere.Center[0] = *req.X
		}
		if req.Y != nil {
			sphere.Center[1] = *req.Y
		}
		if req.Z != nil {
			sphere.Center[2] = *req.Z
		}
		if req.Radius != nil {
			sphere.Radius = *req.Radius
		}

		state = sphereState(index, sphere)
		return nil
	})
	if err != nil {
		return c.JSON(errorStatus(err), map[string]string{
			"error": err.Error(),
		})
	}

	s.logger.Infof("moved sphere %d to (%f, %f, %f) with radius %f", state.Index, state.X, state.Y, state.Z, state.Radius)
	return c.JSON(http.StatusOK, state)
}

// Map an error to an HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSphereNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidSphereIndex), errors.Is(err, ErrInvalidSphere):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sphereState(index int, sphere *scene.Sphere) SphereState {
	return SphereState{
		Index:  index,
		X:      sphere.Center[0],
		Y:      sphere.Center[1],
		Z:      sphere.Center[2],
		Radius: sphere.Radius,
	}
}

func cameraState(camera scene.Camera) CameraState {
	return CameraState{
		X:     camera.Position[0],
		Y:     camera.Position[1],
		Z:     camera.Position[2],
		Yaw:   camera.Yaw,
		Pitch: camera.Pitch,
	}
}
