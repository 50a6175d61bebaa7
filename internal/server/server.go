// Package server exposes APNG assembly and inspection over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/pngs2apng/internal/logger"
	"github.com/samcharles93/pngs2apng/internal/version"
	"github.com/samcharles93/pngs2apng/internal/webui"
	"github.com/samcharles93/pngs2apng/pkg/apng"
)

const (
	// FramesField is the multipart field carrying the ordered frame files.
	FramesField = "frames"

	// HeaderAnimationID carries the ID assigned to an assembled animation.
	HeaderAnimationID = "X-Animation-Id"

	MIMEImageAPNG = "image/apng"

	DefaultMaxUploadBytes int64 = 64 << 20

	multipartMemory = 8 << 20
)

// Config configures a Server.
type Config struct {
	// MaxUploadBytes caps request bodies. Zero selects DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// WorkDir is where per-request frame files are staged. Empty selects
	// os.TempDir().
	WorkDir string
	Logger  logger.Logger
}

type Server struct {
	cfg Config
	log logger.Logger
}

func NewServer(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/apng", s.handleAssemble)
	e.POST("/v1/inspect", s.handleInspect)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Resolve(),
	})
}

func (s *Server) handleIndex(c *echo.Context) error {
	page, err := webui.Index()
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/html; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(page)
	return err
}

func (s *Server) handleAssemble(c *echo.Context) error {
	req := c.Request()
	if req.ContentLength > s.cfg.MaxUploadBytes {
		return writeTooLarge(c, s.cfg.MaxUploadBytes)
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.MaxUploadBytes)

	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return writeTooLarge(c, s.cfg.MaxUploadBytes)
		}
		return writeBadRequest(c, "invalid multipart form: "+err.Error())
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	files := req.MultipartForm.File[FramesField]
	if len(files) == 0 {
		return writeBadRequest(c, fmt.Sprintf("no %q files in form", FramesField))
	}

	id := uuid.NewString()
	log := s.log.With("animation_id", id)

	dir, err := os.MkdirTemp(s.cfg.WorkDir, "apng-"+id+"-")
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	defer func() { _ = os.RemoveAll(dir) }()

	paths := make([]string, len(files))
	for i, fh := range files {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%04d.png", i))
		if err := stageFrame(fh, paths[i]); err != nil {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
		}
	}

	var out bytes.Buffer
	asm := apng.Assembler{
		OnFrame: func(f apng.Frame) {
			log.Debug("frame written", "index", f.Index, "file", files[f.Index].Filename,
				"width", f.Width, "height", f.Height, "bytes", f.DataSize)
		},
	}
	if err := asm.AssembleTo(&out, paths); err != nil {
		if isImageError(err) {
			return writeError(c, http.StatusBadRequest, "invalid_image", err.Error())
		}
		log.Error("assemble failed", "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	log.Info("animation assembled", "frames", len(files), "bytes", out.Len())

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, MIMEImageAPNG)
	res.Header().Set(HeaderAnimationID, id)
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(out.Bytes())
	return err
}

func stageFrame(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// InspectResponse is returned by /v1/inspect.
type InspectResponse struct {
	Valid   bool       `json:"valid"`
	Problem string     `json:"problem,omitempty"`
	Info    *apng.Info `json:"info"`
}

func (s *Server) handleInspect(c *echo.Context) error {
	req := c.Request()
	if req.ContentLength > s.cfg.MaxUploadBytes {
		return writeTooLarge(c, s.cfg.MaxUploadBytes)
	}
	body := http.MaxBytesReader(c.Response(), req.Body, s.cfg.MaxUploadBytes)

	info, err := apng.Inspect(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return writeTooLarge(c, s.cfg.MaxUploadBytes)
		}
		if isImageError(err) {
			return writeError(c, http.StatusBadRequest, "invalid_image", err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	resp := InspectResponse{Valid: true, Info: info}
	if err := info.Verify(); err != nil {
		resp.Valid = false
		resp.Problem = err.Error()
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(b)
	return err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
