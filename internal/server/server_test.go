package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/pngs2apng/pkg/apng"
)

func newTestEcho(t *testing.T, cfg Config) *echo.Echo {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	e := echo.New()
	NewServer(cfg).Register(e)
	return e
}

func testFrame(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, files ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, data := range files {
		fw, err := mw.CreateFormFile(field, "frame"+string(rune('a'+i))+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func doRequest(e *echo.Echo, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestAssembleEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	body, ct := multipartBody(t, FramesField,
		testFrame(t, 2, 2, color.NRGBA{R: 255, A: 255}),
		testFrame(t, 2, 2, color.NRGBA{G: 255, A: 255}),
		testFrame(t, 3, 1, color.NRGBA{B: 255, A: 255}),
	)

	rec := doRequest(e, http.MethodPost, "/v1/apng", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != MIMEImageAPNG {
		t.Fatalf("content type: got %q", got)
	}
	if _, err := uuid.Parse(rec.Header().Get(HeaderAnimationID)); err != nil {
		t.Fatalf("animation id is not a uuid: %v", err)
	}

	info, err := apng.Inspect(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("inspect response: %v", err)
	}
	if err := info.Verify(); err != nil {
		t.Fatalf("verify response: %v", err)
	}
	if info.Animation == nil || info.Animation.NumFrames != 3 {
		t.Fatalf("expected 3 frames, got %+v", info.Animation)
	}
	if last := info.Frames[2]; last.Width != 3 || last.Height != 1 {
		t.Fatalf("last frame size: got %dx%d", last.Width, last.Height)
	}
}

func TestAssembleEndpointNoFrames(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	body, ct := multipartBody(t, "other", testFrame(t, 1, 1, color.NRGBA{A: 255}))

	rec := doRequest(e, http.MethodPost, "/v1/apng", ct, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if eb := decodeError(t, rec); eb.Type != "invalid_request_error" {
		t.Fatalf("error type: got %q", eb.Type)
	}
}

func TestAssembleEndpointNotMultipart(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodPost, "/v1/apng", echo.MIMEApplicationJSON, bytes.NewBufferString(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAssembleEndpointInvalidFrame(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	body, ct := multipartBody(t, FramesField,
		testFrame(t, 1, 1, color.NRGBA{A: 255}),
		[]byte(apng.Signature),
	)

	rec := doRequest(e, http.MethodPost, "/v1/apng", ct, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	eb := decodeError(t, rec)
	if eb.Type != "invalid_image" {
		t.Fatalf("error type: got %q", eb.Type)
	}
	if !strings.Contains(eb.Message, "frame 1") {
		t.Fatalf("error should name the frame: %q", eb.Message)
	}
}

func TestAssembleEndpointTooLarge(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{MaxUploadBytes: 64})
	body, ct := multipartBody(t, FramesField, testFrame(t, 8, 8, color.NRGBA{A: 255}))

	rec := doRequest(e, http.MethodPost, "/v1/apng", ct, body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInspectEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodPost, "/v1/inspect", MIMEImageAPNG,
		bytes.NewBuffer(testFrame(t, 4, 3, color.NRGBA{R: 9, A: 255})))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected valid stream, problem=%q", resp.Problem)
	}
	if resp.Info == nil || resp.Info.Header == nil || resp.Info.Header.Width != 4 || resp.Info.Header.Height != 3 {
		t.Fatalf("unexpected info: %+v", resp.Info)
	}
}

func TestInspectEndpointCorruptChecksum(t *testing.T) {
	t.Parallel()

	frame := testFrame(t, 1, 1, color.NRGBA{A: 255})
	frame[len(frame)-1] ^= 0xff // IEND crc

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodPost, "/v1/inspect", MIMEImageAPNG, bytes.NewBuffer(frame))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Valid || resp.Problem == "" {
		t.Fatalf("expected invalid stream, got %+v", resp)
	}
}

func TestInspectEndpointNotPNG(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodPost, "/v1/inspect", "text/plain", bytes.NewBufferString("hello"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if eb := decodeError(t, rec); eb.Type != "invalid_image" {
		t.Fatalf("error type: got %q", eb.Type)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{64, "64 B"},
		{2048, "2.0 KiB"},
		{64 << 20, "64.0 MiB"},
	}
	for _, tc := range tests {
		if got := formatBytes(tc.n); got != tc.want {
			t.Errorf("formatBytes(%d): got %q want %q", tc.n, got, tc.want)
		}
	}
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, Config{})
	rec := doRequest(e, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/html") {
		t.Fatalf("content type: got %q", rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(rec.Body.String(), FramesField) {
		t.Fatal("upload page should post the frames field")
	}
}
