package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlscan/pkg/ocr"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const integrationCard = `GOVERNMENT OF NEPAL
DEPARTMENT OF TRANSPORT MANAGEMENT
D.L. No: 03-06-041605052
Name: Ram Bahadur Thapa
D.O.I: 22-02-2023
D.O.E: 21-02-2028
B.G: B+`

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	t.Setenv("UPLOAD_BASE", t.TempDir())
	t.Setenv("REDIS_ADDR", "")
	cfg = loadConfig()
	initDB()
	extractor = ocr.NewExtractor(ocr.WithEngineFactory(func() (ocr.Engine, error) {
		return textEngine{text: integrationCard}, nil
	}))
	cache = nil
	r := gin.New()
	setupRoutes(r)
	return r
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func cardPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(320, 200, color.White)))
	return buf.Bytes()
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)
	username := fmt.Sprintf("holder-%d", time.Now().UnixNano())

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": username, "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// 2. Login
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(regBody), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	login := decodeBody(t, resp)
	token, _ := login["token"].(string)
	refresh, _ := login["refresh_token"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, refresh)

	// 3. Scan a photo
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "license.png")
	_, _ = w.Write(cardPNG(t))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/scans", buf, token, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	scan := decodeBody(t, resp)
	assert.Equal(t, "success", scan["state"])
	assert.Equal(t, true, scan["verify"])
	record, _ := scan["record"].(map[string]any)
	assert.Equal(t, "03-06-041605052", record["licenseNumber"])
	scanID := scan["scan_id"]

	// 4. Saving without an expiry date is refused
	bad, _ := json.Marshal(map[string]any{"licenseNumber": "03-06-041605052"})
	resp = performRequest(r, http.MethodPost, "/licenses", bytes.NewBuffer(bad), token, "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// 5. Save the reviewed record
	record["scanId"] = scanID
	record["expiryDate"] = time.Now().AddDate(0, 0, 10).Format("02-01-2006")
	save, _ := json.Marshal(record)
	resp = performRequest(r, http.MethodPost, "/licenses", bytes.NewBuffer(save), token, "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	licenseID := decodeBody(t, resp)["id"]

	// 6. It shows up as expiring
	resp = performRequest(r, http.MethodGet, "/licenses/expiring?days=30", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	expiring := decodeBody(t, resp)
	assert.Len(t, expiring["licenses"], 1)

	// 7. Share it and open the public link
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/licenses/%v/share", licenseID), bytes.NewBufferString(`{"expires_in_hours":2}`), token, "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	shareToken, _ := decodeBody(t, resp)["token"].(string)
	resp = performRequest(r, http.MethodGet, "/shared/"+shareToken, nil, "", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/licenses/%v/qrcode", licenseID), nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	// 8. Refresh rotates the token; the old one is spent
	rb, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(rb), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(rb), "", "application/json")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// 9. Delete
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/licenses/%v", licenseID), nil, token, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	// 10. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/licenses", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, unauth.Code)
}

func TestScanRejectsUndecodableUpload(t *testing.T) {
	r := setupTestServer(t)
	tok, err := signAccessToken(cfg.JWTSecret, "admin", "administrator", time.Hour)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = w.Write([]byte("SOME CONTENT"))
	_ = mw.Close()
	resp := performRequest(r, http.MethodPost, "/scans", buf, tok, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg = loadConfig()
	initDB()
}
