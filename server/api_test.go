package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/receipt-printer-bridge/bridge"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform/platformtest"
)

const btPrinter = "AA:BB:CC:DD:EE:FF"

func newTestAPI(t *testing.T) (*API, *platformtest.Platform) {
	t.Helper()
	p := &platformtest.Platform{
		Bluetooth: []platform.BluetoothDevice{
			{Address: btPrinter, Name: "RPP02N", Class: platformtest.ImagingClass},
		},
		USB:       []platform.USBDevice{platformtest.PrinterUSB(1, 5, 0x04b8, 0x0202)},
		Reachable: map[string]bool{btPrinter: true},
	}
	b := bridge.New(p, zerolog.Nop())
	t.Cleanup(func() { b.Close() })
	return NewAPI(b, APIConfig{AllowedOrigins: []string{"http://localhost:5173"}}, zerolog.Nop()), p
}

func do(t *testing.T, api *API, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func okOf(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var resp okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.OK
}

func receiptBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 32, 16))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestAPIListPrinters(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := do(t, api, http.MethodGet, "/printers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var printers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &printers))
	require.Len(t, printers, 2)
	assert.Equal(t, "bluetooth", printers[0]["type"])
	assert.Equal(t, "usb", printers[1]["type"])
}

func TestAPIConnectPrintDisconnect(t *testing.T) {
	api, p := newTestAPI(t)

	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/connect", `{"address":"`+btPrinter+`"}`)))
	assert.True(t, okOf(t, do(t, api, http.MethodGet, "/connection?address="+btPrinter, "")))

	body, err := json.Marshal(map[string]any{
		"imageData": receiptBase64(t),
		"options":   map[string]any{"copies": 2, "cutPaper": false, "openCashDrawer": true},
	})
	require.NoError(t, err)
	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/print", string(body))))
	assert.Equal(t, []string{"image", "drawer", "image", "drawer"}, platformtest.Ops(p.Last().Writes()))

	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/test-print", "")))

	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/disconnect", "")))
	assert.False(t, okOf(t, do(t, api, http.MethodGet, "/connection?address="+btPrinter, "")))
	assert.Empty(t, p.Live())
}

func TestAPIPrintWithoutOptions(t *testing.T) {
	api, p := newTestAPI(t)
	require.True(t, okOf(t, do(t, api, http.MethodPost, "/connect", `{"address":"04b8:0202"}`)))

	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/print", `{"imageData":"`+receiptBase64(t)+`"}`)))
	assert.Equal(t, []string{"image", "cut"}, platformtest.Ops(p.Last().Writes()))
}

func TestAPIFailures(t *testing.T) {
	api, _ := newTestAPI(t)

	assert.False(t, okOf(t, do(t, api, http.MethodPost, "/connect", `{"address":"00:00:00:00:00:00"}`)))
	assert.False(t, okOf(t, do(t, api, http.MethodPost, "/print", `{"imageData":"`+receiptBase64(t)+`"}`)))
	assert.False(t, okOf(t, do(t, api, http.MethodPost, "/test-print", "")))

	rec := do(t, api, http.MethodPost, "/connect", `{"address":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodPost, "/connect", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodGet, "/connect", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPICORS(t *testing.T) {
	api, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/print", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/printers", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIPrintOptionsAsString(t *testing.T) {
	api, p := newTestAPI(t)
	require.True(t, okOf(t, do(t, api, http.MethodPost, "/connect", `{"address":"`+btPrinter+`"}`)))

	body, err := json.Marshal(map[string]any{
		"imageData": receiptBase64(t),
		"options":   `{"copies":2,"cutPaper":false,"openCashDrawer":true}`,
	})
	require.NoError(t, err)

	assert.True(t, okOf(t, do(t, api, http.MethodPost, "/print", string(body))))
	assert.Equal(t, []string{"image", "drawer", "image", "drawer"}, platformtest.Ops(p.Last().Writes()))
}

func TestOptionsText(t *testing.T) {
	assert.Equal(t, `{"copies":2}`, optionsText(json.RawMessage(`{"copies":2}`)))
	assert.Equal(t, `{"copies":2}`, optionsText(json.RawMessage(`"{\"copies\":2}"`)))
	assert.Equal(t, "", optionsText(nil))
	assert.Equal(t, "", optionsText(json.RawMessage("null")))
}
