package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/swnsheet/internal/platform/random"
	"github.com/louisbranch/swnsheet/internal/services/character/api/httpapi"
	"github.com/louisbranch/swnsheet/internal/services/character/service"
	"github.com/louisbranch/swnsheet/internal/services/character/storage/memory"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/louisbranch/swnsheet/internal/services/sheet/controller"
	"github.com/louisbranch/swnsheet/internal/services/sheet/view"
)

// recordingBackend pins whatever it is asked to and remembers each request.
type recordingBackend struct {
	mu          sync.Mutex
	pins        []client.Attribute
	download    client.Download
	downloadErr error
}

func (b *recordingBackend) GetCharacter(context.Context) (client.Record, error) {
	return client.Record{Name: "Rook", Strength: 12}, nil
}

func (b *recordingBackend) NewCharacter(context.Context) (client.Record, error) {
	return client.Record{Name: "Rook"}, nil
}

func (b *recordingBackend) RollAttributes(context.Context) (client.Record, error) {
	return client.Record{Name: "Rook"}, nil
}

func (b *recordingBackend) ChangeAttribute(_ context.Context, attr client.Attribute) (client.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins = append(b.pins, attr)
	return client.Record{Name: "Rook", ChangedAttribute: attr}, nil
}

func (b *recordingBackend) SetDetail(_ context.Context, _ client.Detail, value string) (client.Record, error) {
	return client.Record{Name: value}, nil
}

func (b *recordingBackend) UploadCharacter(context.Context, string, io.Reader) (client.Record, error) {
	return client.Record{Name: "Rook"}, nil
}

func (b *recordingBackend) DownloadCharacter(context.Context) (client.Download, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.download, b.downloadErr
}

func (b *recordingBackend) lastPin() client.Attribute {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pins) == 0 {
		return ""
	}
	return b.pins[len(b.pins)-1]
}

func newFakeSheetServer(t *testing.T, backend controller.Backend) string {
	t.Helper()
	registry, err := NewSessionRegistry(func() (controller.Backend, error) { return backend, nil }, false)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	handler, err := NewHandler(registry, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newSheetServer(t *testing.T) (*SessionRegistry, string) {
	t.Helper()

	sessions, err := httpapi.NewSessions("test-secret", false)
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	api, err := httpapi.NewHandler(service.New(memory.New(), random.Fixed(9)), sessions)
	if err != nil {
		t.Fatalf("new api handler: %v", err)
	}
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	registry, err := NewSessionRegistry(ClientBackendFactory(apiServer.URL), false)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	target, _ := url.Parse(apiServer.URL)
	handler, err := NewHandler(registry, target)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	sheetServer := httptest.NewServer(handler)
	t.Cleanup(sheetServer.Close)
	return registry, sheetServer.URL
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar:     jar,
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) send(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	req, _ := http.NewRequest(http.MethodGet, b.base+path, nil)
	return b.send(req)
}

func (b *browser) action(path string, form url.Values, htmx bool) (*http.Response, string) {
	req, _ := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.send(req)
}

func (b *browser) upload(filename, content string) string {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", filename)
	_, _ = io.WriteString(part, content)
	_ = writer.Close()
	req, _ := http.NewRequest(http.MethodPost, b.base+"/actions/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	_, html := b.send(req)
	return html
}

func mustContain(t *testing.T, html string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Fatalf("response missing %q:\n%s", want, html)
		}
	}
}

func TestPageMountsAndSetsSessionCookie(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)

	resp, html := b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	mustContain(t, html, "<!doctype html>", `value="Default Name"`, `name="setTo14" value="NONE" checked`, "Download Character")

	var found bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName {
			found = true
		}
	}
	if !found {
		t.Fatal("expected sheet session cookie")
	}
}

func TestHTMXActionsReturnFragment(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)
	b.get("/")

	_, html := b.action("/actions/roll", nil, true)
	if strings.Contains(html, "<!doctype html>") {
		t.Fatal("HTMX response should be a fragment")
	}
	mustContain(t, html, `<main id="sheet">`)

	_, html = b.action("/actions/attribute", url.Values{"setTo14": {"strength"}}, true)
	mustContain(t, html, `name="setTo14" value="STRENGTH" checked`, `id="strength" type="text" value="14"`)

	_, html = b.action("/actions/detail", url.Values{"detail": {"NAME"}, "value": {"Juno"}}, true)
	mustContain(t, html, `value="Juno"`)
}

func TestFullPagePostRedirects(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)
	b.get("/")

	resp, _ := b.action("/actions/new", nil, false)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("status = %d location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestUploadValidationAndSuccess(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)
	b.get("/")

	empty := b.upload("", "")
	mustContain(t, empty, `id="name"`, `type="file"`)
	if strings.Contains(empty, `role="alert"`) {
		t.Fatalf("submitting without a file should only re-render:\n%s", empty)
	}

	tooLarge := b.upload("big.json", strings.Repeat(" ", 2<<20))
	mustContain(t, tooLarge, "Failed to upload character data")
	if strings.Contains(tooLarge, "File must be a JSON file") {
		t.Fatal("oversized .json file reported as not JSON")
	}

	mustContain(t, b.upload("sheet.txt", "{}"), "File must be a JSON file", `type="file"`)
	mustContain(t, b.upload("bad.json", "{"), "Invalid JSON format")
	mustContain(t, b.upload("good.json", `{"mName":"Corvin","mWisdom":18}`), `value="Corvin"`, `value="+2"`)
}

func TestDownloadStreamsExport(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)
	b.get("/")
	b.action("/actions/detail", url.Values{"detail": {"name"}, "value": {"Nova Kell"}}, true)

	resp, body := b.get("/actions/download")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != "attachment; filename=nova_kell.json" {
		t.Fatalf("Content-Disposition = %q", got)
	}
	mustContain(t, body, `"mName": "Nova Kell"`)
}

func TestBrowsersAreIsolated(t *testing.T) {
	registry, base := newSheetServer(t)
	alice := newBrowser(t, base)
	bob := newBrowser(t, base)
	alice.get("/")
	bob.get("/")

	alice.action("/actions/detail", url.Values{"detail": {"NAME"}, "value": {"Alice"}}, true)
	_, html := bob.get("/")
	if strings.Contains(html, `value="Alice"`) {
		t.Fatal("bob sees alice's character")
	}
	if registry.Len() != 2 {
		t.Fatalf("registry.Len() = %d, want 2", registry.Len())
	}
}

func TestAPIProxyForwards(t *testing.T) {
	_, base := newSheetServer(t)
	b := newBrowser(t, base)
	resp, body := b.get("/api/character")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	mustContain(t, body, `"mName":"Default Name"`)
}

func TestHealthz(t *testing.T) {
	_, base := newSheetServer(t)
	resp, _ := newBrowser(t, base).get("/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAttributeRadiosForwardTheirOwnIdentifier(t *testing.T) {
	backend := &recordingBackend{}
	b := newBrowser(t, newFakeSheetServer(t, backend))
	b.get("/")

	for _, attr := range view.NewAttributesPanel(view.AttributeCallbacks{}).Options() {
		_, html := b.action("/actions/attribute", url.Values{view.SetTo14Group: {string(attr)}}, true)
		if got := backend.lastPin(); got != attr {
			t.Fatalf("backend received %q, want %q", got, attr)
		}
		if got := strings.Count(html, "checked"); got != 1 {
			t.Fatalf("%s: checked radios = %d, want 1:\n%s", attr, got, html)
		}
		mustContain(t, html, fmt.Sprintf(`name="setTo14" value="%s" checked`, attr))
	}
}

func TestFailedDownloadRendersPage(t *testing.T) {
	backend := &recordingBackend{downloadErr: errors.New("character service unavailable")}
	b := newBrowser(t, newFakeSheetServer(t, backend))

	_, page := b.get("/")
	mustContain(t, page, `<a class="download" href="/actions/download">`)

	resp, html := b.get("/actions/download")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		t.Fatalf("Location = %q, want no redirect", loc)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		t.Fatalf("Content-Disposition = %q on failure", cd)
	}
	mustContain(t, html, "<!doctype html>", "Failed to download character data", `action="/actions/retry"`)
}

func TestDownloadFilenameIsHeaderEncoded(t *testing.T) {
	backend := &recordingBackend{download: client.Download{
		Filename:    `Ærin "Vale".json`,
		ContentType: "application/json",
		Body:        []byte(`{}`),
	}}
	b := newBrowser(t, newFakeSheetServer(t, backend))
	b.get("/")

	resp, _ := b.get("/actions/download")
	header := resp.Header.Get("Content-Disposition")
	if strings.Contains(header, `\u`) {
		t.Fatalf("Content-Disposition = %q uses Go escapes", header)
	}
	disposition, params, err := mime.ParseMediaType(header)
	if err != nil {
		t.Fatalf("parse %q: %v", header, err)
	}
	if disposition != "attachment" || params["filename"] != `Ærin "Vale".json` {
		t.Fatalf("disposition = %q params = %v", disposition, params)
	}
}
