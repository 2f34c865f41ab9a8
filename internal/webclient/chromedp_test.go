package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/linkscout/internal/demoserver"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/webclient"
)

// requireChrome skips the test when no headless browser is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func newChromedp(t *testing.T) *webclient.ChromedpClient {
	t.Helper()
	client, err := webclient.NewChromedpClient(webclient.Config{
		Client:    webclient.ClientChromedp,
		Timeout:   20 * time.Second,
		IdleAfter: 200 * time.Millisecond,
	}, logging.Nop{})
	if err != nil {
		t.Fatalf("NewChromedpClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestChromedpClient_RejectsNonGET(t *testing.T) {
	t.Parallel()
	client := newChromedp(t)

	_, err := client.Do(context.Background(), &webclient.Request{Method: http.MethodHead, URL: "http://example.com/contact"})
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("err = %v, want method not supported", err)
	}
	if _, err := client.Do(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}

func TestChromedpClient_RendersSandboxContactPage(t *testing.T) {
	requireChrome(t)
	t.Parallel()

	ts := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig(), logging.Nop{}).Handler())
	defer ts.Close()
	client := newChromedp(t)

	resp, err := client.Get(context.Background(), ts.URL+"/contact")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "mailto:editor@growthnotes.test") {
		t.Errorf("rendered contact page lacks the editor address:\n%s", resp.Body)
	}
	if resp.FinalURL != ts.URL+"/contact" {
		t.Errorf("final URL = %q", resp.FinalURL)
	}

	resp, err = client.Get(context.Background(), ts.URL+"/missing")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", resp.StatusCode)
	}
}

// Contact details written by script only show up in the rendered DOM.
func TestChromedpClient_SeesScriptInsertedContact(t *testing.T) {
	requireChrome(t)
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<!doctype html><html><body><div id="c"></div>
<script>
document.getElementById("c").innerHTML = '<a href="mailto:' + ["pitch", "growthnotes.test"].join("@") + '">write to us</a>';
</script></body></html>`)
	}))
	defer ts.Close()

	resp, err := newChromedp(t).Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(resp.Body), `href="mailto:pitch@growthnotes.test"`) {
		t.Errorf("script-inserted mailto missing from rendered body:\n%s", resp.Body)
	}
}
