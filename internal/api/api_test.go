package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolsmith_server/internal/ai"
	"toolsmith_server/internal/ai/aitest"
	"toolsmith_server/internal/build"
	"toolsmith_server/internal/deploy"
	"toolsmith_server/internal/render"
	"toolsmith_server/internal/scrape"
	"toolsmith_server/internal/store"
	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	router    *gin.Engine
	tools     *store.ToolStore
	deployDir string
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// newTestEnv wires the real components around a fake provider. A nil provider
// leaves the generator without a credential.
func newTestEnv(t *testing.T, p *aitest.Provider) *testEnv {
	t.Helper()
	settings := ai.Settings{Model: "gpt-test"}
	if p != nil {
		settings.APIKey = "sk-test"
		settings.BaseURL = p.BaseURL()
		t.Cleanup(p.Close)
	}
	gen := ai.NewGenerator(settings)

	kv, err := store.OpenSQLite(filepath.Join(t.TempDir(), "tools.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	tools := store.NewToolStore(kv)

	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	deployDir := filepath.Join(t.TempDir(), "dist")

	h := NewAPIHandler(
		gen,
		tools,
		build.NewBuilder(theme.NewResolver(gen), tools, 0, noSleep),
		renderer,
		deploy.NewDeployer(deployDir, ""),
		scrape.NewScraper(5*time.Second, true),
	)
	router := gin.New()
	RegisterRoutes(router, h)
	return &testEnv{router: router, tools: tools, deployDir: deployDir}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
}

func (e *testEnv) createTool(t *testing.T, cfg types.ToolConfig) string {
	t.Helper()
	entry, err := e.tools.Create(context.Background(), "prompt", cfg, theme.Modern())
	if err != nil {
		t.Fatal(err)
	}
	return entry.ID
}

func TestGenerate(t *testing.T) {
	p := aitest.Fixed(`{"toolType": "meta", "title": "Meta Checker", "fields": [{"name": "url", "label": "URL", "type": "url", "required": true}]}`)
	env := newTestEnv(t, p)

	w := env.do(http.MethodPost, "/api/generate", `{"prompt": "meta tags for my shop"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp GenerateResponse
	decode(t, w, &resp)
	if resp.ToolConfig.Title != "Meta Checker" || len(resp.ToolConfig.Fields) != 1 {
		t.Errorf("toolConfig = %+v", resp.ToolConfig)
	}
	if resp.Debug.RequestID == "" || resp.Debug.PromptTokens != 11 {
		t.Errorf("debug = %+v", resp.Debug)
	}
}

func TestGenerateValidation(t *testing.T) {
	p := aitest.Fixed(`{}`)
	env := newTestEnv(t, p)

	for _, body := range []string{`{}`, `{"prompt": "  "}`, `not json`} {
		if w := env.do(http.MethodPost, "/api/generate", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d", body, w.Code)
		}
	}
	if n := len(p.Requests()); n != 0 {
		t.Errorf("provider called %d times for invalid input", n)
	}
}

func TestGenerateParseFailure(t *testing.T) {
	env := newTestEnv(t, aitest.Fixed(`Sure! Here is your tool.`))

	w := env.do(http.MethodPost, "/api/generate", `{"prompt": "blog outline helper"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["error"] != "Failed to parse tool configuration" {
		t.Errorf("error = %v", body["error"])
	}
	if raw, _ := body["raw"].(string); !strings.Contains(raw, "Sure!") {
		t.Errorf("raw excerpt = %v", body["raw"])
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	p := aitest.Failing(http.StatusInternalServerError)
	env := newTestEnv(t, p)

	w := env.do(http.MethodPost, "/api/generate", `{"prompt": "keyword finder"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "server error") {
		t.Errorf("body = %s", w.Body)
	}
	if n := len(p.Requests()); n != 1 {
		t.Errorf("provider called %d times, want exactly 1", n)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	env := newTestEnv(t, aitest.Fixed(`{"score": 70, "issues": ["title too long"]}`))

	if w := env.do(http.MethodPost, "/api/analyze", `{"toolType": "meta", "input": "   "}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank input: status = %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/api/analyze", `{"toolType": "meta"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing input: status = %d", w.Code)
	}

	w := env.do(http.MethodPost, "/api/analyze", `{"toolType": "meta", "input": {"url": "https://example.com"}, "toolConfig": {"title": "Meta"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Data  map[string]any `json:"data"`
		Debug ai.Debug       `json:"debug"`
	}
	decode(t, w, &resp)
	if resp.Data["score"] != float64(70) {
		t.Errorf("data = %v", resp.Data)
	}
}

func TestAnalyzeEndpointUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, aitest.Failing(http.StatusBadGateway))

	w := env.do(http.MethodPost, "/api/analyze", `{"toolType": "meta", "input": "hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestMissingCredential(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/generate", `{"prompt": "meta tags"}`)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "not configured") {
		t.Errorf("status = %d, body %s", w.Code, w.Body)
	}
}

func TestGenerateUIUsesMockWithoutCredential(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/generate-ui", `{"prompt": "a playful pink tool called \"Glow Up\"", "toolType": "blog"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ai.UIResult
	decode(t, w, &resp)
	if !resp.Debug.Fallback {
		t.Error("expected fallback debug flag")
	}
	if resp.Customizations.Branding.BrandName != "Glow Up" || resp.ImagePrompt == "" {
		t.Errorf("mock result = %+v", resp)
	}
}

func TestGenerateLogic(t *testing.T) {
	env := newTestEnv(t, aitest.Fixed(`{"steps": ["parse", "score"]}`))

	if w := env.do(http.MethodPost, "/api/generate-logic", `{"toolConfig": {}}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing title: status = %d", w.Code)
	}

	w := env.do(http.MethodPost, "/api/generate-logic", `{"toolConfig": {"title": "Keyword Finder", "toolType": "keyword"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp map[string]json.RawMessage
	decode(t, w, &resp)
	if !strings.Contains(string(resp["processingLogic"]), "parse") || !strings.Contains(string(resp["intentAnalysis"]), "score") {
		t.Errorf("resp = %s", w.Body)
	}
}

// TestToolLifecycle verifies build, load, theme update, history, deploy, page and clear together.
func TestToolLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/build", `{"prompt": "meta tag checker", "toolConfig": {"toolType": "meta", "title": "Meta Checker", "resultTitle": "Report"}, "template": "playful", "features": ["analytics"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("build status = %d, body %s", w.Code, w.Body)
	}
	var built build.Result
	decode(t, w, &built)
	if built.ID == "" || built.Customizations.UITemplate != types.TemplatePlayful {
		t.Fatalf("build result = %+v", built)
	}
	if last := built.Log[len(built.Log)-1]; last.State != build.StateCompleted {
		t.Errorf("last event = %+v", last)
	}

	w = env.do(http.MethodGet, "/api/tools/"+built.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get tool status = %d", w.Code)
	}
	var tool ToolResponse
	decode(t, w, &tool)
	if tool.ToolConfig.Title != "Meta Checker" || !tool.Form.Generic {
		t.Errorf("tool = %+v", tool)
	}

	w = env.do(http.MethodPatch, "/api/tools/"+built.ID+"/theme", `{"branding": {"primaryColor": "#111111"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", w.Code, w.Body)
	}
	w = env.do(http.MethodGet, "/api/tools/"+built.ID, "")
	decode(t, w, &tool)
	if tool.Customizations.Branding.PrimaryColor != "#111111" || tool.Customizations.Branding.FontFamily != theme.Playful().Branding.FontFamily {
		t.Errorf("theme after patch = %+v", tool.Customizations.Branding)
	}

	w = env.do(http.MethodGet, "/api/history", "")
	var history struct {
		History []types.HistoryEntry `json:"history"`
	}
	decode(t, w, &history)
	if len(history.History) != 1 || history.History[0].ID != built.ID {
		t.Errorf("history = %+v", history)
	}

	w = env.do(http.MethodGet, "/api/history/latest", "")
	if !strings.Contains(w.Body.String(), built.ID) {
		t.Errorf("latest = %s", w.Body)
	}

	w = env.do(http.MethodPost, "/api/deploy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("deploy status = %d, body %s", w.Code, w.Body)
	}
	index, err := os.ReadFile(filepath.Join(env.deployDir, built.ID, "index.html"))
	if err != nil || !bytes.Contains(index, []byte("Meta Checker")) {
		t.Errorf("deployed page = %q, %v", index, err)
	}

	w = env.do(http.MethodGet, "/tools/"+built.ID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "--primary: #111111;") {
		t.Errorf("tool page status = %d", w.Code)
	}

	if w = env.do(http.MethodDelete, "/api/history", ""); w.Code != http.StatusNoContent {
		t.Errorf("clear status = %d", w.Code)
	}
	if w = env.do(http.MethodGet, "/api/tools/"+built.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("get after clear status = %d", w.Code)
	}
	if w = env.do(http.MethodGet, "/tools/"+built.ID, ""); w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Tool configuration not found") {
		t.Errorf("page after clear status = %d", w.Code)
	}
}

func TestBuildValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/build", `{"prompt": "x", "toolConfig": {"title": "T"}, "template": "neon"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestBuildOutlivesClient(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := `{"prompt": "meta tags for my bakery", "toolConfig": {"title": "Bakery Meta"}, "template": "modern"}`
	req := httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	history, err := env.tools.History(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].ToolConfig.Title != "Bakery Meta" {
		t.Errorf("history = %+v", history)
	}
}

func TestUpdateThemeErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createTool(t, types.ToolConfig{Title: "T"})

	if w := env.do(http.MethodPatch, "/api/tools/missing/theme", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", w.Code)
	}
	if w := env.do(http.MethodPatch, "/api/tools/"+id+"/theme", `{"branding": {"borderRadius": "huge"}}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid radius status = %d", w.Code)
	}
	if w := env.do(http.MethodPatch, "/api/tools/"+id+"/theme", ""); w.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d", w.Code)
	}
}

// TestToolAnalyzeFailSoft verifies an upstream 500 still completes with an error-shaped result.
func TestToolAnalyzeFailSoft(t *testing.T) {
	env := newTestEnv(t, aitest.Failing(http.StatusInternalServerError))
	id := env.createTool(t, types.ToolConfig{ToolType: types.ToolTypeMeta, Title: "Meta"})

	w := env.do(http.MethodPost, "/api/tools/"+id+"/analyze", `{"values": {"input": "<title>Hi</title>"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp ToolAnalyzeResponse
	decode(t, w, &resp)
	if resp.State != "complete" || resp.Error == "" {
		t.Errorf("resp = %+v", resp)
	}
	var result map[string]any
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatal(err)
	}
	if result["error"] != true || result["message"] == "" {
		t.Errorf("result = %v", result)
	}
	if len(resp.View.Blocks) == 0 {
		t.Error("error result produced an empty view")
	}
}

func TestToolAnalyze(t *testing.T) {
	p := aitest.Fixed(`{"score": 88, "tags": ["fast", "clear"]}`)
	env := newTestEnv(t, p)
	id := env.createTool(t, types.ToolConfig{
		ToolType: types.ToolTypeKeyword,
		Title:    "Keywords",
		Fields:   []types.FieldSpec{{Name: "topic", Type: "text"}, {Name: "region", Type: "text"}},
	})

	if w := env.do(http.MethodPost, "/api/tools/"+id+"/analyze", `{"values": {"topic": " ", "other": "x"}}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank submission status = %d", w.Code)
	}
	if n := len(p.Requests()); n != 0 {
		t.Errorf("provider called %d times for a blank submission", n)
	}

	w := env.do(http.MethodPost, "/api/tools/"+id+"/analyze", `{"values": {"topic": "bakeries"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ToolAnalyzeResponse
	decode(t, w, &resp)
	if resp.Error != "" || resp.View.Headline == nil || resp.View.Headline.Value != 88 {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(p.Requests()[0].User, "topic: bakeries") {
		t.Errorf("prompt = %q", p.Requests()[0].User)
	}

	if w := env.do(http.MethodPost, "/api/tools/unknown/analyze", `{"values": {"topic": "x"}}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d", w.Code)
	}
}

func TestToolPageSubmit(t *testing.T) {
	env := newTestEnv(t, aitest.Fixed(`{"summary": "**Looks good**", "checks": ["title", "description"]}`))
	id := env.createTool(t, types.ToolConfig{ToolType: types.ToolTypeMeta, Title: "Meta", ResultTitle: "Findings"})

	form := url.Values{"input": {"<title>Home</title>"}}
	req := httptest.NewRequest(http.MethodPost, "/tools/"+id, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Findings", "<strong>Looks good</strong>", "description", "&lt;title&gt;Home&lt;/title&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestBuildSocket(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/build/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	req := build.Request{
		Prompt:     "local seo audit for dentists",
		ToolConfig: types.ToolConfig{Title: "Local Audit"},
		Template:   types.TemplateModern,
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	var events []build.Event
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var e build.Event
		if err := conn.ReadJSON(&e); err != nil {
			break
		}
		events = append(events, e)
	}

	if len(events) < 3 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].State != build.StateInitializing || events[0].Progress != 0 {
		t.Errorf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.State != build.StateCompleted || last.ID == "" || last.Progress != 1 {
		t.Errorf("last event = %+v", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Progress < events[i-1].Progress {
			t.Errorf("progress went backwards at %d", i)
		}
	}

	if _, err := env.tools.Load(context.Background(), last.ID); err != nil {
		t.Errorf("socket build not persisted: %v", err)
	}
}

func TestBuildSocketInvalidRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/build/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.WriteJSON(build.Request{Prompt: ""})
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var e build.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if e.State != build.StateFailed || e.Error == "" {
		t.Errorf("event = %+v", e)
	}
}

func TestScrapeEndpoint(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Bakery</title></head><body><h1>Fresh bread</h1></body></html>`))
	}))
	defer site.Close()
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/scrape", `{"url": "`+site.URL+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var page scrape.Page
	decode(t, w, &page)
	if page.Title != "Bakery" || page.Prompt == "" {
		t.Errorf("page = %+v", page)
	}

	if w := env.do(http.MethodPost, "/api/scrape", `{"url": "ftp://example.com"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad scheme status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body)
	}
}

func TestDeployWithoutTools(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := env.do(http.MethodPost, "/api/deploy", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}
