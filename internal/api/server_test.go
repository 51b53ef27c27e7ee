package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cubetile/internal/target"
)

const resnetBody = `{
  "target": "cube-large",
  "problem": {
    "batch": 32, "ho": 28, "wo": 28, "hi": 56, "wi": 56,
    "co": 128, "co1": 8, "ci": 64, "ci1": 4,
    "kh": 3, "kw": 3, "stride_h": 2, "stride_w": 2,
    "fused_a": 1, "fused_c": 1,
    "bytes_a": 2, "bytes_b": 2, "bytes_c": 4
  }
}`

func newTestEcho(t *testing.T) (*echo.Echo, *TilingStore) {
	t.Helper()
	reg, err := target.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	tiny, err := reg.Lookup("cube-edge")
	if err != nil {
		t.Fatal(err)
	}
	tiny.Name = "no-accumulator"
	tiny.L0CSize = 512
	reg.Add(tiny)

	store := NewTilingStore()
	server := NewServer(reg, store, nil)
	e := echo.New()
	server.Register(e)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) TilingRecord {
	t.Helper()
	var out TilingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode record: %v body=%s", err, rec.Body.String())
	}
	return out
}

func TestCreateGetDeleteTilingLifecycle(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t)
	createRec := doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeRecord(t, createRec)
	if !strings.HasPrefix(created.ID, "tiling_") {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.Object != "tiling" || created.Target != "cube-large" || created.Cached {
		t.Fatalf("unexpected record: %+v", created)
	}
	if created.Descriptor.TilingID == "" || created.Descriptor.Cores.Cores() > 32 {
		t.Fatalf("unexpected descriptor: %+v", created.Descriptor)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/tilings/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}
	if got := decodeRecord(t, getRec); got.Descriptor != created.Descriptor {
		t.Fatalf("get returned a different descriptor")
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/tilings/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete response missing deleted=true: %s", delRec.Body.String())
	}
	if store.Len() != 0 {
		t.Fatalf("store still holds %d records", store.Len())
	}

	getDeletedRec := doJSON(t, e, http.MethodGet, "/v1/tilings/"+created.ID, "")
	if getDeletedRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", getDeletedRec.Code, getDeletedRec.Body.String())
	}
	delAgain := doJSON(t, e, http.MethodDelete, "/v1/tilings/"+created.ID, "")
	if delAgain.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for second delete, got %d", delAgain.Code)
	}
}

func TestCreateTilingIsCached(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t)
	first := decodeRecord(t, doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody))
	second := decodeRecord(t, doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody))

	if !second.Cached || second.ID != first.ID {
		t.Fatalf("expected cached record %s, got %+v", first.ID, second)
	}
	if second.Descriptor != first.Descriptor {
		t.Fatalf("cached descriptor differs")
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d records, want 1", store.Len())
	}

	other := strings.Replace(resnetBody, "cube-large", "cube-mid", 1)
	third := decodeRecord(t, doJSON(t, e, http.MethodPost, "/v1/tilings", other))
	if third.Cached || third.ID == first.ID {
		t.Fatalf("different target must not hit the cache: %+v", third)
	}
}

func TestCreateTilingConcurrentRequestsShareRecord(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t)
	const n = 8
	recs := make([]*httptest.ResponseRecorder, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs[i] = doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody)
		}()
	}
	wg.Wait()

	id := decodeRecord(t, recs[0]).ID
	for i, rec := range recs[1:] {
		if got := decodeRecord(t, rec).ID; got != id {
			t.Fatalf("request %d got record %s, want %s", i+1, got, id)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d records, want 1", store.Len())
	}

	if del := doJSON(t, e, http.MethodDelete, "/v1/tilings/"+id, ""); del.Code != http.StatusOK {
		t.Fatalf("delete: %d body=%s", del.Code, del.Body.String())
	}
	again := decodeRecord(t, doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody))
	if again.Cached || again.ID == id {
		t.Fatalf("request after delete must plan afresh: %+v", again)
	}
	if cached := decodeRecord(t, doJSON(t, e, http.MethodPost, "/v1/tilings", resnetBody)); !cached.Cached || cached.ID != again.ID {
		t.Fatalf("expected cached record %s, got %+v", again.ID, cached)
	}
}

func TestCreateTilingErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"malformed", `{"target":`, http.StatusBadRequest, "invalid_request_error"},
		{"unknown field", `{"target":"cube-large","tiles":1}`, http.StatusBadRequest, "invalid_request_error"},
		{"missing target", `{"problem":{}}`, http.StatusBadRequest, "target is required"},
		{"unknown target", strings.Replace(resnetBody, "cube-large", "cube-xl", 1), http.StatusBadRequest, `"param":"target"`},
		{"invalid problem", strings.Replace(resnetBody, `"batch": 32`, `"batch": 0`, 1), http.StatusBadRequest, `"param":"problem"`},
		{"unreachable", strings.Replace(resnetBody, "cube-large", "no-accumulator", 1), http.StatusUnprocessableEntity, `"code":"l0"`},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/tilings", tc.body)
		if rec.Code != tc.status {
			t.Errorf("%s: status %d, want %d body=%s", tc.name, rec.Code, tc.status, rec.Body.String())
			continue
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("%s: body %s, want %s", tc.name, rec.Body.String(), tc.want)
		}
	}
}

func TestListTargets(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/targets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var list TargetList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Object != "list" || len(list.Data) != 4 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Data[0].Name != "cube-edge" || list.Data[0].Presets[0].Name != "db-on" {
		t.Fatalf("targets not sorted or presets missing: %+v", list.Data[0])
	}
}
