package endpoint

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleFuncRendersResult(t *testing.T) {
	type params struct {
		Name string `query:"name"`
	}
	h := HandleFunc(func(_ http.ResponseWriter, _ *http.Request, p params) (Renderer, error) {
		return &JSONRenderer{Value: map[string]string{"hello": p.Name}}, nil
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/?name=world", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["hello"] != "world" {
		t.Errorf("body = %v", got)
	}
}

func TestHandleFuncErrorTranslation(t *testing.T) {
	cause := errors.New("sensitive detail")
	h := HandleFunc(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		return nil, Error(http.StatusTeapot, "visible message", cause)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "visible message") {
		t.Errorf("body %q missing the client message", body)
	}
	if strings.Contains(body, "sensitive detail") {
		t.Errorf("body %q leaks the cause", body)
	}
}

func TestErrorAvoidsDoubleWrap(t *testing.T) {
	inner := Error(http.StatusBadRequest, "bad", nil)
	outer := Error(http.StatusInternalServerError, "wrapped", inner)
	if outer != inner {
		t.Error("wrapping an EndpointError must return it unchanged")
	}
}

func TestProcessorChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Processor {
		return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
			order = append(order, name)
			return next(w, r)
		})
	}
	h := HandleFunc(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		order = append(order, "endpoint")
		return &NoContentRenderer{}, nil
	}, mk("first"), mk("second"))

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "endpoint"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestProcessorShortCircuit(t *testing.T) {
	deny := ProcessorFunc(func(http.ResponseWriter, *http.Request, func(http.ResponseWriter, *http.Request) error) error {
		return Error(http.StatusTooManyRequests, "slow down", nil)
	})
	called := false
	h := HandleFunc(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		called = true
		return &NoContentRenderer{}, nil
	}, deny)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))

	if called {
		t.Error("endpoint ran despite short-circuit")
	}
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestRedirectRendererDefaultStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rr := &RedirectRenderer{URL: "/elsewhere"}
	if err := rr.Render(w, httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/elsewhere" {
		t.Errorf("Location = %q", loc)
	}
}

func TestJSONRendererKeepsHTML(t *testing.T) {
	w := httptest.NewRecorder()
	jr := &JSONRenderer{Value: map[string]string{"u": "a&b<c"}}
	if err := jr.Render(w, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := w.Body.String(); !strings.Contains(got, "a&b<c") {
		t.Errorf("body %q should not HTML-escape", got)
	}
}
