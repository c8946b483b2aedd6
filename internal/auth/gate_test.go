package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

const testSecret = "Hospital2025_DicomSecureKey"

func TestVerifyExactMatchOnly(t *testing.T) {
	gate := NewGate(testSecret, nil)

	cases := []struct {
		name       string
		credential string
		want       bool
	}{
		{"exact", testSecret, true},
		{"empty", "", false},
		{"case altered", strings.ToLower(testSecret), false},
		{"truncated", testSecret[:len(testSecret)-1], false},
		{"extended", testSecret + "x", false},
		{"padded", " " + testSecret, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.Verify(tc.credential); got != tc.want {
				t.Fatalf("Verify(%q) = %v, want %v", tc.credential, got, tc.want)
			}
		})
	}
}

func TestVerifyRejectsEverythingWithoutSecret(t *testing.T) {
	gate := NewGate("", nil)
	if gate.Verify("") {
		t.Fatalf("empty secret must not authorize empty credential")
	}
}

func TestMiddlewareShortCircuits(t *testing.T) {
	logger := logrus.New()
	logBuf := &bytes.Buffer{}
	logger.SetOutput(logBuf)

	gate := NewGate(testSecret, logger)
	reached := 0

	app := fiber.New()
	app.Get("/flat", gate.Middleware(ShapeFlat), func(c fiber.Ctx) error {
		reached++
		return c.SendString("ok")
	})
	app.Get("/nested", gate.Middleware(ShapeSuccess), func(c fiber.Ctx) error {
		reached++
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/flat", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	flat := decodeBody(t, resp.Body)
	if flat["error"] != "Unauthorized" {
		t.Fatalf("unexpected flat body: %v", flat)
	}
	if _, ok := flat["success"]; ok {
		t.Fatalf("flat body must not contain success: %v", flat)
	}

	req := httptest.NewRequest("GET", "/nested", nil)
	req.Header.Set(HeaderAPIKey, "wrong")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	nested := decodeBody(t, resp.Body)
	if nested["success"] != false || nested["error"] != "Unauthorized" {
		t.Fatalf("unexpected nested body: %v", nested)
	}

	if reached != 0 {
		t.Fatalf("handlers must not run for unauthorized requests, ran %d", reached)
	}
	if !strings.Contains(logBuf.String(), "unauthorized access") || !strings.Contains(logBuf.String(), "remote_addr") {
		t.Fatalf("expected unauthorized log with remote address, got %s", logBuf.String())
	}
}

func TestMiddlewarePassesValidKey(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	gate := NewGate(testSecret, logger)

	app := fiber.New()
	app.Get("/flat", gate.Middleware(ShapeFlat), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/flat", nil)
	req.Header.Set(HeaderAPIKey, testSecret)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}
