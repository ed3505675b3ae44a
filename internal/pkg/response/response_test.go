package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, h fiber.Handler) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out Response
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestSuccessCarriesData(t *testing.T) {
	code, out := call(t, func(c *fiber.Ctx) error {
		return Created(c, "Renewal submitted", fiber.Map{"id": "r1"})
	})
	assert.Equal(t, fiber.StatusCreated, code)
	assert.True(t, out.Success)
	assert.Equal(t, "Renewal submitted", out.Message)
	assert.Equal(t, map[string]interface{}{"id": "r1"}, out.Data)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		h    func(*fiber.Ctx, string) error
		code int
	}{
		{"bad request", BadRequest, fiber.StatusBadRequest},
		{"unauthorized", Unauthorized, fiber.StatusUnauthorized},
		{"forbidden", Forbidden, fiber.StatusForbidden},
		{"not found", NotFound, fiber.StatusNotFound},
		{"conflict", Conflict, fiber.StatusConflict},
		{"too large", PayloadTooLarge, fiber.StatusRequestEntityTooLarge},
		{"unavailable", ServiceUnavailable, fiber.StatusServiceUnavailable},
		{"internal", InternalServerError, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := call(t, func(c *fiber.Ctx) error { return tt.h(c, "nope") })
			assert.Equal(t, tt.code, code)
			assert.False(t, out.Success)
			assert.Equal(t, "nope", out.Error)
			assert.Empty(t, out.Message)
		})
	}
}

func TestInvalidNamesField(t *testing.T) {
	code, out := call(t, func(c *fiber.Ctx) error {
		return Invalid(c, "rejection_reason", "rejection reason is required")
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "rejection_reason: rejection reason is required", out.Error)
	assert.Equal(t, map[string]string{"rejection_reason": "rejection reason is required"}, out.Fields)
}
