package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	svc, _ := newTestService(t)
	app := fiber.New()
	feature := NewFeature(svc)
	require.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))
	return app
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleGetOrCreate(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(postJSON("/catalog/brands", `{"name":"Camper"}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["created"])

	resp, err = app.Test(postJSON("/catalog/brands", `{"name":"Camper"}`))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["created"])

	resp, err = app.Test(postJSON("/catalog/brands", `{"name":""}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(postJSON("/catalog/shelves", `{"name":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleList(t *testing.T) {
	app := setupTestApp(t)

	_, err := app.Test(postJSON("/catalog/colors", `{"name":"Castanho"}`))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/catalog/colors", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var values []Value
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&values))
	require.Len(t, values, 1)
	assert.Equal(t, "Castanho", values[0].Name)
}

func TestHandleSubcategories(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(postJSON("/catalog/categories/42/subcategories", `{"name":"Botas"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(postJSON("/catalog/categories", `{"name":"Calçado"}`))
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp, err = app.Test(postJSON("/catalog/categories/1/subcategories", `{"name":"Botas"}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/catalog/categories/1/subcategories", nil))
	require.NoError(t, err)
	var subs []Subcategory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&subs))
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].CategoryID)
}
