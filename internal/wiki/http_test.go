// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTopicRouter mounts the topic handler on a bare router, the way the
// server mounts it under /api/v1.
func newTopicRouter(env *testEnv) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(env.service).RegisterRoutes(router)
	return router
}

func TestGetVersionRedirectsImpreciseKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Garden Beds", "v1")
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Garden Beds", "v2", "", false)
	require.NoError(t, err)

	versions, _, err := env.service.ListVersions(ctx, alice, "Garden Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	router := newTopicRouter(env)

	// The exact canonical key answers directly.
	exact := "/topics/" + url.PathEscape("Garden Beds") + "/versions/" + versions[0].NormalizedCreated
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, exact, nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	// A canonical-layout key one second past the version redirects to it,
	// with the topic name escaped in the target.
	imprecise := NormalizeVersionTime(versions[0].CreatedAt.Add(time.Second))
	target := "/topics/" + url.PathEscape("Garden Beds") + "/versions/" + imprecise
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	assert.Equal(t,
		"/api/v1/topics/Garden%20Beds/versions/"+versions[0].NormalizedCreated,
		recorder.Header().Get("Location"))
}

func TestGetVersionRedirectsRFC3339Key(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "v1")
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v2", "", false)
	require.NoError(t, err)

	versions, _, err := env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	router := newTopicRouter(env)

	imprecise := versions[0].CreatedAt.Add(time.Second).UTC().Format(time.RFC3339)
	target := "/topics/Beds/versions/" + url.PathEscape(imprecise)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	assert.Equal(t,
		"/api/v1/topics/Beds/versions/"+versions[0].NormalizedCreated,
		recorder.Header().Get("Location"))
}

func TestGetVersionUnparseableKeyIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "v1")
	require.NoError(t, err)

	router := newTopicRouter(env)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/topics/Beds/versions/latest", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
