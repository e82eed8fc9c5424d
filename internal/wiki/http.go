// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/internal/platform/constants"
	"github.com/wikara/wikara/internal/platform/middleware"
	requestutil "github.com/wikara/wikara/internal/platform/request"
	"github.com/wikara/wikara/internal/platform/respond"
	"github.com/wikara/wikara/internal/platform/sec"
	"github.com/wikara/wikara/internal/platform/validate"
	"github.com/wikara/wikara/pkg/pagination"
)

const (
	FieldName    = "name"
	FieldContent = "content"

	FieldItems = "items"
	FieldTotal = "total"
)

// # Handler Implementation

// Handler implements the HTTP layer for topics, versions, and write locks.
//
// # Routing Strategy
//
//   - Public (v1): Topic reads, version history, referenced-by listings.
//   - Authenticated (v1): All mutations and lock operations.
//   - Moderator (v1): Force lock operations, nascent listing, maintenance.
type Handler struct {
	service *Service
}

// NewHandler constructs a new topic [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches topic endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	// Discovery endpoints
	api.Get("/topics", handler.ListTopics)
	api.Get("/topics/{name}", handler.GetTopic)
	api.Get("/topics/{name}/referenced-by", handler.ReferencedBy)
	api.Get("/topics/{name}/versions", handler.ListVersions)
	api.Get("/topics/{name}/versions/{key}", handler.GetVersion)
	api.Get("/topics/{name}/versions/{key}/diff", handler.DiffVersions)

	// Authenticated mutations
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/topics", handler.CreateTopic)
		user.Put("/topics/{name}", handler.UpdateTopic)
		user.Post("/topics/{name}/rename", handler.RenameTopic)
		user.Post("/topics/{name}/revert", handler.RevertTopic)
		user.Delete("/topics/{name}", handler.DeleteTopic)
		user.Post("/topics/{name}/lock", handler.AcquireLock)
		user.Delete("/topics/{name}/lock", handler.ReleaseLock)
	})

	// Moderator maintenance
	api.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleModerator))
		admin.Put("/topics/{name}/properties", handler.SetProperties)
		admin.Get("/nascent-topics", handler.ListNascents)
		admin.Post("/admin/rerender", handler.RerenderAll)
		admin.Post("/admin/sweep-nascents", handler.SweepNascents)
	})
}

// actorFrom reduces the request's auth claims to the capabilities the core
// checks. An anonymous request yields the zero actor.
func actorFrom(request *http.Request) Actor {
	claims := requestutil.Claims(request)
	if claims == nil {
		return Actor{}
	}
	return Actor{
		ID:         claims.UserID,
		Moderator:  sec.UserRole(claims.Role).AtLeast(sec.RoleModerator),
		Restricted: claims.Restricted,
	}
}

// # Topic Retrieval

/*
GET /api/v1/topics.

Description: Returns a paginated listing of live topics, optionally narrowed
to a hierarchy prefix.

Request:
  - prefix: string (hierarchy prefix, e.g. "Projects.")
  - limit: int
  - page: int

Response:
  - 200: []Topic: Paginated list
*/
func (handler *Handler) ListTopics(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	prefix := request.URL.Query().Get("prefix")

	topics, total, err := handler.service.ListTopics(request.Context(), actorFrom(request), prefix, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: topics,
		FieldTotal: total,
	})
}

/*
GET /api/v1/topics/{name}.

Response:
  - 200: Topic: Full topic with rendered content and current write lock
  - 403: Restricted topic without the required capability
  - 404: Unknown or deleted topic
*/
func (handler *Handler) GetTopic(writer http.ResponseWriter, request *http.Request) {
	topic, err := handler.service.GetTopic(request.Context(), actorFrom(request), requestutil.Param(request, "name"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, topic)
}

// GET /api/v1/topics/{name}/referenced-by.
//
// Lists live topics whose content links to this one.
func (handler *Handler) ReferencedBy(writer http.ResponseWriter, request *http.Request) {
	topics, err := handler.service.ReferencedBy(request.Context(), actorFrom(request), requestutil.Param(request, "name"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: topics,
		FieldTotal: len(topics),
	})
}

// # Topic Mutations

// createTopicRequest defines the inbound JSON schema for topic creation.
type createTopicRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

/*
POST /api/v1/topics.

Response:
  - 201: Topic: The created topic
  - 400: Invalid name
  - 409: Name already in use
*/
func (handler *Handler) CreateTopic(writer http.ResponseWriter, request *http.Request) {
	var body createTopicRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, body.Name)
	validator.TopicName(FieldName, body.Name)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	topic, err := handler.service.CreateTopic(request.Context(), actorFrom(request), body.Name, body.Content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, topic)
}

// updateTopicRequest defines the inbound JSON schema for content updates.
type updateTopicRequest struct {
	Content string `json:"content"`
	Reason  string `json:"reason"`
	Trivial bool   `json:"trivial"`
}

/*
PUT /api/v1/topics/{name}.

Description: Replaces the topic's content. The previous state is versioned;
a trivial update suppresses watcher notification.

Response:
  - 200: Topic: The updated topic
  - 403: Locked or restricted topic without the required capability
*/
func (handler *Handler) UpdateTopic(writer http.ResponseWriter, request *http.Request) {
	var body updateTopicRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	topic, err := handler.service.UpdateContent(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), body.Content, body.Reason, body.Trivial)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, topic)
}

// renameTopicRequest defines the inbound JSON schema for renames.
type renameTopicRequest struct {
	NewName string `json:"new_name"`
	Reason  string `json:"reason"`
}

/*
POST /api/v1/topics/{name}/rename.

Description: Renames the topic and propagates the rename through all
referencing topics before responding.

Response:
  - 200: Topic: The renamed topic
  - 409: New name already in use
*/
func (handler *Handler) RenameTopic(writer http.ResponseWriter, request *http.Request) {
	var body renameTopicRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("new_name", body.NewName)
	validator.TopicName("new_name", body.NewName)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	topic, err := handler.service.RenameTopic(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), body.NewName, body.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, topic)
}

// revertTopicRequest defines the inbound JSON schema for reverts.
type revertTopicRequest struct {
	Version string `json:"version"`
	Reason  string `json:"reason"`
}

/*
POST /api/v1/topics/{name}/revert.

Description: Restores the content of an earlier version, addressed by its
canonical timestamp key.

Response:
  - 200: Topic: The reverted topic
  - 404: Unknown version
  - 422: Version belongs to a different topic
*/
func (handler *Handler) RevertTopic(writer http.ResponseWriter, request *http.Request) {
	var body revertTopicRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("version", body.Version)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	topic, err := handler.service.RevertTopic(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), body.Version, body.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, topic)
}

// deleteTopicRequest defines the optional inbound JSON schema for deletes.
type deleteTopicRequest struct {
	Reason string `json:"reason"`
}

/*
DELETE /api/v1/topics/{name}.

Description: Soft-deletes the topic and re-renders its referrers. History is
retained.

Response:
  - 204: Deleted
*/
func (handler *Handler) DeleteTopic(writer http.ResponseWriter, request *http.Request) {
	var body deleteTopicRequest
	// Body is optional on delete.
	_ = requestutil.DecodeJSON(request, &body)

	err := handler.service.DeleteTopic(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), body.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// setPropertiesRequest defines the inbound JSON schema for the moderation
// flags. An omitted field leaves the current value in place.
type setPropertiesRequest struct {
	Locked     *bool `json:"locked"`
	Restricted *bool `json:"restricted"`
}

/*
PUT /api/v1/topics/{name}/properties.

Description: Toggles the locked and restricted flags. Moderator-only; no
version is recorded.

Response:
  - 200: Topic: The topic with the flags applied
  - 403: Non-moderator caller
*/
func (handler *Handler) SetProperties(writer http.ResponseWriter, request *http.Request) {
	var body setPropertiesRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	topic, err := handler.service.SetTopicProperties(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), body.Locked, body.Restricted)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, topic)
}

// # Version History

/*
GET /api/v1/topics/{name}/versions.

Response:
  - 200: []TopicVersion: History, newest first
*/
func (handler *Handler) ListVersions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	versions, total, err := handler.service.ListVersions(request.Context(), actorFrom(request),
		requestutil.Param(request, "name"), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: versions,
		FieldTotal: total,
	})
}

/*
GET /api/v1/topics/{name}/versions/{key}.

Description: Returns the version under its canonical timestamp key. An
imprecise timestamp, in the canonical layout or RFC 3339, is redirected to
the nearest version at or before it.

Response:
  - 200: TopicVersion
  - 307: Redirect to the nearest version's canonical key
  - 404: No version at or before the requested time
*/
func (handler *Handler) GetVersion(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")
	key := requestutil.Param(request, "key")

	actor := actorFrom(request)
	version, err := handler.service.GetVersion(request.Context(), actor, name, key)
	if err == nil {
		respond.OK(writer, version)
		return
	}

	// Imprecise addressing: accept a plain timestamp and redirect to the
	// nearest canonical key. The canonical layout is what version URLs
	// carry; RFC 3339 is accepted as a convenience.
	at, parseErr := time.Parse(constants.VersionTimestampLayout, key)
	if parseErr != nil {
		at, parseErr = time.Parse(time.RFC3339, key)
	}
	if parseErr != nil {
		respond.Error(writer, request, err)
		return
	}

	nearest, err := handler.service.VersionNearest(request.Context(), actor, name, at)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.Redirect(writer, request,
		"/api/v1/topics/"+url.PathEscape(name)+"/versions/"+url.PathEscape(nearest.NormalizedCreated),
		http.StatusTemporaryRedirect)
}

/*
GET /api/v1/topics/{name}/versions/{key}/diff?to={key}.

Description: Returns the raw-content patch between two versions, defaulting
'to' to the newest version when omitted.

Response:
  - 200: VersionDiff
*/
func (handler *Handler) DiffVersions(writer http.ResponseWriter, request *http.Request) {
	name := requestutil.Param(request, "name")
	fromKey := requestutil.Param(request, "key")

	actor := actorFrom(request)
	toKey := request.URL.Query().Get("to")
	if toKey == "" {
		versions, _, err := handler.service.ListVersions(request.Context(), actor, name, 1, 0)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		if len(versions) == 0 {
			respond.Error(writer, request, apperr.NotFound("Topic version"))
			return
		}
		toKey = versions[0].NormalizedCreated
	}

	diff, err := handler.service.DiffVersions(request.Context(), actor, name, fromKey, toKey)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, diff)
}

// # Write Locks

// lockRequest defines the inbound JSON schema for lock operations.
type lockRequest struct {
	Force bool `json:"force"`
}

// lockResponse reports the lock outcome. Contention is an expected
// condition, reported in the body rather than as an error.
type lockResponse struct {
	Acquired bool       `json:"acquired"`
	Lock     *WriteLock `json:"lock,omitempty"`
}

/*
POST /api/v1/topics/{name}/lock.

Description: Claims or refreshes the advisory write lock. Force transfer is
moderator-only.

Response:
  - 200: lockResponse: Acquired true/false with the current holder
*/
func (handler *Handler) AcquireLock(writer http.ResponseWriter, request *http.Request) {
	var body lockRequest
	_ = requestutil.DecodeJSON(request, &body)

	actor := actorFrom(request)
	if body.Force && !actor.Moderator {
		respond.Error(writer, request, ErrPermissionDenied())
		return
	}

	acquired, lock, err := handler.service.AcquireWriteLock(request.Context(), actor,
		requestutil.Param(request, "name"), body.Force)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, lockResponse{Acquired: acquired, Lock: lock})
}

/*
DELETE /api/v1/topics/{name}/lock.

Response:
  - 200: released true/false
*/
func (handler *Handler) ReleaseLock(writer http.ResponseWriter, request *http.Request) {
	var body lockRequest
	_ = requestutil.DecodeJSON(request, &body)

	actor := actorFrom(request)
	if body.Force && !actor.Moderator {
		respond.Error(writer, request, ErrPermissionDenied())
		return
	}

	released, err := handler.service.ReleaseWriteLock(request.Context(), actor,
		requestutil.Param(request, "name"), body.Force)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"released": released})
}

// # Maintenance

// GET /api/v1/nascent-topics.
//
// Lists all placeholder topics awaiting creation.
func (handler *Handler) ListNascents(writer http.ResponseWriter, request *http.Request) {
	nascents, err := handler.service.ListNascents(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldItems: nascents,
		FieldTotal: len(nascents),
	})
}

// POST /api/v1/admin/rerender.
//
// Re-renders every live topic, e.g. after a markup dialect change.
func (handler *Handler) RerenderAll(writer http.ResponseWriter, request *http.Request) {
	rendered, err := handler.service.RerenderAllTopics(request.Context(), actorFrom(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"rerendered": rendered})
}

// POST /api/v1/admin/sweep-nascents.
//
// Removes orphaned placeholder topics immediately.
func (handler *Handler) SweepNascents(writer http.ResponseWriter, request *http.Request) {
	removed, err := handler.service.SweepOrphanNascents(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"removed": removed})
}
