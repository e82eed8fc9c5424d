// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikara/wikara/internal/markup"
	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/pkg/pointer"
)

// recordingNotifier captures notification fan-out for assertions.
type recordingNotifier struct {
	changed []string
}

func (notifier *recordingNotifier) TopicChanged(_ context.Context, _, topicName string) error {
	notifier.changed = append(notifier.changed, topicName)
	return nil
}

// fakeClock hands out strictly increasing timestamps, two seconds apart, so
// version keys never collide inside a test.
type fakeClock struct {
	at time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.at = clock.at.Add(2 * time.Second)
	return clock.at
}

type testEnv struct {
	service  *Service
	repo     Repository
	locks    LockRepository
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := NewMemoryRepository()
	locks := NewMemoryLockRepository()
	notifier := &recordingNotifier{}
	renderer := markup.NewRenderer(NewResolver(repo), "/wiki/topic/")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(repo, locks, renderer, notifier, logger)
	service.now = (&fakeClock{at: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}).Now

	return &testEnv{service: service, repo: repo, locks: locks, notifier: notifier}
}

var (
	alice = Actor{ID: "user-alice"}
	mod   = Actor{ID: "user-mod", Moderator: true}
)

// # Creation & Naming

func TestCreateThenRename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateTopic(ctx, alice, "Gardening", "Growing things.")
	require.NoError(t, err)

	renamed, err := env.service.RenameTopic(ctx, alice, "Gardening", "Horticulture", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, renamed.ID, "rename keeps the topic identity")
	assert.Equal(t, "horticulture", renamed.NormalizedName)

	_, err = env.service.GetTopic(ctx, alice, "Gardening")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code, "old name no longer resolves")

	found, err := env.service.GetTopic(ctx, alice, "Horticulture")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestCreateRejectsBadName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"a/b", "a:b", "  "} {
		_, err := env.service.CreateTopic(ctx, alice, name, "content")
		appError := apperr.As(err)
		require.NotNil(t, appError, "name %q must be rejected", name)
		assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	}

	_, total, err := env.service.ListTopics(ctx, alice, "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "nothing may be persisted for a rejected name")
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Compost", "v1")
	require.NoError(t, err)

	_, err = env.service.CreateTopic(ctx, alice, "COMPOST", "v2")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code, "uniqueness is case-insensitive")
}

func TestSelfReferencingTopicCreates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	topic, err := env.service.CreateTopic(ctx, alice, "Recursion", "See [[Recursion]].")
	require.NoError(t, err)

	// The second render saw the persisted topic: a live self-link, no
	// nascent placeholder.
	assert.NotContains(t, topic.ContentRendered, "nonexistent")

	nascents, err := env.service.ListNascents(ctx)
	require.NoError(t, err)
	assert.Empty(t, nascents)

	referrers, err := env.repo.ReferencingTopics(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, referrers, 1)
	assert.Equal(t, topic.ID, referrers[0].ID)
}

// # Nascent Promotion

func TestLinkToMissingTopicCreatesNascent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	source, err := env.service.CreateTopic(ctx, alice, "Soil", "Try [[Mulch Basics]].")
	require.NoError(t, err)
	assert.Contains(t, source.ContentRendered, `class="nonexistent"`)

	nascents, err := env.service.ListNascents(ctx)
	require.NoError(t, err)
	require.Len(t, nascents, 1)
	assert.Equal(t, "mulch basics", nascents[0].NormalizedName)
	assert.Equal(t, "Mulch Basics", nascents[0].Name, "first-seen casing wins")
	assert.Equal(t, alice.ID, nascents[0].AuthorID)
}

func TestCreatingTopicPromotesNascent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	source, err := env.service.CreateTopic(ctx, alice, "Soil", "Try [[Mulch]].")
	require.NoError(t, err)

	target, err := env.service.CreateTopic(ctx, alice, "Mulch", "Cover the soil.")
	require.NoError(t, err)

	nascents, err := env.service.ListNascents(ctx)
	require.NoError(t, err)
	assert.Empty(t, nascents, "the placeholder is retired")

	refreshed, err := env.service.GetTopic(ctx, alice, "Soil")
	require.NoError(t, err)
	assert.NotContains(t, refreshed.ContentRendered, "nonexistent", "the link went live")

	referrers, err := env.repo.ReferencingTopics(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, referrers, 1)
	assert.Equal(t, source.ID, referrers[0].ID)
}

// # Rename Propagation

func TestRenamePropagatesToReferrers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	target, err := env.service.CreateTopic(ctx, alice, "Worms", "Wigglers.")
	require.NoError(t, err)

	source, err := env.service.CreateTopic(ctx, alice, "Compost", "Needs [[Worms]] and [[worms|more worms]].")
	require.NoError(t, err)

	_, err = env.service.RenameTopic(ctx, alice, "Worms", "Earthworms", "")
	require.NoError(t, err)

	refreshed, err := env.service.GetTopic(ctx, alice, "Compost")
	require.NoError(t, err)
	assert.Contains(t, refreshed.ContentRaw, "[[Earthworms]]")
	assert.Contains(t, refreshed.ContentRaw, "[[Earthworms|more worms]]", "labels survive the rewrite")
	assert.NotContains(t, refreshed.ContentRaw, "[[Worms]]")

	// The rewrite is a content mutation: the referrer gained a version
	// holding the pre-rewrite raw content.
	versions, total, err := env.service.ListVersions(ctx, alice, "Compost", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, source.ContentRaw, versions[0].ContentRaw)

	referrers, err := env.repo.ReferencingTopics(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, referrers, 1)
	assert.Equal(t, refreshed.ID, referrers[0].ID, "the edge still points at the renamed topic")
}

// # Delete Propagation

func TestDeletePropagatesToReferrers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	target, err := env.service.CreateTopic(ctx, alice, "Worms", "Wigglers.")
	require.NoError(t, err)

	_, err = env.service.CreateTopic(ctx, alice, "Compost", "Needs [[Worms]].")
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteTopic(ctx, alice, "Worms", "obsolete"))

	_, err = env.service.GetTopic(ctx, alice, "Worms")
	require.NotNil(t, apperr.As(err))

	refreshed, err := env.service.GetTopic(ctx, alice, "Compost")
	require.NoError(t, err)
	assert.Contains(t, refreshed.ContentRendered, `class="nonexistent"`, "the target shows as absent")

	referrers, err := env.repo.ReferencingTopics(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, referrers, "no live edge points at the deleted topic")
}

// # Versioning

func TestUpdateAppendsOneVersionWithPriorContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "v1")
	require.NoError(t, err)

	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v2", "edit", false)
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v3", "minor fix", true)
	require.NoError(t, err)

	versions, total, err := env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total, "one version per update, trivial or not")

	// Newest first: the last snapshot captured "v2", the first "v1".
	assert.Equal(t, "v2", versions[0].ContentRaw)
	assert.Equal(t, "v1", versions[1].ContentRaw)
}

func TestTrivialUpdateSuppressesNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "v1")
	require.NoError(t, err)
	assert.Empty(t, env.notifier.changed, "creation does not notify")

	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v2", "", true)
	require.NoError(t, err)
	assert.Empty(t, env.notifier.changed, "trivial update does not notify")

	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v3", "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beds"}, env.notifier.changed)
}

func TestRevertRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "original")
	require.NoError(t, err)

	_, err = env.service.UpdateContent(ctx, alice, "Beds", "changed", "", false)
	require.NoError(t, err)

	versions, _, err := env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	reverted, err := env.service.RevertTopic(ctx, alice, "Beds", versions[0].NormalizedCreated, "")
	require.NoError(t, err)
	assert.Equal(t, "original", reverted.ContentRaw)

	// The revert itself snapshotted the content immediately prior to it.
	versions, _, err = env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "changed", versions[0].ContentRaw)
}

func TestRevertUnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "original")
	require.NoError(t, err)

	_, err = env.service.RevertTopic(ctx, alice, "Beds", "2020-01-01_00:00:00", "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

func TestVersionNearestResolvesImpreciseTimestamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "v1")
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v2", "", false)
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "v3", "", false)
	require.NoError(t, err)

	versions, _, err := env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	// A timestamp just after the older version resolves to it.
	nearest, err := env.service.VersionNearest(ctx, alice, "Beds", versions[1].CreatedAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, versions[1].ID, nearest.ID)

	// A timestamp before all history is a miss.
	_, err = env.service.VersionNearest(ctx, alice, "Beds", versions[1].CreatedAt.Add(-time.Hour))
	require.NotNil(t, apperr.As(err))
}

func TestDiffVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Beds", "line one\n")
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "line one\nline two\n", "", false)
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Beds", "line one\nline two\nline three\n", "", false)
	require.NoError(t, err)

	versions, _, err := env.service.ListVersions(ctx, alice, "Beds", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	diff, err := env.service.DiffVersions(ctx, alice, "Beds", versions[1].NormalizedCreated, versions[0].NormalizedCreated)
	require.NoError(t, err)
	assert.NotEmpty(t, diff.Patch)
	assert.Equal(t, versions[1].NormalizedCreated, diff.FromKey)
	assert.Equal(t, versions[0].NormalizedCreated, diff.ToKey)
}

// # Permissions & Moderation

func TestSetTopicProperties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Policy", "v1")
	require.NoError(t, err)

	_, err = env.service.SetTopicProperties(ctx, alice, "Policy", pointer.To(true), nil)
	appError := apperr.As(err)
	require.NotNil(t, appError, "flag toggling is moderator-only")
	assert.Equal(t, "FORBIDDEN", appError.Code)

	topic, err := env.service.SetTopicProperties(ctx, mod, "Policy", pointer.To(true), nil)
	require.NoError(t, err)
	assert.True(t, topic.Locked)
	assert.False(t, topic.Restricted, "an omitted flag keeps its value")

	topic, err = env.service.SetTopicProperties(ctx, mod, "Policy", nil, pointer.To(true))
	require.NoError(t, err)
	assert.True(t, topic.Locked, "an omitted flag keeps its value")
	assert.True(t, topic.Restricted)

	// Flipping flags is not a content mutation.
	versions, total, err := env.service.ListVersions(ctx, mod, "Policy", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, versions)
}

func TestLockedTopicRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Policy", "v1")
	require.NoError(t, err)

	_, err = env.service.SetTopicProperties(ctx, mod, "Policy", pointer.To(true), nil)
	require.NoError(t, err)

	_, err = env.service.UpdateContent(ctx, alice, "Policy", "v2", "", false)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "FORBIDDEN", appError.Code)

	_, err = env.service.UpdateContent(ctx, mod, "Policy", "v2", "", false)
	require.NoError(t, err)
}

func TestRestrictedTopicRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Internal", "secrets")
	require.NoError(t, err)

	_, err = env.service.SetTopicProperties(ctx, mod, "Internal", nil, pointer.To(true))
	require.NoError(t, err)

	_, err = env.service.GetTopic(ctx, alice, "Internal")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "FORBIDDEN", appError.Code)

	trusted := Actor{ID: "user-trusted", Restricted: true}
	_, err = env.service.GetTopic(ctx, trusted, "Internal")
	require.NoError(t, err)

	_, err = env.service.GetTopic(ctx, mod, "Internal")
	require.NoError(t, err)
}

func TestRestrictedTopicHidesHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Internal", "the secret plan")
	require.NoError(t, err)
	_, err = env.service.UpdateContent(ctx, alice, "Internal", "the revised secret plan", "", false)
	require.NoError(t, err)

	_, err = env.service.SetTopicProperties(ctx, mod, "Internal", nil, pointer.To(true))
	require.NoError(t, err)

	anonymous := Actor{}

	_, _, err = env.service.ListVersions(ctx, anonymous, "Internal", 10, 0)
	appError := apperr.As(err)
	require.NotNil(t, appError, "history is as restricted as the topic")
	assert.Equal(t, "FORBIDDEN", appError.Code)

	versions, _, err := env.service.ListVersions(ctx, mod, "Internal", 10, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	_, err = env.service.GetVersion(ctx, anonymous, "Internal", versions[0].NormalizedCreated)
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	_, err = env.service.VersionNearest(ctx, anonymous, "Internal", versions[0].CreatedAt.Add(time.Second))
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	_, err = env.service.DiffVersions(ctx, anonymous, "Internal", versions[0].NormalizedCreated, versions[0].NormalizedCreated)
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	trusted := Actor{ID: "user-trusted", Restricted: true}
	version, err := env.service.GetVersion(ctx, trusted, "Internal", versions[0].NormalizedCreated)
	require.NoError(t, err)
	assert.Equal(t, "the secret plan", version.ContentRaw)
}

func TestRestrictedTopicRedactedInListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Internal", "the secret plan")
	require.NoError(t, err)
	_, err = env.service.CreateTopic(ctx, alice, "Public", "See [[Internal]].")
	require.NoError(t, err)

	_, err = env.service.SetTopicProperties(ctx, mod, "Internal", nil, pointer.To(true))
	require.NoError(t, err)

	// Listings keep the restricted topic's name but blank its body.
	topics, total, err := env.service.ListTopics(ctx, alice, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, topic := range topics {
		if topic.NormalizedName == "internal" {
			assert.Empty(t, topic.ContentRaw)
			assert.Empty(t, topic.ContentRendered)
		}
	}

	topics, _, err = env.service.ListTopics(ctx, mod, "", 10, 0)
	require.NoError(t, err)
	for _, topic := range topics {
		if topic.NormalizedName == "internal" {
			assert.Equal(t, "the secret plan", topic.ContentRaw)
		}
	}

	// Referrer lookup on a restricted target is forbidden outright.
	_, err = env.service.ReferencedBy(ctx, alice, "Internal")
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	referrers, err := env.service.ReferencedBy(ctx, mod, "Internal")
	require.NoError(t, err)
	require.Len(t, referrers, 1)
	assert.Equal(t, "public", referrers[0].NormalizedName)
}

// # Idempotence & Maintenance

func TestRerenderIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Hub", "See [[Spoke]] and [[Missing]].")
	require.NoError(t, err)
	_, err = env.service.CreateTopic(ctx, alice, "Spoke", "leaf")
	require.NoError(t, err)

	first, err := env.service.GetTopic(ctx, alice, "Hub")
	require.NoError(t, err)

	rendered, err := env.service.RerenderAllTopics(ctx, mod)
	require.NoError(t, err)
	assert.Equal(t, 2, rendered)

	second, err := env.service.GetTopic(ctx, alice, "Hub")
	require.NoError(t, err)
	assert.Equal(t, first.ContentRendered, second.ContentRendered)
	assert.Equal(t, first.ContentRaw, second.ContentRaw)

	nascents, err := env.service.ListNascents(ctx)
	require.NoError(t, err)
	require.Len(t, nascents, 1, "repeated reconciliation converges on one placeholder")
	assert.Equal(t, "missing", nascents[0].NormalizedName)

	versions, total, err := env.service.ListVersions(ctx, alice, "Hub", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "re-rendering unchanged content records no versions")
	assert.Empty(t, versions)
}

func TestSweepRemovesOrphanedNascents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateTopic(ctx, alice, "Hub", "See [[Missing]].")
	require.NoError(t, err)

	// Still referenced: the sweep must keep it.
	removed, err := env.service.SweepOrphanNascents(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Dropping the link orphans the placeholder.
	_, err = env.service.UpdateContent(ctx, alice, "Hub", "No links here.", "", true)
	require.NoError(t, err)

	removed, err = env.service.SweepOrphanNascents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	nascents, err := env.service.ListNascents(ctx)
	require.NoError(t, err)
	assert.Empty(t, nascents)
}

func TestDeletedNameCanBeRecreated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.CreateTopic(ctx, alice, "Phoenix", "v1")
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteTopic(ctx, alice, "Phoenix", ""))

	second, err := env.service.CreateTopic(ctx, alice, "Phoenix", "v2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "recreation is a fresh topic with its own history")
}
