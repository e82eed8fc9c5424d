// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package wiki

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wikara/wikara/internal/platform/apperr"
)

// # In-Memory Repository

// memoryRepository implements [Repository] entirely in process. It backs the
// service tests and is not intended for production use.
type memoryRepository struct {
	mu sync.Mutex

	topics      map[string]*Topic        // by ID
	versions    map[string]*TopicVersion // by ID
	nascents    map[string]*NascentTopic // by ID
	topicEdges  map[string]map[string]bool
	nascentEdge map[string]map[string]bool
	attachments map[string][]string // topic ID -> filenames
}

// NewMemoryRepository constructs an empty in-process topic store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		topics:      make(map[string]*Topic),
		versions:    make(map[string]*TopicVersion),
		nascents:    make(map[string]*NascentTopic),
		topicEdges:  make(map[string]map[string]bool),
		nascentEdge: make(map[string]map[string]bool),
		attachments: make(map[string][]string),
	}
}

func copyTopic(topic *Topic) *Topic {
	clone := *topic
	return &clone
}

func copyVersion(version *TopicVersion) *TopicVersion {
	clone := *version
	return &clone
}

func copyNascent(nascent *NascentTopic) *NascentTopic {
	clone := *nascent
	return &clone
}

// liveTopicByName assumes the lock is held.
func (repository *memoryRepository) liveTopicByName(normalizedName string) *Topic {
	for _, topic := range repository.topics {
		if topic.NormalizedName == normalizedName && !topic.Deleted {
			return topic
		}
	}
	return nil
}

// # Topics

func (repository *memoryRepository) CreateTopic(_ context.Context, topic *Topic) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.liveTopicByName(topic.NormalizedName) != nil {
		return ErrTopicExists(topic.Name)
	}

	repository.topics[topic.ID] = copyTopic(topic)
	return nil
}

func (repository *memoryRepository) FindTopicByName(ctx context.Context, normalizedName string) (*Topic, error) {
	topic, err := repository.FindTopicByNameIfExists(ctx, normalizedName)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("Topic")
	}
	return topic, nil
}

func (repository *memoryRepository) FindTopicByNameIfExists(_ context.Context, normalizedName string) (*Topic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if topic := repository.liveTopicByName(normalizedName); topic != nil {
		return copyTopic(topic), nil
	}
	return nil, nil
}

func (repository *memoryRepository) FindTopicByID(_ context.Context, id string) (*Topic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	topic, ok := repository.topics[id]
	if !ok {
		return nil, apperr.NotFound("Topic")
	}
	return copyTopic(topic), nil
}

func (repository *memoryRepository) UpdateTopic(_ context.Context, topic *Topic) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, ok := repository.topics[topic.ID]
	if !ok {
		return apperr.NotFound("Topic")
	}

	if occupant := repository.liveTopicByName(topic.NormalizedName); occupant != nil && occupant.ID != topic.ID {
		return ErrTopicExists(topic.Name)
	}

	clone := copyTopic(topic)
	clone.CreatedAt = current.CreatedAt
	repository.topics[topic.ID] = clone
	return nil
}

func (repository *memoryRepository) SoftDeleteTopic(_ context.Context, id, reason string, modifiedAt time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	topic, ok := repository.topics[id]
	if !ok || topic.Deleted {
		return apperr.NotFound("Topic")
	}

	topic.Deleted = true
	topic.Reason = reason
	topic.ModifiedAt = modifiedAt
	delete(repository.topicEdges, id)
	delete(repository.nascentEdge, id)
	return nil
}

func (repository *memoryRepository) ListTopics(_ context.Context, prefix string, limit, offset int) ([]*Topic, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var matched []*Topic
	for _, topic := range repository.topics {
		if topic.Deleted {
			continue
		}
		if prefix != "" && !strings.HasPrefix(topic.NormalizedName, prefix) {
			continue
		}
		matched = append(matched, copyTopic(topic))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].NormalizedName < matched[j].NormalizedName
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

func (repository *memoryRepository) TopicExists(_ context.Context, normalizedName string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	return repository.liveTopicByName(normalizedName) != nil, nil
}

// # Versions

func (repository *memoryRepository) CreateVersion(_ context.Context, version *TopicVersion) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.versions {
		if existing.TopicID == version.TopicID && existing.NormalizedCreated == version.NormalizedCreated {
			return apperr.Conflict("A version with the same timestamp already exists")
		}
	}

	repository.versions[version.ID] = copyVersion(version)
	return nil
}

// versionsOf assumes the lock is held. Returns newest first.
func (repository *memoryRepository) versionsOf(topicID string) []*TopicVersion {
	var versions []*TopicVersion
	for _, version := range repository.versions {
		if version.TopicID == topicID {
			versions = append(versions, copyVersion(version))
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions
}

func (repository *memoryRepository) ListVersions(_ context.Context, topicID string, limit, offset int) ([]*TopicVersion, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	versions := repository.versionsOf(topicID)
	total := len(versions)
	if offset >= total {
		return nil, total, nil
	}
	versions = versions[offset:]
	if limit > 0 && limit < len(versions) {
		versions = versions[:limit]
	}

	return versions, total, nil
}

func (repository *memoryRepository) FindVersionByKey(_ context.Context, topicID, normalizedCreated string) (*TopicVersion, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, version := range repository.versions {
		if version.TopicID == topicID && version.NormalizedCreated == normalizedCreated {
			return copyVersion(version), nil
		}
	}
	return nil, apperr.NotFound("Topic version")
}

func (repository *memoryRepository) VersionAtOrBefore(_ context.Context, topicID string, at time.Time) (*TopicVersion, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, version := range repository.versionsOf(topicID) {
		if !version.CreatedAt.After(at) {
			return version, nil
		}
	}
	return nil, apperr.NotFound("Topic version")
}

// # Nascent Topics

func (repository *memoryRepository) UpsertNascent(_ context.Context, nascent *NascentTopic) (*NascentTopic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.nascents {
		if existing.NormalizedName == nascent.NormalizedName {
			return copyNascent(existing), nil
		}
	}

	repository.nascents[nascent.ID] = copyNascent(nascent)
	return copyNascent(nascent), nil
}

func (repository *memoryRepository) FindNascentByNameIfExists(_ context.Context, normalizedName string) (*NascentTopic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, nascent := range repository.nascents {
		if nascent.NormalizedName == normalizedName {
			return copyNascent(nascent), nil
		}
	}
	return nil, nil
}

func (repository *memoryRepository) DeleteNascent(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.nascents, id)
	for _, edges := range repository.nascentEdge {
		delete(edges, id)
	}
	return nil
}

func (repository *memoryRepository) ListNascents(_ context.Context) ([]*NascentTopic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var nascents []*NascentTopic
	for _, nascent := range repository.nascents {
		nascents = append(nascents, copyNascent(nascent))
	}
	sort.Slice(nascents, func(i, j int) bool {
		return nascents[i].NormalizedName < nascents[j].NormalizedName
	})
	return nascents, nil
}

func (repository *memoryRepository) DeleteOrphanNascents(_ context.Context) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	referenced := make(map[string]bool)
	for sourceID, edges := range repository.nascentEdge {
		source, ok := repository.topics[sourceID]
		if !ok || source.Deleted {
			continue
		}
		for nascentID := range edges {
			referenced[nascentID] = true
		}
	}

	removed := 0
	for id := range repository.nascents {
		if !referenced[id] {
			delete(repository.nascents, id)
			removed++
		}
	}
	return removed, nil
}

// # Reference Graph

func (repository *memoryRepository) ReplaceReferences(_ context.Context, sourceID string, topicIDs, nascentIDs []string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	topicSet := make(map[string]bool, len(topicIDs))
	for _, id := range topicIDs {
		topicSet[id] = true
	}
	nascentSet := make(map[string]bool, len(nascentIDs))
	for _, id := range nascentIDs {
		nascentSet[id] = true
	}

	repository.topicEdges[sourceID] = topicSet
	repository.nascentEdge[sourceID] = nascentSet
	return nil
}

func (repository *memoryRepository) ReferencingTopics(_ context.Context, targetID string) ([]*Topic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var sources []*Topic
	for sourceID, edges := range repository.topicEdges {
		if !edges[targetID] {
			continue
		}
		source, ok := repository.topics[sourceID]
		if !ok || source.Deleted {
			continue
		}
		sources = append(sources, copyTopic(source))
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].NormalizedName < sources[j].NormalizedName
	})
	return sources, nil
}

func (repository *memoryRepository) TopicsReferencingNascent(_ context.Context, nascentID string) ([]*Topic, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var sources []*Topic
	for sourceID, edges := range repository.nascentEdge {
		if !edges[nascentID] {
			continue
		}
		source, ok := repository.topics[sourceID]
		if !ok || source.Deleted {
			continue
		}
		sources = append(sources, copyTopic(source))
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].NormalizedName < sources[j].NormalizedName
	})
	return sources, nil
}

// # Attachments

func (repository *memoryRepository) AttachmentNames(_ context.Context, topicID string) ([]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	filenames := append([]string(nil), repository.attachments[topicID]...)
	sort.Strings(filenames)
	return filenames, nil
}

// # In-Memory Lock Repository

// memoryLockRepository implements [LockRepository] in process. The clock is
// injectable so expiry transitions can be tested without sleeping.
type memoryLockRepository struct {
	mu    sync.Mutex
	locks map[string]*WriteLock
	now   func() time.Time
}

// NewMemoryLockRepository constructs an in-process write-lock store.
func NewMemoryLockRepository() LockRepository {
	return &memoryLockRepository{
		locks: make(map[string]*WriteLock),
		now:   time.Now,
	}
}

// live assumes the lock is held and prunes an expired entry.
func (repository *memoryLockRepository) live(topicID string) *WriteLock {
	lock, ok := repository.locks[topicID]
	if !ok {
		return nil
	}
	if !lock.ExpiresAt.After(repository.now()) {
		delete(repository.locks, topicID)
		return nil
	}
	return lock
}

func (repository *memoryLockRepository) AcquireIfAbsent(_ context.Context, topicID, ownerID string, ttl time.Duration) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.live(topicID) != nil {
		return false, nil
	}

	repository.locks[topicID] = &WriteLock{
		TopicID:   topicID,
		OwnerID:   ownerID,
		ExpiresAt: repository.now().Add(ttl),
	}
	return true, nil
}

func (repository *memoryLockRepository) Get(_ context.Context, topicID string) (*WriteLock, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	lock := repository.live(topicID)
	if lock == nil {
		return nil, nil
	}
	clone := *lock
	return &clone, nil
}

func (repository *memoryLockRepository) Extend(_ context.Context, topicID, ownerID string, ttl time.Duration) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	lock := repository.live(topicID)
	if lock == nil || lock.OwnerID != ownerID {
		return false, nil
	}

	lock.ExpiresAt = repository.now().Add(ttl)
	return true, nil
}

func (repository *memoryLockRepository) Overwrite(_ context.Context, topicID, ownerID string, ttl time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.locks[topicID] = &WriteLock{
		TopicID:   topicID,
		OwnerID:   ownerID,
		ExpiresAt: repository.now().Add(ttl),
	}
	return nil
}

func (repository *memoryLockRepository) Delete(_ context.Context, topicID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.locks, topicID)
	return nil
}
