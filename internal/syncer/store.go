// Package syncer persists progress mutations to the store selected by the
// active identity and rebuilds snapshots on identity change.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"nextgenschool/internal/cache"
	"nextgenschool/internal/identity"
	"nextgenschool/internal/models"
)

// RemoteStore is the record store learners' progress lives in
type RemoteStore interface {
	FetchLearnersByParent(ctx context.Context, parentID string) ([]models.Learner, error)
	FetchCompletions(ctx context.Context, learnerID string) ([]models.CompletionRecord, error)
	UpsertCompletion(ctx context.Context, learnerID, courseID string, chapterIndex int) (*models.CompletionRecord, error)
	FetchPurchases(ctx context.Context, userID string) ([]models.PurchaseRecord, error)
	LookupLearnerByPin(ctx context.Context, pin string) (*models.Learner, error)
	RecordPointAward(ctx context.Context, award models.PointAward) error
	FetchPointAwards(ctx context.Context, learnerID string) ([]models.PointAward, error)
}

// localDoc is the JSON document kept in the local cache for identities
// without a remote record
type localDoc struct {
	Completions []models.CompletionRecord `json:"completions"`
	Awards      []models.PointAward       `json:"awards,omitempty"`
}

// LocalKey is the cache key progress of id is kept under for a session.
// Child identities have no local key.
func LocalKey(sessionID string, id identity.Identity) (key string, ok bool) {
	switch id.Kind {
	case identity.KindGuest:
		return "progress:" + sessionID, true
	case identity.KindDemo:
		return "demo:" + sessionID, true
	case identity.KindParent:
		return "parent:" + id.ParentID + ":" + sessionID, true
	}
	return "", false
}

// ephemeral identities lose their local progress when they are left
func ephemeral(id identity.Identity) bool {
	return id.Kind == identity.KindDemo || id.Kind == identity.KindParent
}

func readDoc(ctx context.Context, c cache.Cache, key string) (localDoc, error) {
	var doc localDoc
	raw, err := c.Get(ctx, key)
	if err != nil {
		return doc, fmt.Errorf("failed to read local progress: %w", err)
	}
	if raw == nil {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return localDoc{}, fmt.Errorf("failed to decode local progress: %w", err)
	}
	return doc, nil
}

func writeDoc(ctx context.Context, c cache.Cache, key string, doc localDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode local progress: %w", err)
	}
	if err := c.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write local progress: %w", err)
	}
	return nil
}

// appendCompletion adds rec unless its chapter is already recorded
func (d *localDoc) appendCompletion(rec models.CompletionRecord) bool {
	for _, existing := range d.Completions {
		if existing.Key() == rec.Key() {
			return false
		}
	}
	d.Completions = append(d.Completions, rec)
	return true
}

// appendAward adds a unless an award with the same id is recorded
func (d *localDoc) appendAward(a models.PointAward) bool {
	for _, existing := range d.Awards {
		if existing.ID == a.ID {
			return false
		}
	}
	d.Awards = append(d.Awards, a)
	return true
}
