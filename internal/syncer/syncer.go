package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"nextgenschool/internal/cache"
	"nextgenschool/internal/catalog"
	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/metrics"
	"nextgenschool/internal/models"
	"nextgenschool/internal/progress"
)

// Outcome is how a persistence attempt settled
type Outcome string

const (
	OutcomeSynced    Outcome = metrics.SyncSynced
	OutcomeUnsynced  Outcome = metrics.SyncUnsynced
	OutcomeDiscarded Outcome = metrics.SyncDiscarded
)

// maxAttempts is the first write plus one retry
const maxAttempts = 2

// parentFetchLimit bounds concurrent per-learner reads of a parent rebuild
const parentFetchLimit = 4

// TagChecker reports whether work stamped with a tag still belongs to the
// active identity
type TagChecker interface {
	IsCurrent(tag identity.Tag) bool
}

// Policy holds the collaborators shared by all sessions
type Policy struct {
	store   RemoteStore
	local   cache.Cache
	catalog *catalog.Catalog
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewPolicy wires the synchronization policy. m may be nil.
func NewPolicy(store RemoteStore, local cache.Cache, cat *catalog.Catalog, log *logger.Logger, m *metrics.Metrics) *Policy {
	return &Policy{
		store:   store,
		local:   local,
		catalog: cat,
		log:     log.With("component", "syncer"),
		metrics: m,
	}
}

// ForSession binds the policy to one session's resolver and model
func (p *Policy) ForSession(sessionID string, tags TagChecker, model *progress.Model) *Syncer {
	return &Syncer{
		policy:    p,
		sessionID: sessionID,
		tags:      tags,
		model:     model,
		log:       p.log.With("session", sessionID),
	}
}

// Syncer persists and rebuilds the progress of a single session
type Syncer struct {
	policy    *Policy
	sessionID string
	tags      TagChecker
	model     *progress.Model
	log       *logger.Logger

	// serializes read-modify-write of the session's local documents
	localMu sync.Mutex
}

// errStaleWrite stops a write whose tag is no longer current
var errStaleWrite = errors.New("identity changed before write")

// Persist writes ev for the identity in tag. Every attempt first checks the
// tag; a write for an identity that is no longer active is discarded. The
// in-memory mutation is never rolled back.
func (s *Syncer) Persist(ctx context.Context, tag identity.Tag, ev progress.Event) Outcome {
	target := "remote"
	if _, local := LocalKey(s.sessionID, tag.Identity); local {
		target = "local"
	}
	log := s.log.With("identity", tag.Identity.String(), "event", ev.Key())

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Info("retrying write", "error", err)
			s.policy.metrics.SyncWrite(target, metrics.SyncRetried)
		}
		err = s.write(ctx, tag, ev)
		if errors.Is(err, errStaleWrite) {
			log.Debug("stale write discarded")
			s.policy.metrics.SyncWrite(target, metrics.SyncDiscarded)
			return OutcomeDiscarded
		}
		if err == nil {
			if s.tags.IsCurrent(tag) {
				s.model.MarkSynced(ev)
			}
			s.policy.metrics.SyncWrite(target, metrics.SyncSynced)
			return OutcomeSynced
		}
	}

	if !s.tags.IsCurrent(tag) || !s.model.MarkUnsynced(ev) {
		log.Debug("stale write discarded", "error", err)
		s.policy.metrics.SyncWrite(target, metrics.SyncDiscarded)
		return OutcomeDiscarded
	}
	log.Warn("write left unsynced", "error", err)
	s.policy.metrics.SyncWrite(target, metrics.SyncUnsynced)
	return OutcomeUnsynced
}

func (s *Syncer) write(ctx context.Context, tag identity.Tag, ev progress.Event) error {
	id := tag.Identity
	if key, ok := LocalKey(s.sessionID, id); ok {
		return s.writeLocal(ctx, tag, key, ev)
	}
	if !s.tags.IsCurrent(tag) {
		return errStaleWrite
	}

	store := s.policy.store
	switch ev.Kind {
	case progress.EventCompletion:
		_, err := store.UpsertCompletion(ctx, id.LearnerID, ev.Completion.CourseID, ev.Completion.ChapterIndex)
		return err
	case progress.EventPoints:
		award := ev.Award
		award.LearnerID = id.LearnerID
		return store.RecordPointAward(ctx, award)
	}
	return fmt.Errorf("unknown event kind %d", ev.Kind)
}

// writeLocal checks the tag under localMu so it is ordered against Reset
func (s *Syncer) writeLocal(ctx context.Context, tag identity.Tag, key string, ev progress.Event) error {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	if !s.tags.IsCurrent(tag) {
		return errStaleWrite
	}
	doc, err := readDoc(ctx, s.policy.local, key)
	if err != nil {
		return err
	}

	var changed bool
	switch ev.Kind {
	case progress.EventCompletion:
		changed = doc.appendCompletion(ev.Completion)
	case progress.EventPoints:
		changed = doc.appendAward(ev.Award)
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
	if !changed {
		return nil
	}
	return writeDoc(ctx, s.policy.local, key, doc)
}

// Rebuild loads the state of tag's identity and replaces the model's
// snapshot with it. A load that settles after another identity change is
// dropped and false is returned.
func (s *Syncer) Rebuild(ctx context.Context, tag identity.Tag) (progress.Snapshot, bool) {
	st := s.Load(ctx, tag.Identity)
	if !s.tags.IsCurrent(tag) {
		s.log.Debug("stale rebuild discarded", "identity", tag.Identity.String())
		return s.model.Snapshot(), false
	}
	s.policy.metrics.SnapshotRebuilt(tag.Identity.Kind.String(), st.LoadFailed)
	return s.model.Rebuild(st), true
}

// Load reads everything the snapshot of id is derived from. Read failures
// produce an empty state with LoadFailed set.
func (s *Syncer) Load(ctx context.Context, id identity.Identity) progress.State {
	var (
		st  progress.State
		err error
	)
	switch id.Kind {
	case identity.KindChild:
		st, err = s.loadChild(ctx, id)
	case identity.KindParent:
		st, err = s.loadParent(ctx, id)
	case identity.KindDemo:
		st = progress.State{Demo: true}
	default:
		st, err = s.loadLocal(ctx, id)
	}
	if err != nil {
		s.log.Warn("failed to load progress", "identity", id.String(), "error", err)
		return progress.State{Demo: id.Kind == identity.KindDemo, LoadFailed: true}
	}
	return st
}

func (s *Syncer) loadLocal(ctx context.Context, id identity.Identity) (progress.State, error) {
	key, _ := LocalKey(s.sessionID, id)
	s.localMu.Lock()
	defer s.localMu.Unlock()
	doc, err := readDoc(ctx, s.policy.local, key)
	if err != nil {
		return progress.State{}, err
	}
	return progress.State{Completions: doc.Completions, Awards: doc.Awards}, nil
}

func (s *Syncer) loadChild(ctx context.Context, id identity.Identity) (progress.State, error) {
	var st progress.State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.policy.store.FetchCompletions(gctx, id.LearnerID)
		if err != nil {
			return fmt.Errorf("failed to fetch completions: %w", err)
		}
		st.Completions = recs
		return nil
	})
	g.Go(func() error {
		awards, err := s.policy.store.FetchPointAwards(gctx, id.LearnerID)
		if err != nil {
			return fmt.Errorf("failed to fetch point awards: %w", err)
		}
		st.Awards = awards
		return nil
	})
	g.Go(func() error {
		purchases, err := s.policy.store.FetchPurchases(gctx, id.ParentID)
		if err != nil {
			return fmt.Errorf("failed to fetch purchases: %w", err)
		}
		st.Purchases = purchases
		return nil
	})
	if err := g.Wait(); err != nil {
		return progress.State{}, err
	}
	return st, nil
}

type learnerProgress struct {
	completions []models.CompletionRecord
	awards      []models.PointAward
}

func (s *Syncer) loadParent(ctx context.Context, id identity.Identity) (progress.State, error) {
	learners, err := s.policy.store.FetchLearnersByParent(ctx, id.ParentID)
	if err != nil {
		return progress.State{}, fmt.Errorf("failed to fetch learners: %w", err)
	}

	results := make([]learnerProgress, len(learners))
	var purchases []models.PurchaseRecord

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parentFetchLimit)
	g.Go(func() error {
		p, err := s.policy.store.FetchPurchases(gctx, id.ParentID)
		if err != nil {
			return fmt.Errorf("failed to fetch purchases: %w", err)
		}
		purchases = p
		return nil
	})
	for i, l := range learners {
		g.Go(func() error {
			recs, err := s.policy.store.FetchCompletions(gctx, l.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch completions for learner %s: %w", l.ID, err)
			}
			awards, err := s.policy.store.FetchPointAwards(gctx, l.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch point awards for learner %s: %w", l.ID, err)
			}
			results[i] = learnerProgress{completions: recs, awards: awards}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return progress.State{}, err
	}

	st := progress.State{Purchases: purchases}
	for i, l := range learners {
		r := results[i]
		st.Completions = append(st.Completions, r.completions...)
		st.Awards = append(st.Awards, r.awards...)
		st.Learners = append(st.Learners, s.summarize(l, r))
	}
	return st, nil
}

// summarize derives one learner's dashboard row with the same rules as the
// learner's own snapshot
func (s *Syncer) summarize(l models.Learner, r learnerProgress) progress.LearnerSummary {
	snap := progress.NewModel(s.policy.catalog).Rebuild(progress.State{
		Completions: r.completions,
		Awards:      r.awards,
	})
	return progress.LearnerSummary{
		LearnerID: l.ID,
		Name:      l.Name,
		Points:    snap.Points,
		Level:     snap.Level(),
		Completed: len(snap.Completed),
	}
}

// Reset drops the local progress of id when it does not outlive the
// identity: demo and parent self-play always, guest only when clear is set.
func (s *Syncer) Reset(ctx context.Context, id identity.Identity, clear bool) error {
	key, ok := LocalKey(s.sessionID, id)
	if !ok || (!ephemeral(id) && !clear) {
		return nil
	}
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if err := s.policy.local.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to reset local progress: %w", err)
	}
	return nil
}
