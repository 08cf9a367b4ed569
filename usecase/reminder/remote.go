package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/repository"
)

const feedReloadTimeout = 10 * time.Second

// RemoteStore keeps the collection in the remote document store scoped to one
// identity. Its view is always a full snapshot read back from the store: writes
// go to the repository first and the view follows through Reload, either
// directly after the write or when the change feed signals another writer.
type RemoteStore struct {
	*view
	userID string
	repo   repository.ReminderRepository
	feed   repository.ChangeFeed
	logger *zap.Logger

	reloadMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Store = (*RemoteStore)(nil)

// NewRemoteStore builds a store for userID. feed may be nil, in which case the
// view only refreshes after this store's own writes.
func NewRemoteStore(userID string, repo repository.ReminderRepository, feed repository.ChangeFeed, clock domain.Clock, logger *zap.Logger) *RemoteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteStore{
		view:   newView(clock),
		userID: userID,
		repo:   repo,
		feed:   feed,
		logger: logger.With(zap.String("user_id", userID)),
	}
}

// UserID returns the identity this store is scoped to.
func (s *RemoteStore) UserID() string {
	return s.userID
}

// Start loads the initial snapshot and follows the change feed until Stop.
func (s *RemoteStore) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	if s.feed == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	subCtx, cancel := context.WithCancel(context.Background())
	signals, err := s.feed.Subscribe(subCtx, s.userID)
	if err != nil {
		cancel()
		return domain.Unavailable("subscribe to reminder changes", err)
	}
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		for range signals {
			reloadCtx, stop := context.WithTimeout(subCtx, feedReloadTimeout)
			if err := s.Reload(reloadCtx); err != nil {
				s.logger.Warn("reload after change signal failed", zap.Error(err))
			}
			stop()
		}
	}(s.done)

	s.logger.Info("remote reminder subscription started")
	return nil
}

// Stop ends the change feed subscription. The last snapshot stays readable.
func (s *RemoteStore) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("remote reminder subscription stopped")
}

// Reload replaces the view with the collection currently stored remotely.
// On failure the view is left as it was.
func (s *RemoteStore) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	list, err := s.repo.List(ctx, s.userID)
	if err != nil {
		return domain.Unavailable("load remote reminders", err)
	}
	s.view.replace(list)
	return nil
}

func (s *RemoteStore) Add(ctx context.Context, draft domain.Draft) (domain.Reminder, error) {
	now := s.clock.Now()
	if err := draft.Validate(now); err != nil {
		return domain.Reminder{}, err
	}
	created := draft.Build(uuid.NewString(), now)
	created.UserID = s.userID

	if err := s.repo.Create(ctx, &created); err != nil {
		return domain.Reminder{}, repoError("create reminder", err)
	}
	s.afterWrite(ctx)
	return created, nil
}

func (s *RemoteStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return domain.Reminder{}, err
	}
	current, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return domain.Reminder{}, repoError("load reminder", err)
	}
	if err := patch.ValidateFor(*current); err != nil {
		return domain.Reminder{}, err
	}
	updated := patch.Apply(*current, s.clock.Now())
	if err := s.repo.Update(ctx, &updated); err != nil {
		return domain.Reminder{}, repoError("update reminder", err)
	}
	s.afterWrite(ctx)
	return updated, nil
}

func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, s.userID, id); err != nil {
		return repoError("delete reminder", err)
	}
	s.afterWrite(ctx)
	return nil
}

// Complete reads the stored reminder rather than the cached view so a
// completion made on another device is not overwritten.
func (s *RemoteStore) Complete(ctx context.Context, id string) (domain.Reminder, error) {
	current, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return domain.Reminder{}, repoError("load reminder", err)
	}
	if current.IsCompleted {
		return *current, nil
	}

	now := s.clock.Now()
	status := domain.Classify(current.Deadline, now)
	resolved, err := s.repo.Resolve(ctx, s.userID, id, status, now)
	if err != nil {
		return domain.Reminder{}, repoError("complete reminder", err)
	}
	if !resolved {
		return s.refetch(ctx, id)
	}
	s.afterWrite(ctx)
	return current.Resolve(status, now), nil
}

func (s *RemoteStore) MarkMissed(ctx context.Context, id string, at time.Time) (domain.Reminder, bool, error) {
	current, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return domain.Reminder{}, false, repoError("load reminder", err)
	}
	if !current.IsOverdue(at) {
		return *current, false, nil
	}

	resolved, err := s.repo.Resolve(ctx, s.userID, id, domain.CompletionTurnover, at)
	if err != nil {
		return domain.Reminder{}, false, repoError("mark reminder missed", err)
	}
	if !resolved {
		r, err := s.refetch(ctx, id)
		return r, false, err
	}
	s.afterWrite(ctx)
	return current.Resolve(domain.CompletionTurnover, at), true, nil
}

// Import writes reminders created elsewhere, keeping their ids and completion
// state. Either all of them land or none do.
func (s *RemoteStore) Import(ctx context.Context, reminders []domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	batch := clone(reminders)
	for i := range batch {
		batch[i].UserID = s.userID
	}
	if err := s.repo.CreateBatch(ctx, s.userID, batch); err != nil {
		return repoError("import reminders", err)
	}
	s.afterWrite(ctx)
	return nil
}

func (s *RemoteStore) refetch(ctx context.Context, id string) (domain.Reminder, error) {
	latest, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return domain.Reminder{}, repoError("load reminder", err)
	}
	return *latest, nil
}

// afterWrite announces the change to other subscribers and refreshes this
// store's own view. The write already succeeded, so failures are only logged.
func (s *RemoteStore) afterWrite(ctx context.Context) {
	if s.feed != nil {
		if err := s.feed.Publish(ctx, s.userID); err != nil {
			s.logger.Warn("publish reminder change failed", zap.Error(err))
		}
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("reload after write failed", zap.Error(err))
	}
}

// repoError keeps not-found and validation errors as they are and reports
// anything else as the remote store being unavailable.
func repoError(op string, err error) error {
	if domain.IsDomainError(err, domain.ErrCodeNotFound) || domain.IsDomainError(err, domain.ErrCodeInvalid) {
		return err
	}
	return domain.Unavailable(op, err)
}
