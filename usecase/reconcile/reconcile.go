// Package reconcile decides, once per login, how the device-local reminders
// and the identity's remote reminders are brought together.
package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
)

// Outcome names the branch of the decision table that was taken.
type Outcome string

const (
	OutcomeNothing     Outcome = "nothing"      // neither side has reminders
	OutcomeAdoptRemote Outcome = "adopt-remote" // only remote has reminders
	OutcomePushedLocal Outcome = "pushed-local" // local reminders moved to remote
	OutcomeRemoteWins  Outcome = "remote-wins"  // both sides had reminders; local kept as backup
	OutcomeSkipped     Outcome = "skipped"      // already reconciled this session
)

// Result reports what a run did.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Pushed  int     `json:"pushed"`
	Backup  int     `json:"backup"`
}

// Local is the device-local side. Drain holds off local writes while fn runs
// and clears the collection afterwards when fn reports true.
type Local interface {
	Drain(ctx context.Context, fn func([]domain.Reminder) (bool, error)) error
}

// Remote is the identity's remote side, already holding its initial snapshot.
type Remote interface {
	Reminders() []domain.Reminder
	// Import writes every reminder with its id preserved, or none of them.
	Import(ctx context.Context, reminders []domain.Reminder) error
}

// Reconciler runs the decision table at most once. A failed run may be retried;
// after the first success every further call is skipped.
type Reconciler struct {
	local  Local
	remote Remote
	logger *zap.Logger

	mu   sync.Mutex
	done bool
}

func New(local Local, remote Remote, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{local: local, remote: remote, logger: logger}
}

// Done reports whether a run already succeeded.
func (r *Reconciler) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return Result{Outcome: OutcomeSkipped}, nil
	}

	remote := r.remote.Reminders()

	var (
		result Result
		local  int
	)
	err := r.local.Drain(ctx, func(reminders []domain.Reminder) (bool, error) {
		local = len(reminders)
		switch {
		case local == 0 && len(remote) == 0:
			result.Outcome = OutcomeNothing
		case local == 0:
			result.Outcome = OutcomeAdoptRemote
		case len(remote) == 0:
			if err := r.remote.Import(ctx, reminders); err != nil {
				r.logger.Error("push local reminders failed", zap.Int("count", local), zap.Error(err))
				return false, err
			}
			result = Result{Outcome: OutcomePushedLocal, Pushed: local}
			return true, nil
		default:
			result = Result{Outcome: OutcomeRemoteWins, Backup: local}
		}
		return false, nil
	})
	if err != nil {
		if result.Outcome != OutcomePushedLocal {
			return Result{}, err
		}
		// The push landed; leftovers stay on the device only, and the next
		// login sees remote data and keeps them as backup.
		r.logger.Warn("clear local reminders after push failed", zap.Error(err))
	}

	r.done = true
	r.logger.Info("reminders reconciled",
		zap.String("outcome", string(result.Outcome)),
		zap.Int("local", local),
		zap.Int("remote", len(remote)),
		zap.Int("pushed", result.Pushed),
	)
	return result, nil
}
