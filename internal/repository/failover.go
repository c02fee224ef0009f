package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverItemLocker uses the primary locker while it is healthy and switches
// to the fallback on infrastructure errors, probing the primary again after
// recoverAfter.
type FailoverItemLocker struct {
	primary      domain.ItemLocker
	fallback     domain.ItemLocker
	logger       *zerolog.Logger
	isDown       atomic.Bool
	lastCheck    atomic.Int64
	recoverAfter time.Duration
}

func NewFailoverItemLocker(primary, fallback domain.ItemLocker, logger *zerolog.Logger) *FailoverItemLocker {
	return &FailoverItemLocker{
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
		recoverAfter: time.Minute,
	}
}

func (l *FailoverItemLocker) markDown(err error) {
	l.logger.Error().Err(err).Msg("Primary item locker failed, falling back to memory")
	l.isDown.Store(true)
	l.lastCheck.Store(time.Now().UnixNano())
}

// contended errors mean the primary works and the item is simply busy.
func contended(err error) bool {
	return errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (l *FailoverItemLocker) Lock(ctx context.Context, itemID int64) (func(), error) {
	if l.isDown.Load() && time.Since(time.Unix(0, l.lastCheck.Load())) > l.recoverAfter {
		l.isDown.Store(false)
		l.logger.Info().Msg("Probing primary item locker")
	}

	if !l.isDown.Load() {
		unlock, err := l.primary.Lock(ctx, itemID)
		if err == nil {
			return unlock, nil
		}
		if contended(err) {
			return nil, err
		}
		l.markDown(err)
	}

	return l.fallback.Lock(ctx, itemID)
}
