package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"museum-sunday/internal/repository"
)

// Prober reports free and total slot counts for a museum on a date.
type Prober interface {
	Capacities(ctx context.Context, museumID int, date time.Time) (available, total int, err error)
}

// Scheduler decides when polling is worthwhile and drives the per-museum
// capacity checks. Two cron jobs share its state: the midnight eligibility
// recomputation and the poll tick.
type Scheduler struct {
	tasks      *repository.TaskRepository
	probe      Prober
	dispatcher *Dispatcher
	log        *zap.Logger

	daysMin  int
	daysMax  int
	interval time.Duration // tick period, doubles as the jitter budget

	cron *cron.Cron

	mu         sync.Mutex
	targetDate time.Time
	due        bool

	// Overridable in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewScheduler(tasks *repository.TaskRepository, probe Prober, dispatcher *Dispatcher, daysMin, daysMax int, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:      tasks,
		probe:      probe,
		dispatcher: dispatcher,
		log:        log,
		daysMin:    daysMin,
		daysMax:    daysMax,
		interval:   interval,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Start computes the initial eligibility window and registers both cron
// jobs. SkipIfStillRunning keeps ticks from overlapping: a tick that fires
// while the previous one is still probing is dropped.
func (s *Scheduler) Start() error {
	s.Recompute()

	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.Recompute); err != nil {
		return fmt.Errorf("schedule recompute: %w", err)
	}
	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	if _, err := s.cron.AddFunc(spec, func() { s.tick(context.Background()) }); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Recompute picks the next event Sunday and decides whether polling is due.
// The first Sunday of the current month is kept when it is at least daysMin
// whole days away; otherwise the target rolls to the next month.
func (s *Scheduler) Recompute() {
	now := s.now()

	target := firstSunday(now.Year(), now.Month())
	if daysBetween(now, target) < s.daysMin {
		// Roll from the first of the month so a Jan 31 "plus one month"
		// cannot normalize past February.
		next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		target = firstSunday(next.Year(), next.Month())
	}

	days := daysBetween(now, target)
	due := days >= s.daysMin && days <= s.daysMax

	s.mu.Lock()
	s.targetDate = target
	s.due = due
	s.mu.Unlock()

	s.log.Info("eligibility window recomputed",
		zap.String("target", target.Format("2006-01-02")),
		zap.Int("days", days),
		zap.Bool("due", due))
}

// window returns the current target date and due flag.
func (s *Scheduler) window() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetDate, s.due
}

// tick runs one polling pass over every subscribed museum. Museums are
// processed sequentially with a random delay each, so the whole pass stays
// within the interval budget and the provider never sees a burst.
func (s *Scheduler) tick(ctx context.Context) {
	target, due := s.window()
	if !due {
		return
	}

	grouped, err := s.tasks.GroupedByMuseum(ctx)
	if err != nil {
		s.log.Error("load subscriptions failed", zap.Error(err))
		return
	}
	if len(grouped) == 0 {
		return
	}

	for museumID, users := range grouped {
		delay := s.jitter(len(grouped))
		s.log.Debug("sleeping before probe", zap.Duration("delay", delay))
		s.sleep(delay)

		s.log.Info("checking museum",
			zap.Int("museum", museumID),
			zap.String("date", target.Format("2006-01-02")))

		available, total, err := s.probe.Capacities(ctx, museumID, target)
		if err != nil {
			s.log.Error("capacity probe failed", zap.Int("museum", museumID), zap.Error(err))
			continue
		}
		s.log.Info("slots", zap.Int("available", available), zap.Int("total", total))

		if available == 0 {
			continue
		}
		if err := s.dispatcher.NotifyAvailable(ctx, museumID, users, target, available, total); err != nil {
			s.log.Error("dispatch failed", zap.Int("museum", museumID), zap.Error(err))
			continue
		}
		if err := s.tasks.DeleteByMuseum(ctx, museumID); err != nil {
			s.log.Error("retire tasks failed", zap.Int("museum", museumID), zap.Error(err))
			continue
		}
		s.log.Info("tasks retired", zap.Int("museum", museumID))
	}
}

// jitter draws a delay from [0, interval/museumCount).
func (s *Scheduler) jitter(museumCount int) time.Duration {
	share := s.interval / time.Duration(museumCount)
	if share <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(share)))
}

// firstSunday returns midnight UTC of the first Sunday in the given month.
func firstSunday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, offset)
}

// daysBetween counts whole calendar days from one date to another.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}
