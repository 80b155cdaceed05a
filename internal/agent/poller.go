package agent

import (
	"context"
	"log"
	"time"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// Runner processes one claimed task; implemented by Orchestrator.
type Runner interface {
	Run(ctx context.Context, t task.Task) error
}

// Poller repeatedly queries the store for open tasks and hands each newly
// observed one to the runner. Tasks run sequentially: microphone and speaker
// are exclusive, so one conversation fully completes before the next starts.
type Poller struct {
	Store      Store
	Runner     Runner
	Interval   time.Duration
	StaleAfter time.Duration // 0 disables reclaiming

	// processed holds task ids dispatched during this process lifetime.
	processed map[string]struct{}
}

// NewPoller builds a poller with the given polling interval.
func NewPoller(store Store, runner Runner, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		Store:     store,
		Runner:    runner,
		Interval:  interval,
		processed: make(map[string]struct{}),
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	log.Printf("poller: started, interval=%v", p.Interval)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("poller: stopped")
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce runs a single poll cycle. Store errors are logged and retried on
// the next interval; no partial task mutation is committed.
func (p *Poller) pollOnce(ctx context.Context) {
	if p.StaleAfter > 0 {
		if n, err := p.Store.ReclaimStale(ctx, p.StaleAfter); err != nil {
			log.Printf("poller: reclaim stale: %v", err)
		} else if n > 0 {
			log.Printf("poller: reclaimed %d stale task(s)", n)
		}
	}

	tasks, err := p.Store.FetchOpenTasks(ctx)
	if err != nil {
		log.Printf("poller: fetch open tasks: %v", err)
		return
	}

	for _, t := range tasks {
		if ctx.Err() != nil {
			return
		}
		if _, seen := p.processed[t.ID]; seen {
			continue
		}

		claimed, err := p.Store.ClaimTask(ctx, t.ID)
		if err != nil {
			// Leave the id unmarked: the claim never happened, so the
			// next cycle must try again.
			log.Printf("poller: claim %s: %v", t.ID, err)
			continue
		}
		p.processed[t.ID] = struct{}{}
		if !claimed {
			// Another worker won the race; nothing to do.
			continue
		}

		log.Printf("poller: new task %s", t.ID)
		if err := p.Runner.Run(ctx, t); err != nil {
			log.Printf("poller: task %s failed: %v", t.ID, err)
		}
	}
}
