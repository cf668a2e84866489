package workers

import (
	"context"
	"log"
	"sync"

	"github.com/mbriand/linknest/internal/geoip"
	"github.com/mbriand/linknest/internal/models"
	"github.com/mbriand/linknest/internal/repository"
)

// VisitWorkerPool consumes visit events from a channel and persists
// them. Each event becomes one transactional write (visit row plus
// click counter), executed by the repository.
type VisitWorkerPool struct {
	visitRepo repository.VisitRepository
	geo       geoip.Resolver
	events    <-chan models.VisitEvent
	wg        sync.WaitGroup
}

// StartVisitWorkers launches a pool of worker goroutines to process visit
// events asynchronously, so recording never delays the user's redirect.
// Parameters:
//   - workerCount: number of concurrent workers to spawn
//   - events: channel that receives visit events to be processed
//   - visitRepo: repository persisting visits to the database
//   - geo: geolocation collaborator resolving countries from IPs
func StartVisitWorkers(workerCount int, events <-chan models.VisitEvent, visitRepo repository.VisitRepository, geo geoip.Resolver) *VisitWorkerPool {
	log.Printf("Starting %d visit worker(s)...", workerCount)

	pool := &VisitWorkerPool{
		visitRepo: visitRepo,
		geo:       geo,
		events:    events,
	}

	// Each worker listens on the same channel and processes events
	// concurrently. Workers exit when the channel is closed.
	for i := 0; i < workerCount; i++ {
		pool.wg.Add(1)
		go pool.run()
	}
	return pool
}

// Wait blocks until all workers have drained the channel and exited.
// Call after closing the events channel during shutdown.
func (p *VisitWorkerPool) Wait() {
	p.wg.Wait()
}

// run is the loop executed by each worker goroutine.
func (p *VisitWorkerPool) run() {
	defer p.wg.Done()

	for event := range p.events {
		p.record(event)
	}
}

// record converts a VisitEvent into a Visit row and persists it.
// The country lookup happens here, off the request path. Failures are
// logged and the event is abandoned; analytics never retries into a
// double increment.
func (p *VisitWorkerPool) record(event models.VisitEvent) {
	visit := &models.Visit{
		LinkID:    event.LinkID,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Referrer:  event.Referrer,
		Country:   p.geo.Lookup(event.IPAddress),
		ClickedAt: event.ClickedAt,
	}

	if err := p.visitRepo.RecordVisit(context.Background(), visit); err != nil {
		log.Printf("ERROR: Failed to record visit for link %d (IP: %s): %v",
			event.LinkID, event.IPAddress, err)
	}
}
