package dashboard

import "time"

// Start launches the G that expires idle views. Views are checked four
// times per idle timeout, no more than once a second. Start returns once
// the G is running.
func (r *Registry) Start() {
	interval := r.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}

	r.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer r.wg.Done()
		hasStarted <- true
		r.expireOperations(interval)
	}()

	<-hasStarted
}

// Shutdown terminates the expiry G and waits for it to finish.
func (r *Registry) Shutdown() {
	r.evHandler("dashboard: shutdown: started")
	defer r.evHandler("dashboard: shutdown: completed")

	r.shutOnce.Do(func() {
		close(r.shut)
	})

	r.wg.Wait()
}

// expireOperations removes idle views on every tick of the interval.
func (r *Registry) expireOperations(interval time.Duration) {
	r.evHandler("dashboard: expireOperations: G started")
	defer r.evHandler("dashboard: expireOperations: G completed")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.Expire(now)

		case <-r.shut:
			r.evHandler("dashboard: expireOperations: received shut signal")
			return
		}
	}
}
