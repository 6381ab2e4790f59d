package daemon

// loop serializes all mutation of daemon state onto a single goroutine,
// the same way the original design runs every bus call and monitor callback
// on one main loop. Bus method handlers use Do and block for the result;
// monitor goroutines use Post and return immediately.
type loop struct {
	ops  chan func()
	quit chan struct{}
}

func newLoop() *loop {
	return &loop{
		ops:  make(chan func(), 32),
		quit: make(chan struct{}),
	}
}

// run consumes posted work until Stop. Runs on its own goroutine.
func (l *loop) run() {
	for {
		select {
		case f := <-l.ops:
			f()
		case <-l.quit:
			return
		}
	}
}

// Do runs f on the loop goroutine and waits for it to finish. Must not be
// called from the loop goroutine itself.
func (l *loop) Do(f func()) {
	done := make(chan struct{})
	l.Post(func() {
		f()
		close(done)
	})
	<-done
}

// Post queues f without waiting.
func (l *loop) Post(f func()) {
	select {
	case l.ops <- f:
	case <-l.quit:
	}
}

func (l *loop) Stop() {
	close(l.quit)
}
