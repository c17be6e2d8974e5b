package rawhttp

import (
	"sync"
	"sync/atomic"
	"time"
)

// serverDateUpdater maintains a cached, second-granularity rendering of the
// current time for the Date response header, refreshed by a background
// goroutine rather than formatted on every response. useCounter lets
// multiple concurrent Server.Serve/ServeConn callers share one ticker.
type serverDateUpdater struct {
	mtx        sync.Mutex
	useCounter int32
	date       atomic.Value
	stopCh     chan struct{}

	zeroLenBuffer []byte

	slowPathBuffer   []byte
	slowPathLastTime time.Time
}

var serverDateUpdaterData = serverDateUpdater{
	zeroLenBuffer:    make([]byte, 0),
	slowPathBuffer:   make([]byte, 0),
	slowPathLastTime: time.Now().AddDate(0, 0, -1),
}

// startServerDateUpdater and stopServerDateUpdater must be called in
// matching pairs; the background ticker runs only while useCounter > 0.
func startServerDateUpdater() {
	serverDateUpdaterData.mtx.Lock()
	defer serverDateUpdaterData.mtx.Unlock()

	serverDateUpdaterData.useCounter++
	if serverDateUpdaterData.useCounter == 1 {
		serverDateUpdaterData.stopCh = make(chan struct{})
		refreshServerDate()
		go updateServerDate(serverDateUpdaterData.stopCh)
	}
}

func stopServerDateUpdater() {
	serverDateUpdaterData.mtx.Lock()
	defer serverDateUpdaterData.mtx.Unlock()

	serverDateUpdaterData.useCounter--
	if serverDateUpdaterData.useCounter == 0 {
		close(serverDateUpdaterData.stopCh)
		serverDateUpdaterData.date.Store(serverDateUpdaterData.zeroLenBuffer)
	}
}

func updateServerDate(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			refreshServerDate()
		}
	}
}

func refreshServerDate() {
	b := AppendHTTPDate(nil, time.Now())
	serverDateUpdaterData.date.Store(b)
}

// getServerDate returns the cached Date value. When no updater is running
// (date.Load() is still the zero-length sentinel or nil), it falls back to
// formatting the time directly, at most once per second, guarded by mtx —
// the path taken by a bare ServeConn caller that never started the ticker.
func getServerDate() []byte {
	b, ok := serverDateUpdaterData.date.Load().([]byte)
	if !ok || len(b) == 0 {
		serverDateUpdaterData.mtx.Lock()
		defer serverDateUpdaterData.mtx.Unlock()

		now := time.Now()
		if now.After(serverDateUpdaterData.slowPathLastTime) {
			serverDateUpdaterData.slowPathLastTime = now.Add(time.Second)
			serverDateUpdaterData.slowPathBuffer = AppendHTTPDate(nil, now)
		}
		return serverDateUpdaterData.slowPathBuffer
	}
	return b
}
