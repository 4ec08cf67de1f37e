package views

import "sync"

// walletLocks is the interning map of wallet -> mutex used to serialize points-ledger writes per
// wallet (SPEC_FULL.md §5 "Shared state" / §4.7 "the service MUST serialize points writes per
// wallet"). Entries are refcounted and removed once no goroutine holds or is waiting on them, so the
// map does not grow unbounded across the life of the process.
type walletLocks struct {
	mu      sync.Mutex
	entries map[string]*walletLockEntry
}

type walletLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{entries: make(map[string]*walletLockEntry)}
}

// lock acquires the per-wallet mutex, creating it if necessary, and returns an unlock func that
// releases it and GCs the entry once quiescent.
func (w *walletLocks) lock(wallet string) func() {
	w.mu.Lock()
	e, ok := w.entries[wallet]
	if !ok {
		e = &walletLockEntry{}
		w.entries[wallet] = e
	}
	e.refs++
	w.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		w.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(w.entries, wallet)
		}
		w.mu.Unlock()
	}
}
