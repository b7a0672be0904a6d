package store

// Subscription delivers store snapshots. The channel holds at most one
// pending snapshot; a slow reader sees the newest state rather than every
// intermediate one.
type Subscription struct {
	C <-chan Snapshot

	ch    chan Snapshot
	store *Store
}

// Subscribe registers a subscriber. The current snapshot is available on
// the channel immediately.
func (s *Store) Subscribe() *Subscription {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, ch: ch, store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
	ch <- s.snapshotLocked()
	return sub
}

// Unsubscribe stops delivery and closes the channel. It is safe to call more
// than once.
func (sub *Subscription) Unsubscribe() {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}

// publishLocked bumps the version and hands the new snapshot to every
// subscriber, replacing any snapshot they have not read yet.
func (s *Store) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for sub := range s.subs {
		select {
		case sub.ch <- snap:
			continue
		default:
		}
		// Drop the stale value; only publishLocked sends, so the retry fits
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}
