package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingPhotoTTL is how long archived photos of an unsaved analysis wait for a save.
const PendingPhotoTTL = 24 * time.Hour

type pendingEntry struct {
	deviceID uuid.UUID
	keys     []string
	at       time.Time
}

// pendingPhotos holds the archive keys of analyses that have not been saved yet,
// so a save can only attach photos this server archived for the same device.
// Entries live in process memory; a restart forgets them.
type pendingPhotos struct {
	mu      sync.Mutex
	entries map[uuid.UUID]pendingEntry
	ttl     time.Duration
	now     func() time.Time
}

func newPendingPhotos(ttl time.Duration) *pendingPhotos {
	return &pendingPhotos{
		entries: make(map[uuid.UUID]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// remember records keys for menuID and returns the keys of entries that expired.
func (p *pendingPhotos) remember(deviceID, menuID uuid.UUID, keys []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var expired []string
	for id, e := range p.entries {
		if now.Sub(e.at) > p.ttl {
			expired = append(expired, e.keys...)
			delete(p.entries, id)
		}
	}
	if len(keys) > 0 {
		p.entries[menuID] = pendingEntry{deviceID: deviceID, keys: append([]string{}, keys...), at: now}
	}
	return expired
}

// claim hands over the keys of menuID once, and only to the device that analyzed it.
func (p *pendingPhotos) claim(deviceID, menuID uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[menuID]
	if !ok || e.deviceID != deviceID || p.now().Sub(e.at) > p.ttl {
		return nil
	}
	delete(p.entries, menuID)
	return e.keys
}
