package daemon

import (
	"log/slog"
	"net/netip"

	"github.com/arcrtr/srv6d/state"
	"github.com/jellydator/ttlcache/v3"
)

// resourceMissingDedup throttles "still waiting on a resource" logging
// for a SID address to once per state.ResourceMissingDedupTTL, grounded
// on the teacher's SeqnoDedup/PingBuf ttlcache-backed throttling
// pattern. It never affects the Installation Controller's actual
// decisions — only how often the daemon logs about an invalid SID while
// unrelated broker events keep re-triggering ReevaluateAll.
type resourceMissingDedup struct {
	cache *ttlcache.Cache[netip.Addr, struct{}]
}

func newResourceMissingDedup() *resourceMissingDedup {
	d := &resourceMissingDedup{
		cache: ttlcache.New[netip.Addr, struct{}](
			ttlcache.WithTTL[netip.Addr, struct{}](state.ResourceMissingDedupTTL),
		),
	}
	go d.cache.Start()
	return d
}

func (d *resourceMissingDedup) Stop() {
	d.cache.Stop()
}

// logIfDue logs msg at Debug level for addr unless it was already
// logged within the dedup window.
func (d *resourceMissingDedup) logIfDue(log *slog.Logger, addr netip.Addr, msg string) {
	if item := d.cache.Get(addr); item != nil {
		return
	}
	d.cache.Set(addr, struct{}{}, ttlcache.DefaultTTL)
	log.Debug(msg, "address", addr)
}
