package core

import (
	"go.uber.org/zap"

	"github.com/plasmacash/plasma-go/pkg/core/state"
)

// SubscribeForNotifications adds the given channel to the notification
// broadcast list. The receiver is expected to keep up, events that can't
// be delivered immediately are dropped.
func (p *Plasma) SubscribeForNotifications(ch chan<- state.NotificationEvent) {
	p.subLock.Lock()
	defer p.subLock.Unlock()
	p.subscribers[ch] = true
}

// UnsubscribeFromNotifications removes the given channel from the
// notification broadcast list.
func (p *Plasma) UnsubscribeFromNotifications(ch chan<- state.NotificationEvent) {
	p.subLock.Lock()
	defer p.subLock.Unlock()
	delete(p.subscribers, ch)
}

// notify broadcasts an already persisted event to all subscribers.
func (p *Plasma) notify(ev state.NotificationEvent) {
	p.subLock.RLock()
	defer p.subLock.RUnlock()
	for ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
			p.log.Warn("skipped notification, receiver too slow",
				zap.Stringer("type", ev.Type),
				zap.Uint64("slot", ev.Slot))
		}
	}
}
