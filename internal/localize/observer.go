package localize

import "sync"

// Observer fans structural insertions out to subscribers. Documents call
// Notify when nodes are inserted; notifications are dropped unless the
// observer is started.
type Observer struct {
	mu      sync.Mutex
	running bool
	nextID  int
	subs    map[int]func([]Node)
}

func NewObserver() *Observer {
	return &Observer{subs: make(map[int]func([]Node))}
}

// OnNodesInserted registers cb and returns a function that removes it.
func (o *Observer) OnNodesInserted(cb func([]Node)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = cb
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

func (o *Observer) Start() {
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()
}

func (o *Observer) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

func (o *Observer) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Notify delivers inserted nodes to every subscriber. Callbacks run
// outside the lock so they may insert nodes themselves.
func (o *Observer) Notify(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cbs := make([]func([]Node), 0, len(o.subs))
	for _, cb := range o.subs {
		cbs = append(cbs, cb)
	}
	o.mu.Unlock()

	for _, cb := range cbs {
		cb(nodes)
	}
}

// anyLink reports whether any inserted node is or contains a link.
func anyLink(nodes []Node) bool {
	for _, n := range nodes {
		if n != nil && n.ContainsLink() {
			return true
		}
	}
	return false
}
