// bus.go
package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"devicecode-water/errcode"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Wildcard tokens. "+" matches exactly one level, "#" matches zero or more
// trailing levels and must be last.
const (
	SingleWild = "+"
	MultiWild  = "#"
)

// Topic is a sequence of comparable tokens (usually strings or ints).
type Topic []any

func (t Topic) Len() int     { return len(t) }
func (t Topic) At(i int) any { return t[i] }

// T builds a topic and panics on non-comparable tokens, since they cannot key
// the trie.
func T(tokens ...any) Topic {
	for _, tok := range tokens {
		switch tok.(type) {
		case string, int, int32, int64, uint, uint32, uint64, bool:
		default:
			panic("bus: topic token must be comparable scalar")
		}
	}
	return Topic(tokens)
}

// Append returns a new topic with extra tokens; t is not modified.
func (t Topic) Append(tokens ...any) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	return append(out, T(tokens...)...)
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
	once  sync.Once
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

func (s *Subscription) deliver(msg *Message) {
	select {
	case s.ch <- msg:
	default:
		// drop oldest if queue full
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- msg:
		default:
		}
	}
}

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok any, create bool) *node {
	if c, ok := n.children[tok]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[any]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu      sync.Mutex
	root    *node // subscription trie (may contain wildcards)
	store   *node // retained trie (concrete topics only)
	qLen    int
	replyID atomic.Uint32
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root:  &node{},
		store: &node{},
		qLen:  queueLen,
	}
}

// NewMessage builds a message for publishing on this bus.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// addSubscription inserts a subscription into the trie and replays any
// retained messages that match its filter.
func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, sub)

	collectRetained(b.store, sub.topic, func(m *Message) { sub.deliver(m) })
}

// Publish delivers a message to all subscribers whose filter matches.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		n := b.store
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}

	matchSubs(b.root, msg.Topic, func(s *Subscription) { s.deliver(msg) })
}

// matchSubs walks the subscription trie for a concrete topic.
func matchSubs(n *node, topic Topic, fn func(*Subscription)) {
	if h := n.child(MultiWild, false); h != nil {
		for _, s := range h.subs {
			fn(s)
		}
	}
	if len(topic) == 0 {
		for _, s := range n.subs {
			fn(s)
		}
		return
	}
	if c := n.child(topic[0], false); c != nil {
		matchSubs(c, topic[1:], fn)
	}
	if c := n.child(SingleWild, false); c != nil {
		matchSubs(c, topic[1:], fn)
	}
}

// collectRetained walks the retained trie with a (possibly wildcard) filter.
func collectRetained(n *node, filter Topic, fn func(*Message)) {
	if len(filter) == 0 {
		if n.retained != nil {
			fn(n.retained)
		}
		return
	}
	switch filter[0] {
	case MultiWild:
		var walk func(*node)
		walk = func(x *node) {
			if x.retained != nil {
				fn(x.retained)
			}
			for _, c := range x.children {
				walk(c)
			}
		}
		walk(n)
	case SingleWild:
		for _, c := range n.children {
			collectRetained(c, filter[1:], fn)
		}
	default:
		if c := n.child(filter[0], false); c != nil {
			collectRetained(c, filter[1:], fn)
		}
	}
}

// unsubscribe removes a subscription from the trie and prunes empty nodes.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range sub.topic {
		c := n.child(tok, false)
		if c == nil {
			return
		}
		stack = append(stack, n)
		n = c
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	for i := len(sub.topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.topic[i]
		c := parent.children[key]
		if len(c.subs) == 0 && len(c.children) == 0 {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.addSubscription(sub)
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	sub.once.Do(func() { close(sub.ch) })
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// -----------------------------------------------------------------------------
// Request / Reply
// -----------------------------------------------------------------------------

// Request assigns a private ReplyTo topic, subscribes to it and publishes msg.
// The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	id := c.bus.replyID.Add(1)
	msg.ReplyTo = T("_reply", c.id, int(id))
	sub := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return sub
}

// RequestWait publishes msg and blocks for the first reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)

	select {
	case <-ctx.Done():
		return nil, errcode.Timeout
	case reply, ok := <-sub.Channel():
		if !ok {
			return nil, errcode.Error
		}
		return reply, nil
	}
}

// Reply answers a request. Requests without ReplyTo are ignored.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if req == nil || len(req.ReplyTo) == 0 {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}
