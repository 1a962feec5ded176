// Package gateway fans inbound messages from transport channels into the
// turn handler and routes replies back out, chunked to each channel's
// message-size limit.
package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/emberbot/emberbot/internal/core"
)

// Channel is one transport (console, chat service, webhook).
type Channel interface {
	Name() string
	// Start blocks until ctx is canceled, feeding inbound messages into
	// ingress as they arrive.
	Start(ctx context.Context, ingress chan<- core.Inbound) error
	// Send delivers one already-chunked piece of text. replyToID is empty
	// for follow-on chunks.
	Send(channelID, text, replyToID string) error
	// SendAudio delivers an audio attachment.
	SendAudio(channelID, filename string, audio []byte) error
}

// Handler processes one inbound message and returns the reply text. An
// empty reply means nothing should be sent.
type Handler func(ctx context.Context, msg core.Inbound) (string, error)

// Gateway owns the channel registry and the ingress loop.
type Gateway struct {
	mu       sync.RWMutex
	channels map[string]Channel
	ingress  chan core.Inbound
	handler  Handler
}

// New creates a Gateway around the given turn handler.
func New(handler Handler) *Gateway {
	return &Gateway{
		channels: make(map[string]Channel),
		ingress:  make(chan core.Inbound, 100),
		handler:  handler,
	}
}

// Register adds a channel under its name.
func (g *Gateway) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.Name()] = c
}

// StartAll runs every registered channel plus the ingress loop and blocks
// until ctx is canceled.
func (g *Gateway) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		g.processIngress(ctx)
	}()

	g.mu.RLock()
	for _, c := range g.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Start(ctx, g.ingress); err != nil && ctx.Err() == nil {
				log.Printf("[GATEWAY] Channel %s: %v", ch.Name(), err)
			}
		}(c)
	}
	g.mu.RUnlock()

	<-ctx.Done()
	wg.Wait()
	return nil
}

// processIngress dispatches each inbound message on its own goroutine so a
// slow turn never blocks other users.
func (g *Gateway) processIngress(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.ingress:
			go g.handleOne(ctx, msg)
		}
	}
}

func (g *Gateway) handleOne(ctx context.Context, msg core.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GATEWAY] Panic handling message from %s: %v", msg.AuthorID, r)
		}
	}()

	reply, err := g.handler(ctx, msg)
	if err != nil {
		log.Printf("[GATEWAY] Turn failed for %s: %v", msg.AuthorID, err)
		return
	}
	if strings.TrimSpace(reply) == "" {
		return
	}

	g.mu.RLock()
	ch, ok := g.channels[msg.Channel]
	g.mu.RUnlock()
	if !ok {
		log.Printf("[GATEWAY] No channel %q for reply", msg.Channel)
		return
	}
	if err := Deliver(ch, msg.ChannelID, msg.ReplyToID, reply); err != nil {
		log.Printf("[GATEWAY] Deliver to %s: %v", ch.Name(), err)
	}
}

// DeliverAudio routes an audio payload to a "<channel>:<channelID>" target.
// It satisfies the voice tool's delivery contract.
func (g *Gateway) DeliverAudio(ctx context.Context, target, filename string, audio []byte) error {
	name, channelID, ok := strings.Cut(target, ":")
	if !ok {
		return fmt.Errorf("bad audio target %q, want channel:id", target)
	}
	g.mu.RLock()
	ch, found := g.channels[name]
	g.mu.RUnlock()
	if !found {
		return fmt.Errorf("no channel %q", name)
	}
	return ch.SendAudio(channelID, filename, audio)
}
