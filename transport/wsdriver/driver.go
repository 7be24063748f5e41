// Package wsdriver is a reference Driver (transport.Driver) that speaks
// the wire protocol in transport/frame.go over a raw websocket, using
// gobwas/ws for the handshake and frame I/O. It exists so the dispatch
// core has a concrete, testable transport binding without depending on
// a real telephony stack, per spec.md §6's Transport driver contract.
//
// Grounded on transport_src/connection.go's Connection/ConnectionManager
// (per-connection subscription tracking, generalized here to per-channel
// event subscriptions) and transport_src/server.go's accept-loop shape.
package wsdriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/Distrotech/asterisk/transport"
)

// channel tracks one outbound leg's underlying websocket connection.
type channel struct {
	conn net.Conn
	mu   sync.Mutex
}

// Driver implements transport.Driver over websocket connections
// registered with Accept. Each channel ID maps to exactly one connection.
type Driver struct {
	codec transport.Codec

	mu       sync.RWMutex
	channels map[string]*channel

	events chan transport.Event
	closed chan struct{}
}

// New creates a Driver using codec for frame encoding (defaults to
// JSON when codec is nil).
func New(codec transport.Codec) *Driver {
	if codec == nil {
		codec = transport.GetCodec(transport.CodecNameJSON)
	}
	return &Driver{
		codec:    codec,
		channels: make(map[string]*channel),
		events:   make(chan transport.Event, 256),
		closed:   make(chan struct{}),
	}
}

// Accept registers a conn that has already completed the websocket
// handshake (via ws.Upgrade in the caller's HTTP handler) under
// channelID and starts its read loop.
func (d *Driver) Accept(channelID string, conn net.Conn) error {
	ch := &channel{conn: conn}
	d.mu.Lock()
	d.channels[channelID] = ch
	d.mu.Unlock()
	go d.readLoop(channelID, ch)
	return nil
}

func (d *Driver) readLoop(channelID string, ch *channel) {
	for {
		data, op, err := wsutil.ReadClientData(ch.conn)
		if err != nil {
			d.emit(transport.Event{ChannelID: channelID, Kind: transport.EventHangup})
			return
		}
		if op != ws.OpBinary && op != ws.OpText {
			continue
		}
		frame, err := d.codec.Decode(data)
		if err != nil {
			continue
		}
		d.emit(decodeEvent(channelID, frame))
	}
}

func decodeEvent(channelID string, frame *transport.Frame) transport.Event {
	evt := transport.Event{ChannelID: channelID}
	switch frame.Method {
	case "answered":
		evt.Kind = transport.EventAnswered
	case "busy":
		evt.Kind = transport.EventBusy
	case "no_answer":
		evt.Kind = transport.EventNoAnswer
	case "congestion":
		evt.Kind = transport.EventCongestion
	case "ringing":
		evt.Kind = transport.EventRinging
	case "connected_line":
		evt.Kind = transport.EventConnectedLineUpdate
	case "call_forward":
		evt.Kind = transport.EventCallForward
	case "aoc":
		evt.Kind = transport.EventAOCUpdate
	case "dtmf":
		evt.Kind = transport.EventDTMF
	default:
		evt.Kind = transport.EventHangup
	}
	return evt
}

func (d *Driver) emit(evt transport.Event) {
	select {
	case d.events <- evt:
	case <-d.closed:
	}
}

func (d *Driver) send(channelID, method string, data any) error {
	d.mu.RLock()
	ch, ok := d.channels[channelID]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wsdriver: unknown channel %q", channelID)
	}
	frame, err := transport.NewRequestFrame(transport.GenerateFrameID(), method, data)
	if err != nil {
		return err
	}
	frame.ChannelID = channelID
	encoded, err := d.codec.Encode(frame)
	if err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return wsutil.WriteServerMessage(ch.conn, ws.OpBinary, encoded)
}

// Request is unsupported directly by wsdriver: outbound dialing is the
// responsibility of whatever signaling stack sits below the websocket.
// Request always returns an error and reserves nothing; a leg becomes
// usable once its connection is registered with Accept.
func (d *Driver) Request(ctx context.Context, iface string) (string, error) {
	return "", errors.New("wsdriver: Request requires an out-of-band dial; use Accept once the peer connects")
}

func (d *Driver) Call(ctx context.Context, channelID, callerID, digits string) error {
	return d.send(channelID, "call", map[string]string{"caller_id": callerID, "digits": digits})
}

func (d *Driver) Hangup(ctx context.Context, channelID string, cause int) error {
	err := d.send(channelID, "hangup", map[string]int{"cause": cause})
	d.mu.Lock()
	ch, ok := d.channels[channelID]
	delete(d.channels, channelID)
	d.mu.Unlock()
	if ok {
		ch.conn.Close()
	}
	return err
}

func (d *Driver) Indicate(ctx context.Context, channelID string, indication transport.Indication) error {
	return d.send(channelID, "indicate", map[string]int{"indication": int(indication)})
}

func (d *Driver) Bridge(ctx context.Context, callerChannelID, memberChannelID string) error {
	if err := d.send(callerChannelID, "bridge", map[string]string{"peer": memberChannelID}); err != nil {
		return err
	}
	return d.send(memberChannelID, "bridge", map[string]string{"peer": callerChannelID})
}

func (d *Driver) WaitForEvents(ctx context.Context) (<-chan transport.Event, error) {
	return d.events, nil
}

func (d *Driver) Read(ctx context.Context, channelID string) ([]byte, error) {
	d.mu.RLock()
	ch, ok := d.channels[channelID]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("wsdriver: unknown channel %q", channelID)
	}
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		ch.conn.SetReadDeadline(deadline)
	} else {
		ch.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	}
	data, _, err := wsutil.ReadClientData(ch.conn)
	return data, err
}

// Close stops event delivery: pending and later events are dropped
// instead of sent. The events channel itself is not closed.
func (d *Driver) Close() {
	close(d.closed)
}
