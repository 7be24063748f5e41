package eventmux

import (
	"context"
	"testing"
	"time"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/transport"
)

type fakeDriver struct {
	events chan transport.Event
}

func newFakeDriver() *fakeDriver { return &fakeDriver{events: make(chan transport.Event, 8)} }

func (f *fakeDriver) Request(ctx context.Context, iface string) (string, error) { return "", nil }
func (f *fakeDriver) Call(ctx context.Context, channelID, callerID, digits string) error {
	return nil
}
func (f *fakeDriver) Hangup(ctx context.Context, channelID string, cause int) error { return nil }
func (f *fakeDriver) Indicate(ctx context.Context, channelID string, ind transport.Indication) error {
	return nil
}
func (f *fakeDriver) Bridge(ctx context.Context, a, b string) error { return nil }
func (f *fakeDriver) WaitForEvents(ctx context.Context) (<-chan transport.Event, error) {
	return f.events, nil
}
func (f *fakeDriver) Read(ctx context.Context, channelID string) ([]byte, error) { return nil, nil }

func newAttempt(reg *device.Registry, iface, channelID string) *attempt.Attempt {
	dev := reg.Acquire(iface)
	reg.Reserve(dev)
	return attempt.New(&member.Member{Interface: iface}, dev, channelID, 0)
}

func TestRaceFirstAnswerWins(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	driver := newFakeDriver()
	mux := New(driver)

	set := attempt.NewSet()
	a1 := newAttempt(reg, "A", "chan-a")
	a2 := newAttempt(reg, "B", "chan-b")
	set.Add(a1)
	set.Add(a2)

	go func() {
		driver.events <- transport.Event{ChannelID: "chan-b", Kind: transport.EventBusy}
		driver.events <- transport.Event{ChannelID: "chan-a", Kind: transport.EventAnswered}
	}()

	res, err := mux.Race(context.Background(), "chan-caller", set, time.Second, Signals{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAnswered || res.Winner != a1 {
		t.Fatalf("expected a1 to win, got %+v", res)
	}
	if a2.StillGoing() {
		t.Fatal("expected a2 to be retired")
	}
}

func TestRaceCallerHangupWins(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	driver := newFakeDriver()
	mux := New(driver)
	set := attempt.NewSet()
	set.Add(newAttempt(reg, "A", "chan-a"))

	go func() {
		driver.events <- transport.Event{ChannelID: "chan-caller", Kind: transport.EventHangup}
	}()

	res, err := mux.Race(context.Background(), "chan-caller", set, time.Second, Signals{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeCallerHangup {
		t.Fatalf("expected caller hangup outcome, got %+v", res)
	}
}

func TestRaceRingAllDefersConnectedLineToWinner(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	driver := newFakeDriver()
	mux := New(driver)

	set := attempt.NewSet()
	a1 := newAttempt(reg, "A", "chan-a")
	a2 := newAttempt(reg, "B", "chan-b")
	set.Add(a1)
	set.Add(a2)

	var updates []*attempt.Attempt
	sig := Signals{ConnectedLineUpdate: func(a *attempt.Attempt, cl attempt.ConnectedLine) {
		updates = append(updates, a)
	}}

	go func() {
		driver.events <- transport.Event{ChannelID: "chan-b", Kind: transport.EventConnectedLineUpdate, ConnNumber: "555"}
		driver.events <- transport.Event{ChannelID: "chan-a", Kind: transport.EventAnswered}
	}()

	res, err := mux.Race(context.Background(), "chan-caller", set, time.Second, sig, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAnswered || res.Winner != a1 {
		t.Fatalf("expected a1 to win, got %+v", res)
	}
	if len(updates) != 0 {
		t.Fatalf("expected the losing leg's connected-line update to stay pending, got %d callbacks", len(updates))
	}
	if !a2.Has(attempt.FlagPendingConnectedUpdate) {
		t.Fatal("expected a2's connected-line update to remain pending since it never won")
	}
}

func TestRaceNonRingAllAppliesConnectedLineImmediately(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	driver := newFakeDriver()
	mux := New(driver)

	set := attempt.NewSet()
	a1 := newAttempt(reg, "A", "chan-a")
	set.Add(a1)

	applied := make(chan *attempt.Attempt, 1)
	sig := Signals{ConnectedLineUpdate: func(a *attempt.Attempt, cl attempt.ConnectedLine) {
		applied <- a
	}}

	go func() {
		driver.events <- transport.Event{ChannelID: "chan-a", Kind: transport.EventConnectedLineUpdate, ConnNumber: "555"}
		driver.events <- transport.Event{ChannelID: "chan-a", Kind: transport.EventAnswered}
	}()

	res, err := mux.Race(context.Background(), "chan-caller", set, time.Second, sig, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %+v", res)
	}
	select {
	case a := <-applied:
		if a != a1 {
			t.Fatal("expected the update to be attributed to a1")
		}
	default:
		t.Fatal("expected the connected-line update to apply immediately, not after the win")
	}
}

func TestRaceTimesOutWhenNoEvents(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	driver := newFakeDriver()
	mux := New(driver)
	set := attempt.NewSet()
	set.Add(newAttempt(reg, "A", "chan-a"))

	res, err := mux.Race(context.Background(), "chan-caller", set, 20*time.Millisecond, Signals{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout outcome, got %+v", res)
	}
}
