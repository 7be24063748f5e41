package dispatcher

import (
	"testing"

	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/queue"
)

func TestEmptyBlockedNoConditionNeverBlocks(t *testing.T) {
	q := queue.New("support")
	q.Members.Insert(&member.Member{Interface: "SIP/100"})

	blocked, unavail := emptyBlocked(q, 0)
	if blocked || unavail {
		t.Fatalf("expected no block with a zero condition, got blocked=%v unavail=%v", blocked, unavail)
	}
}

func TestEmptyBlockedNoMembersAlwaysBlocks(t *testing.T) {
	q := queue.New("support")
	blocked, unavail := emptyBlocked(q, queue.EmptyPaused)
	if !blocked || unavail {
		t.Fatalf("expected block without unavailable, got blocked=%v unavail=%v", blocked, unavail)
	}
}

func TestEmptyBlockedAllPausedBlocks(t *testing.T) {
	q := queue.New("support")
	m := &member.Member{Interface: "SIP/100"}
	m.SetPaused(true)
	q.Members.Insert(m)

	blocked, unavail := emptyBlocked(q, queue.EmptyPaused)
	if !blocked || unavail {
		t.Fatalf("expected block via paused-only, got blocked=%v unavail=%v", blocked, unavail)
	}
}

func TestEmptyBlockedOneEligibleMemberDoesNotBlock(t *testing.T) {
	q := queue.New("support")
	paused := &member.Member{Interface: "SIP/100"}
	paused.SetPaused(true)
	q.Members.Insert(paused)
	q.Members.Insert(&member.Member{Interface: "SIP/101"})

	blocked, _ := emptyBlocked(q, queue.EmptyPaused)
	if blocked {
		t.Fatal("expected no block: SIP/101 is still eligible")
	}
}

func TestEmptyBlockedUnavailableSetsUnavailFlag(t *testing.T) {
	reg := device.NewRegistry()
	defer reg.Close()

	q := queue.New("support")
	dev := reg.Acquire("SIP/100")
	reg.SetStatus("SIP/100", device.StatusUnavailable)
	q.Members.Insert(&member.Member{Interface: "SIP/100", Dev: dev})

	blocked, unavail := emptyBlocked(q, queue.EmptyUnavailable)
	if !blocked || !unavail {
		t.Fatalf("expected blocked+unavailable, got blocked=%v unavail=%v", blocked, unavail)
	}
}

func TestEffectiveStatusOfNoDeviceIsUnknown(t *testing.T) {
	m := &member.Member{Interface: "SIP/100"}
	if got := effectiveStatusOf(m); got != device.StatusUnknown {
		t.Fatalf("expected StatusUnknown for a member with no device, got %v", got)
	}
}

func TestIsOurTurnHeadOfLineIsAlwaysTrue(t *testing.T) {
	q := queue.New("support")
	wc := &queue.WaitingClient{Position: 1}
	if !isOurTurn(q, wc) {
		t.Fatal("expected position 1 to always be our turn")
	}
}

func TestIsOurTurnBeyondAvailableMembersIsFalse(t *testing.T) {
	q := queue.New("support")
	q.Members.Insert(&member.Member{Interface: "SIP/100"})
	wc := &queue.WaitingClient{Position: 2}
	if isOurTurn(q, wc) {
		t.Fatal("expected position 2 with only 1 available member to not be our turn")
	}
}
