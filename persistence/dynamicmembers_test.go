package persistence

import "testing"

func TestEncodeDecodeDynamicMembersRoundTrip(t *testing.T) {
	records := []DynamicMemberRecord{
		{Interface: "SIP/alice", Penalty: 0, Paused: false, DisplayName: "Alice", StateKey: "SIP/alice", CallInUse: true},
		{Interface: "SIP/bob", Penalty: 3, Paused: true, DisplayName: "Bob Smith", StateKey: "SIP/bob", CallInUse: false},
	}

	line := EncodeDynamicMembers(records)
	if line == "" {
		t.Fatal("expected a non-empty encoded line")
	}

	decoded, err := DecodeDynamicMembers(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i, want := range records {
		if decoded[i] != want {
			t.Fatalf("record %d: got %+v, want %+v", i, decoded[i], want)
		}
	}
}

func TestEncodeDynamicMembersEmptyClearsLine(t *testing.T) {
	if line := EncodeDynamicMembers(nil); line != "" {
		t.Fatalf("expected empty line for no records, got %q", line)
	}
}

func TestDecodeDynamicMembersRejectsMalformedEntry(t *testing.T) {
	if _, err := DecodeDynamicMembers("SIP/alice;not-a-number;0;Alice;SIP/alice;1"); err == nil {
		t.Fatal("expected an error for a non-integer penalty field")
	}
	if _, err := DecodeDynamicMembers("SIP/alice;0;0"); err == nil {
		t.Fatal("expected an error for a short entry")
	}
}
