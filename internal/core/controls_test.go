package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dkeye/recruit/internal/domain"
)

func TestControlRoundTrip(t *testing.T) {
	tests := []ControlID{
		JoinControl("1180239485", "Tank"),
		JoinControl("1180239485", "DPS"),
		JoinControl("6f1c0c2e-4a7b-4d0e-9a65-2b0c6c7f0a11", "Healer"),
		LeaveControl("1180239485"),
		CloseControl("1180239485"),
		LeaveControl("msg:with:colons"),
		JoinControl("msg:with:colons", "Tank"),
		TriggerControl(false),
		TriggerControl(true),
	}

	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			got, err := Decode(Encode(want))
			if err != nil {
				t.Fatalf("Decode(%q): unexpected error: %v", Encode(want), err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeFormat(t *testing.T) {
	tests := []struct {
		id   ControlID
		want string
	}{
		{JoinControl("42", "Tank"), "join:Tank:42"},
		{LeaveControl("42"), "leave::42"},
		{CloseControl("42"), "close::42"},
		{TriggerControl(false), "create::"},
		{TriggerControl(true), "create-room::"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Encode(tt.id); got != tt.want {
				t.Fatalf("Encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"join",
		"join:Tank",
		"role_tank_42",
		"join::42",
		"join:Tank:",
		"leave:Tank:42",
		"leave::",
		"close::",
		"create::42",
		"create:Tank:",
		"kick::42",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := Decode(raw)
			if !errors.Is(err, domain.ErrBadControl) {
				t.Fatalf("Decode(%q) err = %v, want ErrBadControl", raw, err)
			}
		})
	}
}

func TestBindIsDeterministic(t *testing.T) {
	roles := []domain.RoleQuota{{Name: "Tank", Capacity: 2}, {Name: "Healer", Capacity: 2}, {Name: "DPS", Capacity: 4}}

	want := []ControlID{
		{Kind: KindJoin, Role: "Tank", Session: "7"},
		{Kind: KindJoin, Role: "Healer", Session: "7"},
		{Kind: KindJoin, Role: "DPS", Session: "7"},
		{Kind: KindLeave, Session: "7"},
		{Kind: KindClose, Session: "7"},
	}
	if diff := cmp.Diff(want, Bind("7", roles)); diff != "" {
		t.Fatalf("Bind mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Bind("7", roles), Bind("7", roles)); diff != "" {
		t.Fatalf("Bind not deterministic:\n%s", diff)
	}
}

func TestTriggerFlags(t *testing.T) {
	plain, room := TriggerControl(false), TriggerControl(true)
	if !plain.Trigger() || plain.WithRoom() {
		t.Fatalf("plain trigger: got trigger=%t room=%t", plain.Trigger(), plain.WithRoom())
	}
	if !room.Trigger() || !room.WithRoom() {
		t.Fatalf("room trigger: got trigger=%t room=%t", room.Trigger(), room.WithRoom())
	}
	if LeaveControl("1").Trigger() {
		t.Fatalf("leave control must not be a trigger")
	}
}
