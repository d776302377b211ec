package delivery

import "testing"

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusAvailable, StatusAccepted, true},
		{StatusAccepted, StatusHeadingPickup, true},
		{StatusHeadingPickup, StatusArrivedPickup, true},
		{StatusArrivedPickup, StatusPickedUp, true},
		{StatusPickedUp, StatusHeadingDelivery, true},
		{StatusHeadingDelivery, StatusArrivedDelivery, true},
		{StatusArrivedDelivery, StatusDelivered, true},
		// cancel from every non-terminal state
		{StatusAvailable, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusHeadingPickup, StatusCancelled, true},
		{StatusArrivedPickup, StatusCancelled, true},
		{StatusPickedUp, StatusCancelled, true},
		{StatusHeadingDelivery, StatusCancelled, true},
		{StatusArrivedDelivery, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusDelivered, StatusAvailable, false},
		{StatusCancelled, StatusAvailable, false},
		{StatusCancelled, StatusAccepted, false},
		// invalid: skipping states
		{StatusAvailable, StatusHeadingPickup, false},
		{StatusAccepted, StatusDelivered, false},
		{StatusAccepted, StatusPickedUp, false},
		{StatusPickedUp, StatusDelivered, false},
		// invalid: moving backwards
		{StatusPickedUp, StatusArrivedPickup, false},
		{StatusAccepted, StatusAvailable, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestForwardSuccessor_CoversEveryNonTerminalState(t *testing.T) {
	for _, s := range append(ActiveStatuses(), StatusAvailable) {
		if _, ok := ForwardSuccessor(s); !ok && s != StatusArrivedDelivery {
			t.Errorf("state %s has no forward successor", s)
		}
	}
	if next, _ := ForwardSuccessor(StatusArrivedDelivery); next != StatusDelivered {
		t.Errorf("arrived_delivery should advance to delivered, got %s", next)
	}
	if _, ok := ForwardSuccessor(StatusDelivered); ok {
		t.Error("delivered must be terminal")
	}
	if _, ok := ForwardSuccessor(StatusCancelled); ok {
		t.Error("cancelled must be terminal")
	}
}

func TestValid(t *testing.T) {
	for _, s := range []Status{
		StatusAvailable, StatusAccepted, StatusHeadingPickup, StatusArrivedPickup,
		StatusPickedUp, StatusHeadingDelivery, StatusArrivedDelivery,
		StatusDelivered, StatusCancelled,
	} {
		if !Valid(s) {
			t.Errorf("expected %s to be a valid node", s)
		}
	}
	if Valid(Status("pending")) || Valid(Status("")) {
		t.Error("unknown statuses must not validate")
	}
}
