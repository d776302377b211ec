// README: Delivery service implements state transitions and mirror propagation.
package delivery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"freteiro/internal/types"
)

var (
	ErrNotFound            = errors.New("delivery not found")
	ErrStateMismatch       = errors.New("illegal delivery status transition")
	ErrNotAssigned         = errors.New("delivery is not assigned to this driver")
	ErrConflict            = errors.New("delivery no longer available")
	ErrNoCompatibleVehicle = errors.New("no compatible active vehicle")
	ErrBadRequest          = errors.New("bad request")
)

// Assignment carries the driver/vehicle pair set by an accept write.
type Assignment struct {
	DriverID  types.ID
	VehicleID types.ID
}

// Store is the persistence surface the service needs. Every mutating method
// is a conditional write: a blind overwrite would let two drivers accept the
// same delivery.
type Store interface {
	Create(ctx context.Context, d *Delivery) error
	Get(ctx context.Context, id types.ID) (*Delivery, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Delivery, error)
	// ByOrder returns the most recent non-cancelled delivery referencing
	// the order.
	ByOrder(ctx context.Context, orderID types.ID) (*Delivery, error)
	ActiveByDriver(ctx context.Context, driverID types.ID) (*Delivery, error)
	TerminalByDriver(ctx context.Context, driverID types.ID, limit int) ([]*Delivery, error)
	// UpdateStatus applies from→to only if the record still matches
	// (status, version). assign is non-nil only for accept; cancellation
	// clears the assignment in the same write. Returns false when the
	// conditional write lost a race.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, assign *Assignment) (bool, error)
}

// VehicleGate re-validates vehicle compatibility at acceptance time. It is
// implemented by the dispatch matcher.
type VehicleGate interface {
	CompatibleVehicle(ctx context.Context, driverID, vehicleID types.ID, d *Delivery) error
}

// StatusMirror propagates a committed delivery status onto the linked order.
// Failures are logged and repaired later, never surfaced to the actor: the
// delivery record remains the source of truth.
type StatusMirror interface {
	DeliveryStatusChanged(ctx context.Context, orderID, deliveryID types.ID, status Status) error
}

type Service struct {
	store  Store
	gate   VehicleGate
	mirror StatusMirror
}

func NewService(store Store, gate VehicleGate, mirror StatusMirror) *Service {
	return &Service{store: store, gate: gate, mirror: mirror}
}

// SetMirror late-binds the status mirror. The sync coordinator both consumes
// this service and feeds it, so one of the two references is wired after
// construction.
func (s *Service) SetMirror(mirror StatusMirror) {
	s.mirror = mirror
}

type CreateCommand struct {
	OrderID             types.ID
	PickupAddress       string
	DeliveryAddress     string
	Pickup              *types.Point
	Dropoff             *types.Point
	CustomerName        string
	VendorName          string
	RequiredVehicleType string
	RequiresCrane       bool
	TotalWeightKg       float64
	Materials           []string
}

type AcceptCommand struct {
	DeliveryID types.ID
	DriverID   types.ID
	VehicleID  types.ID
}

type AdvanceCommand struct {
	DeliveryID types.ID
	// DriverID identifies the acting driver; empty for trusted automation
	// (webhooks), which skips the assignment check.
	DriverID types.ID
	Next     Status
}

type CancelCommand struct {
	DeliveryID types.ID
	// DriverID identifies the acting driver; empty for trusted automation,
	// which may cancel regardless of assignment.
	DriverID types.ID
}

// Create stores a fresh available delivery. Used directly and by the order
// fan-out.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.OrderID == "" {
		return "", ErrBadRequest
	}

	d := &Delivery{
		ID:                  newID(),
		OrderID:             cmd.OrderID,
		Status:              StatusAvailable,
		StatusVersion:       0,
		PickupAddress:       cmd.PickupAddress,
		DeliveryAddress:     cmd.DeliveryAddress,
		Pickup:              cmd.Pickup,
		Dropoff:             cmd.Dropoff,
		CustomerName:        cmd.CustomerName,
		VendorName:          cmd.VendorName,
		RequiredVehicleType: cmd.RequiredVehicleType,
		RequiresCrane:       cmd.RequiresCrane,
		TotalWeightKg:       cmd.TotalWeightKg,
		Materials:           cmd.Materials,
		CreatedAt:           time.Now(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// Accept assigns an available delivery to a driver/vehicle pair. Exactly one
// of several concurrent accepts can win the conditional write; the rest get
// ErrConflict. Re-delivery of an accept the driver already won succeeds.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	if cmd.DeliveryID == "" || cmd.DriverID == "" || cmd.VehicleID == "" {
		return ErrBadRequest
	}

	d, err := s.store.Get(ctx, cmd.DeliveryID)
	if err != nil {
		return err
	}

	if d.Status != StatusAvailable {
		return s.acceptOutcome(d, cmd.DriverID)
	}

	if s.gate != nil {
		if err := s.gate.CompatibleVehicle(ctx, cmd.DriverID, cmd.VehicleID, d); err != nil {
			return err
		}
	}

	ok, err := s.store.UpdateStatus(ctx, d.ID, StatusAvailable, StatusAccepted, d.StatusVersion,
		&Assignment{DriverID: cmd.DriverID, VehicleID: cmd.VehicleID})
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race; re-read to distinguish "we already hold it"
		// (a retried request) from "someone else got there first".
		cur, gerr := s.store.Get(ctx, cmd.DeliveryID)
		if gerr != nil {
			return gerr
		}
		return s.acceptOutcome(cur, cmd.DriverID)
	}

	s.propagate(ctx, d.OrderID, d.ID, StatusAccepted)
	return nil
}

// acceptOutcome maps a non-available delivery to the accept result: success
// when this driver already holds it, conflict otherwise.
func (s *Service) acceptOutcome(d *Delivery, driverID types.ID) error {
	if d.Status == StatusAccepted && d.AssignedTo(driverID) {
		return nil
	}
	if Terminal(d.Status) {
		return ErrStateMismatch
	}
	return ErrConflict
}

// Advance moves the delivery to the sole legal forward successor of its
// current status. Entering picked_up stamps pickup_time, entering delivered
// stamps delivery_time; both are stamped at most once.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) error {
	if cmd.DeliveryID == "" || !Valid(cmd.Next) {
		return ErrBadRequest
	}

	d, err := s.store.Get(ctx, cmd.DeliveryID)
	if err != nil {
		return err
	}

	// Re-delivery of an already-applied transition is a success, and must
	// not restamp timestamps.
	if d.Status == cmd.Next {
		return nil
	}

	// accepted is only reachable through Accept, which records the
	// driver/vehicle assignment; cancellation goes through Cancel.
	if cmd.Next == StatusAccepted || cmd.Next == StatusCancelled || !CanTransition(d.Status, cmd.Next) {
		return ErrStateMismatch
	}
	if cmd.DriverID != "" && !d.AssignedTo(cmd.DriverID) {
		return ErrNotAssigned
	}

	ok, err := s.store.UpdateStatus(ctx, d.ID, d.Status, cmd.Next, d.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		cur, gerr := s.store.Get(ctx, cmd.DeliveryID)
		if gerr != nil {
			return gerr
		}
		if cur.Status == cmd.Next {
			return nil
		}
		return ErrConflict
	}

	s.propagate(ctx, d.OrderID, d.ID, cmd.Next)
	return nil
}

// Cancel moves the delivery to cancelled from any non-terminal state and
// clears the driver/vehicle assignment in the same write. Cancelled is
// terminal: the matcher never re-surfaces the record, and retrying the work
// requires a fresh delivery.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	if cmd.DeliveryID == "" {
		return ErrBadRequest
	}

	d, err := s.store.Get(ctx, cmd.DeliveryID)
	if err != nil {
		return err
	}
	if d.Status == StatusCancelled {
		return nil
	}
	if d.Status == StatusDelivered {
		return ErrStateMismatch
	}
	if cmd.DriverID != "" && !d.AssignedTo(cmd.DriverID) {
		return ErrNotAssigned
	}

	ok, err := s.store.UpdateStatus(ctx, d.ID, d.Status, StatusCancelled, d.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		cur, gerr := s.store.Get(ctx, cmd.DeliveryID)
		if gerr != nil {
			return gerr
		}
		if cur.Status == StatusCancelled {
			return nil
		}
		return ErrConflict
	}

	s.propagate(ctx, d.OrderID, d.ID, StatusCancelled)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Delivery, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context, limit int) ([]*Delivery, error) {
	return s.store.ListByStatus(ctx, StatusAvailable, limit)
}

// ByOrder returns the order's live (non-cancelled) delivery.
func (s *Service) ByOrder(ctx context.Context, orderID types.ID) (*Delivery, error) {
	return s.store.ByOrder(ctx, orderID)
}

func (s *Service) ActiveByDriver(ctx context.Context, driverID types.ID) (*Delivery, error) {
	return s.store.ActiveByDriver(ctx, driverID)
}

func (s *Service) HistoryByDriver(ctx context.Context, driverID types.ID, limit int) ([]*Delivery, error) {
	return s.store.TerminalByDriver(ctx, driverID, limit)
}

// propagate mirrors a committed status onto the order. At-least-once: a
// failure here is logged and left to the read-repair sweep.
func (s *Service) propagate(ctx context.Context, orderID, deliveryID types.ID, status Status) {
	if s.mirror == nil || orderID == "" {
		return
	}
	if err := s.mirror.DeliveryStatusChanged(ctx, orderID, deliveryID, status); err != nil {
		log.Printf("delivery %s: mirror %s to order %s failed: %v", deliveryID, status, orderID, err)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
