// README: Firebase side of location — RTDB position mirror and FCM driver alerts.
package location

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"

	"freteiro/internal/types"
)

// Topic every available transporter device subscribes to.
const newDeliveryTopic = "transporters_available"

// FirebaseService mirrors driver positions into RTDB, where the customer
// and transporter apps subscribe directly, and pushes new-delivery alerts
// over FCM.
type FirebaseService struct {
	dbClient  *db.Client
	msgClient *messaging.Client
}

func NewFirebaseService(ctx context.Context, app *firebase.App) (*FirebaseService, error) {
	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase RTDB client: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &FirebaseService{dbClient: dbClient, msgClient: msgClient}, nil
}

// rtdbDriverEntry is one driver entry under the /driver_locations node.
type rtdbDriverEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// MirrorPosition writes the driver's position under /driver_locations so
// client apps tracking a delivery see it without polling the API.
func (s *FirebaseService) MirrorPosition(ctx context.Context, driverID types.ID, pos types.Point) error {
	ref := s.dbClient.NewRef("driver_locations/" + string(driverID))
	entry := rtdbDriverEntry{
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := ref.Set(ctx, entry); err != nil {
		return fmt.Errorf("mirroring driver %s position: %w", driverID, err)
	}
	return nil
}

// ClearPosition removes the driver's RTDB entry when they go offline.
func (s *FirebaseService) ClearPosition(ctx context.Context, driverID types.ID) error {
	return s.dbClient.NewRef("driver_locations/" + string(driverID)).Delete(ctx)
}

// NotifyNewDelivery broadcasts a data message to subscribed transporter
// devices when a fresh delivery enters the queue.
func (s *FirebaseService) NotifyNewDelivery(ctx context.Context, deliveryID types.ID, pickupAddress string) error {
	msg := &messaging.Message{
		Topic: newDeliveryTopic,
		Data: map[string]string{
			"type":        "new_delivery",
			"delivery_id": string(deliveryID),
			"sent_at":     strconv.FormatInt(time.Now().UnixMilli(), 10),
		},
		Notification: &messaging.Notification{
			Title: "Nova entrega disponível",
			Body:  fmt.Sprintf("Recolha em %s", pickupAddress),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	messageID, err := s.msgClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM for delivery %s: %w", deliveryID, err)
	}
	log.Printf("location: FCM sent for delivery %s, message_id=%s", deliveryID, messageID)
	return nil
}
