package push

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMDispatcher delivers notifications through Firebase Cloud Messaging.
// Each user subscribes to their own topic ("user-<id>") client-side.
type FCMDispatcher struct {
	client *messaging.Client
}

// NewFCMDispatcher initializes the Firebase app and messaging client.
func NewFCMDispatcher(ctx context.Context, credentialsPath string) (*FCMDispatcher, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	log.Println("Firebase messaging client initialized successfully!")
	return &FCMDispatcher{client: client}, nil
}

// Send pushes one message per recipient topic.
func (d *FCMDispatcher) Send(ctx context.Context, recipientIDs []string, title, body string, data map[string]string) error {
	for _, id := range recipientIDs {
		msg := &messaging.Message{
			Topic: "user-" + id,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}
		if _, err := d.client.Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
