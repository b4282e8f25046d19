package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"backend-everywhere/internal/config"
)

// ConnectFirestore opens a Firestore client through the firebase admin SDK.
// FIREBASE_CREDENTIALS holds a base64 service account; when empty the
// application default credentials are used.
func ConnectFirestore(ctx context.Context, cfg config.Config) (*firestore.Client, error) {
	opts, err := firebaseOptions(cfg.FirebaseCredentials)
	if err != nil {
		return nil, err
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return client, nil
}

func firebaseOptions(encoded string) ([]option.ClientOption, error) {
	if encoded == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode firebase credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(decoded)}, nil
}
