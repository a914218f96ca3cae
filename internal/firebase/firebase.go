package firebase

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/realtimedb"
	"github.com/platebook/platebook-backend/internal/store"
	"github.com/platebook/platebook-backend/internal/utils/errors"
)

//Clients Connected Firebase clients.
type Clients struct {
	Store      store.Storer
	RealtimeDB realtimedb.RealtimeDB

	firestore *firestore.Client
}

//Close Releases the Firestore connection.
func (c *Clients) Close() error {
	if c.firestore == nil {
		return nil
	}
	return c.firestore.Close()
}

//Connect Connects to Firestore and Realtime DB. With FIREBASE_URL=NOOP in-memory mocks are returned.
func Connect(ctx context.Context, conf config.FirebaseConfig) (*Clients, error) {
	logger := logging.FromContext(ctx).Named("firebase.Connect")

	if conf.Mocked() {
		logger.Infof("Mocking Firebase")
		return &Clients{Store: store.NewMockClient(), RealtimeDB: &realtimedb.MockClient{}}, nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL: conf.URL,
		ProjectID:   conf.ProjectID,
	})
	if err != nil {
		return nil, &errors.ConfigError{Msg: "Could not initialize Firebase app", Err: err}
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, &errors.ConfigError{Msg: "Could not connect to Realtime DB", Err: err}
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, &errors.ConfigError{Msg: "Could not connect to Firestore", Err: err}
	}

	logger.Debugf("Connected to Firebase project %v", conf.ProjectID)

	return &Clients{
		Store:      store.Client{Firestore: fsClient},
		RealtimeDB: realtimedb.Client{DB: dbClient},
		firestore:  fsClient,
	}, nil
}
