package identity

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// UserLister is the administrative operation the API exposes.
type UserLister interface {
	// ListUsers returns the first page of at most maxResults user accounts.
	ListUsers(ctx context.Context, maxResults int) ([]*auth.ExportedUserRecord, error)
}

// FirebaseUserLister lists accounts through the Firebase Admin auth client.
type FirebaseUserLister struct {
	Client    *auth.Client
	ProjectID string
}

// NewFirebaseUserLister loads the service account key at credentialsPath and
// builds a Firebase app and auth client from it.
func NewFirebaseUserLister(ctx context.Context, credentialsPath string) (*FirebaseUserLister, error) {
	sa, raw, err := LoadServiceAccount(credentialsPath)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: sa.ProjectID}, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase auth client")
	}
	return &FirebaseUserLister{Client: client, ProjectID: sa.ProjectID}, nil
}

// ListUsers makes one batchGet call and returns what it buffered. A short
// page with a continuation token is not followed.
func (l *FirebaseUserLister) ListUsers(ctx context.Context, maxResults int) ([]*auth.ExportedUserRecord, error) {
	it := l.Client.Users(ctx, "")
	it.PageInfo().MaxSize = maxResults
	users := []*auth.ExportedUserRecord{}
	for {
		user, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		users = append(users, user)
		if len(users) >= maxResults || it.PageInfo().Remaining() == 0 {
			break
		}
	}
	return users, nil
}
