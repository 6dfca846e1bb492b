package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
)

type firestorePresenceRepository struct {
	client *firestore.Client
}

func NewFirestorePresenceRepository(client *firestore.Client) repository.PresenceRepository {
	return &firestorePresenceRepository{
		client: client,
	}
}

func (r *firestorePresenceRepository) ListenAll(ctx context.Context) (<-chan []*entity.Presence, <-chan error) {
	snapshots := r.client.Collection("presence").Snapshots(ctx)

	out := make(chan []*entity.Presence)
	errc := make(chan error, 1)

	go func() {
		defer snapshots.Stop()
		defer close(out)

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					errc <- errors.Internal("Presence subscription failed", err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				errc <- errors.Internal("Failed to read presence snapshot", err)
				return
			}

			var all []*entity.Presence
			for _, doc := range docs {
				var p entity.Presence
				if err := doc.DataTo(&p); err != nil {
					logger.Warn("Skipping malformed presence doc %s: %v", doc.Ref.ID, err)
					continue
				}
				if p.UserID == "" {
					p.UserID = doc.Ref.ID
				}
				all = append(all, &p)
			}

			select {
			case out <- all:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}
