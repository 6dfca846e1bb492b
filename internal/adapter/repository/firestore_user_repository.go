package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) EnsureUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	docRef := r.client.Collection("users").Doc(user.ID)

	doc, err := docRef.Get(ctx)
	if err == nil {
		var existing entity.User
		if err := doc.DataTo(&existing); err != nil {
			return nil, errors.Internal("Failed to parse user data", err)
		}
		existing.ID = doc.Ref.ID
		return &existing, nil
	}
	if status.Code(err) != codes.NotFound {
		return nil, errors.Internal("Failed to get user", err)
	}

	user.CreatedAt = time.Now()
	if _, err := docRef.Set(ctx, user); err != nil {
		return nil, errors.Internal("Failed to create user", err)
	}

	return user, nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	// Identity fields stay as stored; only the mutable profile fields move.
	_, err := r.client.Collection("users").Doc(user.ID).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: user.DisplayName},
		{Path: "photoURL", Value: user.PhotoURL},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update user", err)
	}

	return nil
}

func (r *firestoreUserRepository) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var results []*entity.User
	seen := make(map[string]bool)

	appendDocs := func(iter *firestore.DocumentIterator) error {
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			if seen[doc.Ref.ID] {
				continue
			}
			var user entity.User
			if err := doc.DataTo(&user); err != nil {
				continue // skip malformed documents
			}
			user.ID = doc.Ref.ID
			seen[doc.Ref.ID] = true
			results = append(results, &user)
		}
	}

	users := r.client.Collection("users")

	if strings.Contains(query, "@") {
		emailIter := users.Where("email", "==", query).Limit(limit).Documents(ctx)
		if err := appendDocs(emailIter); err != nil {
			return nil, errors.Internal("Failed to search users by email", err)
		}
	}

	// Prefix search on displayName via the ordered range trick: everything
	// between the query and query+'' shares the prefix.
	nameIter := users.OrderBy("displayName", firestore.Asc).
		StartAt(query).
		EndAt(query + "").
		Limit(limit).
		Documents(ctx)
	if err := appendDocs(nameIter); err != nil {
		return nil, errors.Internal("Failed to search users by name", err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
