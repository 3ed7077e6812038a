package repository

import (
	"context"
	"errors"

	"auditapi/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SubmissionCollection holds one document per audit request
const SubmissionCollection = "audit_submissions"

// SubmissionRepo handles MongoDB operations for audit submissions
type SubmissionRepo interface {
	Save(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]*model.Submission, error)
}

type submissionRepo struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewSubmissionRepo creates a submission repository and ensures its indexes
func NewSubmissionRepo(ctx context.Context, db *mongo.Database, logger *zap.Logger) SubmissionRepo {
	repo := &submissionRepo{
		collection: db.Collection(SubmissionCollection),
		logger:     logger.Named("submissions"),
	}
	repo.ensureIndexes(ctx)
	return repo
}

func (r *submissionRepo) ensureIndexes(ctx context.Context) {
	keys := bson.D{
		{Key: "sessionId", Value: 1},
		{Key: "createdAt", Value: -1},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
		r.logger.Warn("failed to create index", zap.String("collection", SubmissionCollection), zap.Error(err))
	}
}

// Save inserts the submission or replaces the stored version
func (r *submissionRepo) Save(ctx context.Context, sub *model.Submission) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub, opts)
	return err
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListBySession returns the newest submissions made from one session
func (r *submissionRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]*model.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []*model.Submission{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
