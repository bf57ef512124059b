package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/cloudevents"
	"github.com/wms-platform/stocktake-service/pkg/kafka"
	"github.com/wms-platform/stocktake-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/stocktake-service/pkg/outbox/mongodb"
)

type CountAssignmentRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewCountAssignmentRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *CountAssignmentRepository {
	collection := db.Collection("count_assignments")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &CountAssignmentRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *CountAssignmentRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "auditId", Value: 1}}},
		{Keys: bson.D{{Key: "workerId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "branchId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "workerId", Value: 1}, {Key: "assignedAt", Value: -1}}},
		{Keys: bson.D{{Key: "branchId", Value: 1}, {Key: "completedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)

	_ = r.outboxRepo.EnsureIndexes(ctx)
}

// Save persists an assignment together with its domain events in one
// transaction. Events go to the outbox and reach Kafka through the
// outbox publisher.
func (r *CountAssignmentRepository) Save(ctx context.Context, assignment *domain.CountAssignment) error {
	assignment.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"assignmentId": assignment.AssignmentID}
		update := bson.M{"$set": assignment}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return nil, fmt.Errorf("failed to save assignment: %w", err)
		}

		domainEvents := assignment.GetDomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

			for _, event := range domainEvents {
				cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), "assignment/"+assignment.AssignmentID, event)
				cloudEvent.BranchID = assignment.BranchID
				cloudEvent.AuditID = assignment.AuditID

				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
					assignment.AssignmentID,
					"CountAssignment",
					kafka.Topics.StocktakeEvents,
					cloudEvent,
				)
				if err != nil {
					return nil, fmt.Errorf("failed to create outbox event: %w", err)
				}
				outboxEvents = append(outboxEvents, outboxEvent)
			}

			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		assignment.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *CountAssignmentRepository) FindByID(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
	var assignment domain.CountAssignment
	err := r.collection.FindOne(ctx, bson.M{"assignmentId": assignmentID}).Decode(&assignment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &assignment, err
}

func (r *CountAssignmentRepository) FindByAuditID(ctx context.Context, auditID string) ([]*domain.CountAssignment, error) {
	return r.findAll(ctx, bson.M{"auditId": auditID}, nil)
}

func (r *CountAssignmentRepository) FindByWorkerID(ctx context.Context, workerID string) ([]*domain.CountAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	return r.findAll(ctx, bson.M{"workerId": workerID}, opts)
}

func (r *CountAssignmentRepository) FindByWorkerAndStatus(ctx context.Context, workerID string, statuses []domain.AssignmentStatus) ([]*domain.CountAssignment, error) {
	filter := bson.M{
		"workerId": workerID,
		"status":   bson.M{"$in": statuses},
	}
	opts := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	return r.findAll(ctx, filter, opts)
}

// FindActive lists assigned and in-progress assignments. An empty
// branchID returns active assignments across all branches.
func (r *CountAssignmentRepository) FindActive(ctx context.Context, branchID string) ([]*domain.CountAssignment, error) {
	filter := bson.M{
		"status": bson.M{"$in": []domain.AssignmentStatus{domain.AssignmentStatusAssigned, domain.AssignmentStatusInProgress}},
	}
	if branchID != "" {
		filter["branchId"] = branchID
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "assignedAt", Value: 1}})
	return r.findAll(ctx, filter, opts)
}

func (r *CountAssignmentRepository) FindCompletedInRange(ctx context.Context, branchID string, from, to time.Time) ([]*domain.CountAssignment, error) {
	filter := bson.M{
		"branchId":    branchID,
		"status":      domain.AssignmentStatusCompleted,
		"completedAt": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	return r.findAll(ctx, filter, opts)
}

func (r *CountAssignmentRepository) FindAssignedSince(ctx context.Context, workerID string, since time.Time) ([]*domain.CountAssignment, error) {
	filter := bson.M{
		"workerId":   workerID,
		"status":     domain.AssignmentStatusAssigned,
		"assignedAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	return r.findAll(ctx, filter, opts)
}

func (r *CountAssignmentRepository) Delete(ctx context.Context, assignmentID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"assignmentId": assignmentID})
	return err
}

func (r *CountAssignmentRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.CountAssignment, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []*domain.CountAssignment
	err = cursor.All(ctx, &assignments)
	return assignments, err
}

// GetOutboxRepository returns the outbox repository backing this service
func (r *CountAssignmentRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
