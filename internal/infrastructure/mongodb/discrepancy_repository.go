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

type DiscrepancyRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewDiscrepancyRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *DiscrepancyRepository {
	repo := &DiscrepancyRepository{
		collection:   db.Collection("count_discrepancies"),
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *DiscrepancyRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "discrepancyId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "assignmentId", Value: 1}}},
		{Keys: bson.D{{Key: "lineId", Value: 1}, {Key: "resolution", Value: 1}}},
		{Keys: bson.D{{Key: "branchId", Value: 1}, {Key: "resolution", Value: 1}}},
		{Keys: bson.D{{Key: "branchId", Value: 1}, {Key: "identifiedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a discrepancy together with its domain events in one
// transaction. Events go to the outbox and reach Kafka through the
// outbox publisher.
func (r *DiscrepancyRepository) Save(ctx context.Context, discrepancy *domain.Discrepancy) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"discrepancyId": discrepancy.DiscrepancyID}

		if _, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": discrepancy}, opts); err != nil {
			return nil, fmt.Errorf("failed to save discrepancy: %w", err)
		}

		domainEvents := discrepancy.GetDomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

			for _, event := range domainEvents {
				cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), "discrepancy/"+discrepancy.DiscrepancyID, event)
				cloudEvent.BranchID = discrepancy.BranchID

				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
					discrepancy.DiscrepancyID,
					"Discrepancy",
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

		discrepancy.ClearDomainEvents()
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *DiscrepancyRepository) FindByID(ctx context.Context, discrepancyID string) (*domain.Discrepancy, error) {
	var discrepancy domain.Discrepancy
	err := r.collection.FindOne(ctx, bson.M{"discrepancyId": discrepancyID}).Decode(&discrepancy)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &discrepancy, err
}

func (r *DiscrepancyRepository) FindByAssignmentID(ctx context.Context, assignmentID string) ([]*domain.Discrepancy, error) {
	opts := options.Find().SetSort(bson.D{{Key: "identifiedAt", Value: 1}})
	return r.findAll(ctx, bson.M{"assignmentId": assignmentID}, opts)
}

func (r *DiscrepancyRepository) FindByLineID(ctx context.Context, lineID string) ([]*domain.Discrepancy, error) {
	return r.findAll(ctx, bson.M{"lineId": lineID}, nil)
}

// FindPending lists unresolved discrepancies. An empty branchID returns
// pending discrepancies across all branches.
func (r *DiscrepancyRepository) FindPending(ctx context.Context, branchID string) ([]*domain.Discrepancy, error) {
	filter := bson.M{"resolution": domain.ResolutionStatusPending}
	if branchID != "" {
		filter["branchId"] = branchID
	}
	opts := options.Find().SetSort(bson.D{{Key: "identifiedAt", Value: 1}})
	return r.findAll(ctx, filter, opts)
}

func (r *DiscrepancyRepository) FindByType(ctx context.Context, assignmentID string, dtype domain.DiscrepancyType) ([]*domain.Discrepancy, error) {
	filter := bson.M{"assignmentId": assignmentID, "type": dtype}
	return r.findAll(ctx, filter, nil)
}

func (r *DiscrepancyRepository) FindByBranchInRange(ctx context.Context, branchID string, from, to time.Time) ([]*domain.Discrepancy, error) {
	filter := bson.M{
		"branchId":     branchID,
		"identifiedAt": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "identifiedAt", Value: -1}})
	return r.findAll(ctx, filter, opts)
}

func (r *DiscrepancyRepository) Delete(ctx context.Context, discrepancyID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"discrepancyId": discrepancyID})
	return err
}

func (r *DiscrepancyRepository) DeleteByLineID(ctx context.Context, lineID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"lineId": lineID})
	return err
}

// DeletePendingByLineID removes only unresolved discrepancies of a line,
// resolved ones stay as audit trail
func (r *DiscrepancyRepository) DeletePendingByLineID(ctx context.Context, lineID string) error {
	filter := bson.M{"lineId": lineID, "resolution": domain.ResolutionStatusPending}
	_, err := r.collection.DeleteMany(ctx, filter)
	return err
}

func (r *DiscrepancyRepository) DeleteByAssignmentID(ctx context.Context, assignmentID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"assignmentId": assignmentID})
	return err
}

func (r *DiscrepancyRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Discrepancy, error) {
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

	var discrepancies []*domain.Discrepancy
	err = cursor.All(ctx, &discrepancies)
	return discrepancies, err
}
