package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for stocktake domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateAssignmentCreatedEvent creates an AssignmentCreated event
func (f *EventFactory) CreateAssignmentCreatedEvent(ctx context.Context, data AssignmentCreatedData) *WMSCloudEvent {
	event := f.CreateEvent(ctx, AssignmentCreated, "assignment/"+data.AssignmentID, data)
	event.BranchID = data.BranchID
	event.AuditID = data.AuditID
	return event
}

// CreateScanRecordedEvent creates a ScanRecorded event
func (f *EventFactory) CreateScanRecordedEvent(ctx context.Context, data ScanRecordedData) *WMSCloudEvent {
	return f.CreateEvent(ctx, ScanRecorded, "assignment/"+data.AssignmentID, data)
}

// CreateDiscrepancyIdentifiedEvent creates a DiscrepancyIdentified event
func (f *EventFactory) CreateDiscrepancyIdentifiedEvent(ctx context.Context, data DiscrepancyIdentifiedData) *WMSCloudEvent {
	return f.CreateEvent(ctx, DiscrepancyIdentified, "discrepancy/"+data.DiscrepancyID, data)
}

// CreateDiscrepancyResolvedEvent creates a DiscrepancyResolved event
func (f *EventFactory) CreateDiscrepancyResolvedEvent(ctx context.Context, data DiscrepancyResolvedData) *WMSCloudEvent {
	return f.CreateEvent(ctx, DiscrepancyResolved, "discrepancy/"+data.DiscrepancyID, data)
}

// CreateAssignmentCompletedEvent creates an AssignmentCompleted event
func (f *EventFactory) CreateAssignmentCompletedEvent(ctx context.Context, data AssignmentCompletedData) *WMSCloudEvent {
	event := f.CreateEvent(ctx, AssignmentCompleted, "assignment/"+data.AssignmentID, data)
	event.AuditID = data.AuditID
	return event
}
