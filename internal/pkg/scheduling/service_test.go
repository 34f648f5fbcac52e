package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CalFox/app/models"
)

// fakeRepository is an in-memory Repository used by the service tests.
type fakeRepository struct {
	webhookEvents  map[string]*models.SchedulingWebhookEvent
	clients        map[string]*models.Client
	appointments   map[string]*models.Appointment
	authorizations []*models.PaymentAuthorization
	notifications  []*models.Notification
	updates        []map[string]interface{}

	nextID    uint
	failAuths bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		webhookEvents: map[string]*models.SchedulingWebhookEvent{},
		clients:       map[string]*models.Client{},
		appointments:  map[string]*models.Appointment{},
	}
}

func (f *fakeRepository) nextIDValue() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.SchedulingWebhookEvent) (bool, *models.SchedulingWebhookEvent, error) {
	key := event.ProviderEventID + "|" + event.EventType
	if existing, ok := f.webhookEvents[key]; ok {
		return false, existing, nil
	}
	event.ID = f.nextIDValue()
	f.webhookEvents[key] = event
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, outcome string, processingError string) error {
	for _, event := range f.webhookEvents {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.Outcome = outcome
			event.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetWebhookEventByID(id uint) (*models.SchedulingWebhookEvent, error) {
	for _, event := range f.webhookEvents {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindOrCreateClientByEmail(email, name string) (*models.Client, error) {
	if client, ok := f.clients[email]; ok {
		return client, nil
	}
	client := &models.Client{ID: f.nextIDValue(), Email: email, Name: name, Status: models.CLIENT_STATUS_ACTIVE}
	f.clients[email] = client
	return client, nil
}

func (f *fakeRepository) GetClientByID(id uint) (*models.Client, error) {
	for _, client := range f.clients {
		if client.ID == id {
			return client, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateAppointment(appointment *models.Appointment) error {
	appointment.ID = f.nextIDValue()
	f.appointments[appointment.ProviderInviteeID] = appointment
	return nil
}

func (f *fakeRepository) GetAppointmentByInviteeID(providerInviteeID string) (*models.Appointment, error) {
	if appointment, ok := f.appointments[providerInviteeID]; ok {
		return appointment, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateAppointment(id uint, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	for _, appointment := range f.appointments {
		if appointment.ID == id {
			if v, ok := updates["status"]; ok {
				appointment.Status = v.(string)
			}
			if v, ok := updates["cancellation_reason"]; ok {
				appointment.CancellationReason = v.(string)
			}
			if v, ok := updates["scheduled_start"]; ok {
				appointment.ScheduledStart = v.(time.Time)
			}
			if v, ok := updates["scheduled_end"]; ok {
				appointment.ScheduledEnd = v.(time.Time)
			}
			if v, ok := updates["no_show_recorded_at"]; ok {
				if v == nil {
					appointment.NoShowRecordedAt = nil
				} else {
					appointment.NoShowRecordedAt = v.(*time.Time)
				}
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreatePaymentAuthorization(auth *models.PaymentAuthorization) error {
	if f.failAuths {
		return errors.New("payment store unavailable")
	}
	auth.ID = f.nextIDValue()
	f.authorizations = append(f.authorizations, auth)
	return nil
}

func (f *fakeRepository) CreateNotification(notification *models.Notification) error {
	notification.ID = f.nextIDValue()
	f.notifications = append(f.notifications, notification)
	return nil
}

// fakeSideEffects records enqueued side effects.
type fakeSideEffects struct {
	notificationIDs []uint
	archiveIDs      []uint
	failEnqueue     bool
}

func (f *fakeSideEffects) EnqueueNotification(notificationID uint) error {
	if f.failEnqueue {
		return errors.New("queue unavailable")
	}
	f.notificationIDs = append(f.notificationIDs, notificationID)
	return nil
}

func (f *fakeSideEffects) EnqueuePayloadArchive(webhookEventID uint) error {
	if f.failEnqueue {
		return errors.New("queue unavailable")
	}
	f.archiveIDs = append(f.archiveIDs, webhookEventID)
	return nil
}

func testConfig() Config {
	return Config{
		WebhookSecrets:        []string{"test-secret"},
		SignatureHeader:       DefaultSignatureHeader,
		ReplayWindow:          300 * time.Second,
		CancellationFeeCutoff: 24 * time.Hour,
		AppointmentFeeCents:   10000,
		CancellationFeeCents:  5000,
	}
}

func newTestService(repo Repository, effects SideEffects, now time.Time) *Service {
	svc := NewService(testConfig(), repo, effects)
	svc.nowFn = func() time.Time { return now }
	return svc
}

func createdEvent(eventID, inviteeID string, start time.Time) *InboundEvent {
	return &InboundEvent{
		Type:      EventInviteeCreated,
		EventID:   eventID,
		InviteeID: inviteeID,
		RawBody:   []byte(`{"event":"invitee.created"}`),
		Invitee:   InviteeDetail{Email: "jamie@example.com", Name: "Jamie Doe"},
		Slot: SlotDetail{
			StartTime:       start,
			EndTime:         start.Add(30 * time.Minute),
			AppointmentType: "Initial Consultation",
			Location:        "Room 2",
		},
	}
}

func TestApplyInviteeCreated(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	effects := &fakeSideEffects{}
	svc := newTestService(repo, effects, now)

	ev := createdEvent("evt-1", "inv-1", now.Add(48*time.Hour))
	require.NoError(t, svc.Apply(context.Background(), ev))

	appointment := repo.appointments["inv-1"]
	require.NotNil(t, appointment)
	assert.Equal(t, models.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, "Initial Consultation", appointment.AppointmentType)
	assert.Equal(t, repo.clients["jamie@example.com"].ID, appointment.ClientID)

	require.Len(t, repo.authorizations, 1)
	assert.Equal(t, models.PaymentKindAppointmentFee, repo.authorizations[0].Kind)
	assert.Equal(t, int64(10000), repo.authorizations[0].AmountCents)
	assert.Equal(t, models.PaymentStatusPending, repo.authorizations[0].Status)

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, models.NotificationKindConfirmation, repo.notifications[0].Kind)
	assert.Equal(t, "jamie@example.com", repo.notifications[0].Recipient)
	assert.Equal(t, []uint{repo.notifications[0].ID}, effects.notificationIDs)
}

func TestApplyInviteeCreated_ExistingClientReused(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeSideEffects{}, now)

	require.NoError(t, svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(48*time.Hour))))
	require.NoError(t, svc.Apply(context.Background(), createdEvent("evt-2", "inv-2", now.Add(72*time.Hour))))

	assert.Len(t, repo.clients, 1)
	assert.Equal(t, repo.appointments["inv-1"].ClientID, repo.appointments["inv-2"].ClientID)
}

func TestApplyInviteeCreated_AuthorizationFailureDoesNotFailTransition(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.failAuths = true
	effects := &fakeSideEffects{}
	svc := newTestService(repo, effects, now)

	err := svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(48*time.Hour)))
	require.NoError(t, err)

	// Appointment and notification still happen even though the fee write broke.
	assert.NotNil(t, repo.appointments["inv-1"])
	assert.Empty(t, repo.authorizations)
	assert.Len(t, repo.notifications, 1)
}

func TestApplyInviteeCanceled_FeeCutoff(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		untilStart time.Duration
		wantFee    bool
	}{
		{"well before cutoff", 72 * time.Hour, false},
		{"exactly at cutoff", 24 * time.Hour, false},
		{"one minute inside cutoff", 24*time.Hour - time.Minute, true},
		{"shortly before start", 30 * time.Minute, true},
		{"after start", -time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			effects := &fakeSideEffects{}
			svc := newTestService(repo, effects, now)

			require.NoError(t, svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(tt.untilStart))))
			repo.authorizations = nil
			repo.notifications = nil

			cancelEv := &InboundEvent{
				Type:               EventInviteeCanceled,
				EventID:            "evt-2",
				InviteeID:          "inv-1",
				CancellationReason: "schedule conflict",
			}
			require.NoError(t, svc.Apply(context.Background(), cancelEv))

			appointment := repo.appointments["inv-1"]
			assert.Equal(t, models.AppointmentStatusCanceled, appointment.Status)
			assert.Equal(t, "schedule conflict", appointment.CancellationReason)

			if tt.wantFee {
				require.Len(t, repo.authorizations, 1)
				assert.Equal(t, models.PaymentKindCancellationFee, repo.authorizations[0].Kind)
				assert.Equal(t, int64(5000), repo.authorizations[0].AmountCents)
			} else {
				assert.Empty(t, repo.authorizations)
			}

			require.Len(t, repo.notifications, 1)
			assert.Equal(t, models.NotificationKindCancellation, repo.notifications[0].Kind)
			if tt.wantFee {
				assert.Contains(t, repo.notifications[0].Body, "a fee of 50.00 EUR")
			} else {
				assert.NotContains(t, repo.notifications[0].Body, "a fee of")
			}
		})
	}
}

func TestApplyInviteeCanceled_NotFound(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newFakeRepository(), &fakeSideEffects{}, now)

	err := svc.Apply(context.Background(), &InboundEvent{
		Type:      EventInviteeCanceled,
		EventID:   "evt-9",
		InviteeID: "inv-missing",
	})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestApplyInviteeRescheduled(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	effects := &fakeSideEffects{}
	svc := newTestService(repo, effects, now)

	require.NoError(t, svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(48*time.Hour))))
	repo.notifications = nil
	repo.authorizations = nil

	newStart := now.Add(96 * time.Hour)
	require.NoError(t, svc.Apply(context.Background(), &InboundEvent{
		Type:      EventInviteeRescheduled,
		EventID:   "evt-2",
		InviteeID: "inv-1",
		Slot:      SlotDetail{StartTime: newStart, EndTime: newStart.Add(30 * time.Minute)},
	}))

	appointment := repo.appointments["inv-1"]
	assert.Equal(t, newStart, appointment.ScheduledStart)
	// Rescheduling never touches the status and never assesses a fee.
	assert.Equal(t, models.AppointmentStatusScheduled, appointment.Status)
	assert.Empty(t, repo.authorizations)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, models.NotificationKindReschedule, repo.notifications[0].Kind)
}

func TestApplyNoShowCreatedAndDeleted(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeSideEffects{}, now)

	require.NoError(t, svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(-time.Hour))))

	require.NoError(t, svc.Apply(context.Background(), &InboundEvent{
		Type: EventNoShowCreated, EventID: "evt-2", InviteeID: "inv-1",
	}))
	appointment := repo.appointments["inv-1"]
	assert.Equal(t, models.AppointmentStatusNoShow, appointment.Status)
	require.NotNil(t, appointment.NoShowRecordedAt)
	assert.Equal(t, now, *appointment.NoShowRecordedAt)

	require.NoError(t, svc.Apply(context.Background(), &InboundEvent{
		Type: EventNoShowDeleted, EventID: "evt-3", InviteeID: "inv-1",
	}))
	assert.Equal(t, models.AppointmentStatusCompleted, appointment.Status)
	assert.Nil(t, appointment.NoShowRecordedAt)
}

func TestApplyUnknownEventType(t *testing.T) {
	svc := newTestService(newFakeRepository(), &fakeSideEffects{}, time.Now())
	err := svc.Apply(context.Background(), &InboundEvent{Type: EventType("payment.created"), InviteeID: "inv-1"})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestRecordInboundEvent_Dedup(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeSideEffects{}, time.Now())
	ctx := context.Background()

	ev := createdEvent("evt-1", "inv-1", time.Now().Add(48*time.Hour))

	created, stored, err := svc.RecordInboundEvent(ctx, ev, true)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, stored)

	// Same (event id, event type) pair again: redelivery, not a new event.
	createdAgain, storedAgain, err := svc.RecordInboundEvent(ctx, ev, true)
	require.NoError(t, err)
	assert.False(t, createdAgain)
	assert.Equal(t, stored.ID, storedAgain.ID)

	// Same event id with a different type is a distinct logical occurrence.
	cancelEv := &InboundEvent{Type: EventInviteeCanceled, EventID: "evt-1", InviteeID: "inv-1", RawBody: []byte(`{}`)}
	createdCancel, _, err := svc.RecordInboundEvent(ctx, cancelEv, true)
	require.NoError(t, err)
	assert.True(t, createdCancel)
}

func TestRecordInboundEvent_EmptyEventIDFallsBackToBodyHash(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeSideEffects{}, time.Now())
	ctx := context.Background()

	ev := &InboundEvent{Type: EventInviteeCanceled, InviteeID: "inv-1", RawBody: []byte(`{"event":"invitee.canceled"}`)}

	created, stored, err := svc.RecordInboundEvent(ctx, ev, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, stored.ProviderEventID, "hash:")

	// The identical body dedups, a different body does not.
	createdAgain, _, err := svc.RecordInboundEvent(ctx, ev, true)
	require.NoError(t, err)
	assert.False(t, createdAgain)

	other := &InboundEvent{Type: EventInviteeCanceled, InviteeID: "inv-1", RawBody: []byte(`{"event":"invitee.canceled","x":1}`)}
	createdOther, _, err := svc.RecordInboundEvent(ctx, other, true)
	require.NoError(t, err)
	assert.True(t, createdOther)
}

func TestMarkProcessed(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeSideEffects{}, time.Now())
	ctx := context.Background()

	_, stored, err := svc.RecordInboundEvent(ctx, createdEvent("evt-1", "inv-1", time.Now()), true)
	require.NoError(t, err)

	require.NoError(t, svc.MarkProcessed(ctx, stored.ID, nil))
	event, err := repo.GetWebhookEventByID(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeSucceeded, event.Outcome)
	assert.NotNil(t, event.ProcessedAt)

	require.NoError(t, svc.MarkProcessed(ctx, stored.ID, errors.New("boom")))
	event, err = repo.GetWebhookEventByID(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeFailed, event.Outcome)
	assert.Equal(t, "boom", event.ProcessingError)

	assert.Error(t, svc.MarkProcessed(ctx, 0, nil))
}

func TestArchivePayload(t *testing.T) {
	effects := &fakeSideEffects{}
	svc := newTestService(newFakeRepository(), effects, time.Now())

	svc.ArchivePayload(42)
	assert.Equal(t, []uint{42}, effects.archiveIDs)

	// Zero IDs and missing effects are silently ignored.
	svc.ArchivePayload(0)
	assert.Len(t, effects.archiveIDs, 1)

	bare := newTestService(newFakeRepository(), nil, time.Now())
	bare.ArchivePayload(7)
}

func TestDispatchNotification_EnqueueFailureIsSwallowed(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	effects := &fakeSideEffects{failEnqueue: true}
	svc := newTestService(repo, effects, now)

	err := svc.Apply(context.Background(), createdEvent("evt-1", "inv-1", now.Add(48*time.Hour)))
	require.NoError(t, err)
	// The notification row exists even though the queue was down.
	assert.Len(t, repo.notifications, 1)
	assert.Empty(t, effects.notificationIDs)
}
