package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingRepo "schedly/database/repository/booking"
	serviceRepo "schedly/database/repository/service"
	specialistRepo "schedly/database/repository/specialist"
	timeslotRepo "schedly/database/repository/timeslot"
	"schedly/models"
	"schedly/services/events"
	"schedly/utils"
)

// --- in-memory fakes -------------------------------------------------------

type fakeSpecialistRepo struct {
	specialists map[string]*models.Specialist
}

func (r *fakeSpecialistRepo) Insert(ctx context.Context, sp *models.Specialist) error {
	r.specialists[sp.ID] = sp
	return nil
}

func (r *fakeSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	sp, ok := r.specialists[id]
	if !ok {
		return nil, specialistRepo.ErrNotFound
	}
	cp := *sp
	return &cp, nil
}

func (r *fakeSpecialistRepo) Update(ctx context.Context, sp *models.Specialist) error {
	if _, ok := r.specialists[sp.ID]; !ok {
		return specialistRepo.ErrNotFound
	}
	r.specialists[sp.ID] = sp
	return nil
}

func (r *fakeSpecialistRepo) UpdateTemplate(ctx context.Context, id string, tpl models.WorkingHoursTemplate) error {
	sp, ok := r.specialists[id]
	if !ok {
		return specialistRepo.ErrNotFound
	}
	sp.Template = tpl
	return nil
}

func (r *fakeSpecialistRepo) SetActive(ctx context.Context, id string, active bool) error {
	sp, ok := r.specialists[id]
	if !ok {
		return specialistRepo.ErrNotFound
	}
	sp.IsActive = active
	return nil
}

func (r *fakeSpecialistRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Specialist, error) {
	var out []models.Specialist
	for _, sp := range r.specialists {
		if sp.TenantID == tenantID {
			out = append(out, *sp)
		}
	}
	return out, nil
}

type fakeServiceRepo struct {
	services map[string]*models.Service
}

func (r *fakeServiceRepo) Insert(ctx context.Context, svc *models.Service) error {
	r.services[svc.ID] = svc
	return nil
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, serviceRepo.ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (r *fakeServiceRepo) Update(ctx context.Context, svc *models.Service) error {
	r.services[svc.ID] = svc
	return nil
}

func (r *fakeServiceRepo) LinkSpecialist(ctx context.Context, serviceID, specialistID string) error {
	svc, ok := r.services[serviceID]
	if !ok {
		return serviceRepo.ErrNotFound
	}
	svc.SpecialistIDs = append(svc.SpecialistIDs, specialistID)
	return nil
}

func (r *fakeServiceRepo) UnlinkSpecialist(ctx context.Context, serviceID, specialistID string) error {
	svc, ok := r.services[serviceID]
	if !ok {
		return serviceRepo.ErrNotFound
	}
	keep := svc.SpecialistIDs[:0]
	for _, id := range svc.SpecialistIDs {
		if id != specialistID {
			keep = append(keep, id)
		}
	}
	svc.SpecialistIDs = keep
	return nil
}

func (r *fakeServiceRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Service, error) {
	var out []models.Service
	for _, svc := range r.services {
		if svc.TenantID == tenantID {
			out = append(out, *svc)
		}
	}
	return out, nil
}

type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.TimeSlot
}

func (r *fakeSlotRepo) GetByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, timeslotRepo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) GetBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TimeSlot
	for _, s := range r.slots {
		if s.SpecialistID == specialistID && s.StartTime.Before(to) && s.EndTime.After(from) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) Materialize(ctx context.Context, slot *models.TimeSlot) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.SpecialistID == slot.SpecialistID &&
			s.StartTime.Equal(slot.StartTime) && s.EndTime.Equal(slot.EndTime) {
			cp := *s
			return &cp, nil
		}
	}
	cp := *slot
	r.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeSlotRepo) MarkBooked(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return timeslotRepo.ErrNotFound
	}
	if s.IsBooked || !s.IsAvailable {
		return timeslotRepo.ErrSlotTaken
	}
	s.IsBooked = true
	return nil
}

func (r *fakeSlotRepo) Release(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return timeslotRepo.ErrNotFound
	}
	s.IsBooked = false
	return nil
}

func (r *fakeSlotRepo) SetAvailable(ctx context.Context, id string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return timeslotRepo.ErrNotFound
	}
	s.IsAvailable = available
	return nil
}

func (r *fakeSlotRepo) DeleteBySpecialist(ctx context.Context, specialistID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.slots {
		if s.SpecialistID == specialistID && !s.IsBooked {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func (r *fakeBookingRepo) Insert(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByConfirmationCode(ctx context.Context, code string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ConfirmationCode != nil && *b.ConfirmationCode == code {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return bookingRepo.ErrNotFound
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) ListBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.SpecialistID == specialistID && !b.SlotStart.Before(from) && b.SlotStart.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) SetReminderScheduledFor(ctx context.Context, bookingID string, idx int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.Reminders[idx].ScheduledFor = &at
	return nil
}

func (r *fakeBookingRepo) MarkReminderSent(ctx context.Context, bookingID string, idx int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return false, bookingRepo.ErrNotFound
	}
	if b.Reminders[idx].Sent {
		return false, nil
	}
	b.Reminders[idx].Sent = true
	b.Reminders[idx].SentAt = &at
	return true, nil
}

func (r *fakeBookingRepo) MarkAllUnsentRemindersSent(ctx context.Context, bookingID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	for i := range b.Reminders {
		if !b.Reminders[i].Sent {
			b.Reminders[i].Sent = true
			b.Reminders[i].SentAt = &at
		}
	}
	return nil
}

func (r *fakeBookingRepo) ListWithUnsentReminders(ctx context.Context, statuses []models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		statusOK := false
		for _, st := range statuses {
			if b.Status == st {
				statusOK = true
			}
		}
		if !statusOK || b.SlotStart.Before(from) || !b.SlotStart.Before(to) {
			continue
		}
		for _, rem := range b.Reminders {
			if !rem.Sent {
				out = append(out, *b)
				break
			}
		}
	}
	return out, nil
}

type fakeReminderScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (s *fakeReminderScheduler) ScheduleForBooking(ctx context.Context, b *models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, b.ID)
}

func (s *fakeReminderScheduler) CancelForBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, b.ID)
	return nil
}

func (s *fakeReminderScheduler) DeliverReminder(ctx context.Context, bookingID string, idx int) error {
	return nil
}

type invalidatedDay struct {
	specialistID string
	day          time.Time
}

type fakeSlotCache struct {
	mu          sync.Mutex
	invalidated []invalidatedDay
	specialists []string
}

func (c *fakeSlotCache) GetDay(ctx context.Context, specialistID string, day time.Time) ([]models.TimeSlot, bool) {
	return nil, false
}

func (c *fakeSlotCache) SetDay(ctx context.Context, specialistID string, day time.Time, slots []models.TimeSlot) {
}

func (c *fakeSlotCache) InvalidateDay(ctx context.Context, specialistID string, day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, invalidatedDay{specialistID: specialistID, day: day})
}

func (c *fakeSlotCache) InvalidateSpecialist(ctx context.Context, specialistID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specialists = append(c.specialists, specialistID)
}

// --- fixture ---------------------------------------------------------------

type engineFixture struct {
	engine      *DefaultEngine
	specialists *fakeSpecialistRepo
	services    *fakeServiceRepo
	slots       *fakeSlotRepo
	bookings    *fakeBookingRepo
	reminders   *fakeReminderScheduler
	cache       *fakeSlotCache
	clock       utils.FixedClock
}

var fixtureNow = time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	var tpl models.WorkingHoursTemplate
	for i := 1; i <= 5; i++ {
		tpl[i] = models.DaySchedule{IsWorking: true, StartTime: "09:00", EndTime: "17:00"}
	}

	specialists := &fakeSpecialistRepo{specialists: map[string]*models.Specialist{
		"sp-1": {
			ID: "sp-1", TenantID: "t-1", Name: "Dana",
			Template:                   tpl,
			DefaultSlotDurationMinutes: 30,
			IsActive:                   true,
		},
	}}
	services := &fakeServiceRepo{services: map[string]*models.Service{
		"svc-30": {ID: "svc-30", TenantID: "t-1", Name: "Consult", DurationMinutes: 30,
			SpecialistIDs: []string{"sp-1"}, IsActive: true},
		"svc-90": {ID: "svc-90", TenantID: "t-1", Name: "Deep Dive", DurationMinutes: 90,
			SpecialistIDs: []string{"sp-1"}, IsActive: true},
		"svc-other": {ID: "svc-other", TenantID: "t-1", Name: "Elsewhere", DurationMinutes: 30,
			SpecialistIDs: []string{"sp-2"}, IsActive: true},
	}}
	slots := &fakeSlotRepo{slots: map[string]*models.TimeSlot{}}
	bookings := &fakeBookingRepo{bookings: map[string]*models.Booking{}}
	reminders := &fakeReminderScheduler{}
	cache := &fakeSlotCache{}
	clock := utils.FixedClock{Time: fixtureNow}

	engine := &DefaultEngine{
		Specialists: specialists,
		Services:    services,
		Slots:       slots,
		Bookings:    bookings,
		Reminders:   reminders,
		Bus:         events.NewBus(zap.NewNop()),
		SlotCache:   cache,
		Clock:       clock,
		Policy: Policy{
			RequireConfirmation: true,
			CancellationCutoff:  2 * time.Hour,
			CodeTTL:             24 * time.Hour,
		},
		Logger: zap.NewNop(),
	}

	return &engineFixture{
		engine:      engine,
		specialists: specialists,
		services:    services,
		slots:       slots,
		bookings:    bookings,
		reminders:   reminders,
		cache:       cache,
		clock:       clock,
	}
}

func (f *engineFixture) addSlot(id string, start, end time.Time) {
	f.slots.slots[id] = &models.TimeSlot{
		ID: id, SpecialistID: "sp-1",
		StartTime: start, EndTime: end,
		IsAvailable: true,
	}
}

// --- CreateBooking ---------------------------------------------------------

func TestCreateBooking_PhysicalSlot(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada", ClientEmail: "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, b.Status)
	require.NotNil(t, b.ConfirmationCode)
	assert.Len(t, *b.ConfirmationCode, 6)
	require.NotNil(t, b.ConfirmationCodeExpiresAt)
	assert.Equal(t, fixtureNow.Add(24*time.Hour), *b.ConfirmationCodeExpiresAt)
	assert.Equal(t, "slot-1", b.TimeSlotID)
	assert.Empty(t, b.MergedSlotIDs)

	stored, err := f.slots.GetByID(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.True(t, stored.IsBooked)

	assert.Equal(t, []string{b.ID}, f.reminders.scheduled)
}

func TestCreateBooking_SlotAlreadyBooked(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))
	f.slots.slots["slot-1"].IsBooked = true

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))
}

func TestCreateBooking_PastSlotRejected(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(-2 * time.Hour)
	f.addSlot("slot-old", start, start.Add(30*time.Minute))

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-old",
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestCreateBooking_ServiceNotOffered(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-other", SlotID: "slot-1",
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestCreateBooking_VirtualSlotMaterialized(t *testing.T) {
	f := newEngineFixture(t)
	// 2025-06-09 is a Monday; 10:00-10:30 is a template candidate.
	start := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30",
		SlotID:     models.VirtualSlotID(start, end),
		ClientName: "Ada",
	})
	require.NoError(t, err)

	stored, err := f.slots.GetByID(context.Background(), b.TimeSlotID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(start))
	assert.True(t, stored.EndTime.Equal(end))
	assert.True(t, stored.IsBooked)
}

func TestCreateBooking_VirtualSlotOffTemplate(t *testing.T) {
	f := newEngineFixture(t)
	// 10:15 is not a candidate start for a 30-minute grid anchored at 09:00.
	start := time.Date(2025, 6, 9, 10, 15, 0, 0, time.UTC)

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30",
		SlotID:     models.VirtualSlotID(start, start.Add(30*time.Minute)),
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))
}

func TestCreateBooking_MergedWindow(t *testing.T) {
	f := newEngineFixture(t)
	base := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f.addSlot("m1", base, base.Add(30*time.Minute))
	f.addSlot("m2", base.Add(30*time.Minute), base.Add(60*time.Minute))
	f.addSlot("m3", base.Add(60*time.Minute), base.Add(90*time.Minute))

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-90",
		SlotID:     models.MergedSlotID([]string{"m1", "m2", "m3"}),
		ClientName: "Ada",
	})
	require.NoError(t, err)

	assert.Equal(t, "m1", b.TimeSlotID)
	assert.Equal(t, []string{"m1", "m2", "m3"}, b.MergedSlotIDs)
	assert.True(t, b.SlotStart.Equal(base))
	assert.True(t, b.SlotEnd.Equal(base.Add(90*time.Minute)))

	for _, id := range []string{"m1", "m2", "m3"} {
		s, err := f.slots.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, s.IsBooked, "constituent %s must be booked", id)
	}
}

func TestCreateBooking_MergedConflictRollsBack(t *testing.T) {
	f := newEngineFixture(t)
	base := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f.addSlot("m1", base, base.Add(30*time.Minute))
	f.addSlot("m2", base.Add(30*time.Minute), base.Add(60*time.Minute))
	f.addSlot("m3", base.Add(60*time.Minute), base.Add(90*time.Minute))
	f.slots.slots["m3"].IsBooked = true

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-90",
		SlotID:     models.MergedSlotID([]string{"m1", "m2", "m3"}),
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))

	// The constituents marked before the conflict must be released.
	for _, id := range []string{"m1", "m2"} {
		s, getErr := f.slots.GetByID(context.Background(), id)
		require.NoError(t, getErr)
		assert.False(t, s.IsBooked, "constituent %s must be released", id)
	}
}

func TestCreateBooking_MergedNonConsecutiveRejected(t *testing.T) {
	f := newEngineFixture(t)
	base := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	f.addSlot("m1", base, base.Add(30*time.Minute))
	f.addSlot("m2", base.Add(60*time.Minute), base.Add(90*time.Minute))

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30",
		SlotID:     models.MergedSlotID([]string{"m1", "m2"}),
		ClientName: "Ada",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestCreateBooking_AutoConfirmPolicy(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.Policy.RequireConfirmation = false
	f.engine.Policy.AutoConfirm = true

	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Nil(t, b.ConfirmationCode)
	require.NotNil(t, b.ConfirmedAt)
}

func TestCreateBooking_InvalidReminders(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada",
		Reminders:  []models.Reminder{{TimeValue: 0, TimeUnit: models.UnitHours}},
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))

	_, err = f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada",
		Reminders:  []models.Reminder{{TimeValue: 1, TimeUnit: "weeks"}},
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestCreateBooking_ConcurrentSameWindow(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(4 * time.Hour)
	end := start.Add(30 * time.Minute)
	slotID := models.VirtualSlotID(start, end)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.engine.CreateBooking(context.Background(), CreateRequest{
				SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: slotID,
				ClientName: "Ada",
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case models.CodeOf(err) == models.CodeConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one create may win the window")
	assert.Equal(t, 1, conflicts)

	// The window materializes a single persisted row no matter who wins.
	rows, err := f.slots.GetBySpecialistAndRange(context.Background(), "sp-1", start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsBooked)
}

func TestCreateBooking_InvalidatesDayCache(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(3 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	_, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada",
	})
	require.NoError(t, err)

	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	require.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, invalidatedDay{specialistID: "sp-1", day: day}, f.cache.invalidated[0])
}

// --- lifecycle -------------------------------------------------------------

func createPendingBooking(t *testing.T, f *engineFixture) *models.Booking {
	t.Helper()
	start := fixtureNow.Add(5 * time.Hour)
	f.addSlot("slot-1", start, start.Add(30*time.Minute))

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-1",
		ClientName: "Ada", ClientEmail: "ada@example.com",
	})
	require.NoError(t, err)
	return b
}

func TestConfirmBooking(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	confirmed, err := f.engine.ConfirmBooking(context.Background(), *b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.ConfirmationCode)
	assert.Nil(t, confirmed.ConfirmationCodeExpiresAt)
	require.NotNil(t, confirmed.ConfirmedAt)

	// The code is single-use.
	_, err = f.engine.ConfirmBooking(context.Background(), *b.ConfirmationCode)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))
}

func TestConfirmBooking_UnknownCode(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.ConfirmBooking(context.Background(), "NOPE42")
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))
}

func TestConfirmBooking_ExpiredCode(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	expired := fixtureNow.Add(-time.Hour)
	stored, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	stored.ConfirmationCodeExpiresAt = &expired
	require.NoError(t, f.bookings.Update(context.Background(), stored))

	_, err = f.engine.ConfirmBooking(context.Background(), *b.ConfirmationCode)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))
}

func TestCancelBooking_ReleasesSlotsAndReminders(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	cancelled, err := f.engine.CancelBooking(context.Background(), b.ID, "changed plans", ActorClient)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed plans", cancelled.CancellationReason)

	slot, err := f.slots.GetByID(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.False(t, slot.IsBooked)

	assert.Equal(t, []string{b.ID}, f.reminders.cancelled)

	// Create and cancel each drop the cached day.
	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	require.Len(t, f.cache.invalidated, 2)
	assert.Equal(t, invalidatedDay{specialistID: "sp-1", day: day}, f.cache.invalidated[1])
}

func TestCancelBooking_ClientCutoffEnforced(t *testing.T) {
	f := newEngineFixture(t)
	start := fixtureNow.Add(time.Hour) // inside the 2h cutoff
	f.addSlot("slot-near", start, start.Add(30*time.Minute))

	b, err := f.engine.CreateBooking(context.Background(), CreateRequest{
		SpecialistID: "sp-1", ServiceID: "svc-30", SlotID: "slot-near",
		ClientName: "Ada",
	})
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(context.Background(), b.ID, "", ActorClient)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))

	// The provider may still cancel inside the cutoff.
	cancelled, err := f.engine.CancelBooking(context.Background(), b.ID, "emergency", ActorProvider)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestCancelBooking_TerminalStatesRejected(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	_, err := f.engine.CancelBooking(context.Background(), b.ID, "", ActorProvider)
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(context.Background(), b.ID, "", ActorProvider)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))
}

func TestCompleteBooking(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	// Pending bookings cannot complete.
	_, err := f.engine.CompleteBooking(context.Background(), b.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))

	_, err = f.engine.ConfirmBooking(context.Background(), *b.ConfirmationCode)
	require.NoError(t, err)

	done, err := f.engine.CompleteBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	// Completed is terminal.
	_, err = f.engine.MarkNoShow(context.Background(), b.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidState, models.CodeOf(err))
}

func TestMarkNoShow(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	_, err := f.engine.ConfirmBooking(context.Background(), *b.ConfirmationCode)
	require.NoError(t, err)

	ns, err := f.engine.MarkNoShow(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, ns.Status)
}

func TestMarkNoShow_UnknownBooking(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.MarkNoShow(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
}

func TestListForDay(t *testing.T) {
	f := newEngineFixture(t)
	b := createPendingBooking(t, f)

	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	out, err := f.engine.ListForDay(context.Background(), "sp-1", day)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, b.ID, out[0].ID)

	out, err = f.engine.ListForDay(context.Background(), "sp-1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, out)
}
