package service

import (
	"context"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the semantics the mongo
// implementations promise: unique indexes surface as ErrDuplicate, missing
// documents as ErrNotFound, and all dates are compared at UTC midnight.

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- trainer profiles ---

type fakeTrainerRepo struct {
	profiles map[primitive.ObjectID]*domain.TrainerProfile
}

func newFakeTrainerRepo() *fakeTrainerRepo {
	return &fakeTrainerRepo{profiles: make(map[primitive.ObjectID]*domain.TrainerProfile)}
}

func (r *fakeTrainerRepo) add(p *domain.TrainerProfile) *domain.TrainerProfile {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.profiles[p.ID] = p
	return p
}

func (r *fakeTrainerRepo) Create(_ context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error) {
	r.add(profile)
	return profile.ID, nil
}

func (r *fakeTrainerRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeTrainerRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTrainerRepo) UpdateDetails(_ context.Context, id primitive.ObjectID, bio string, specializations []string) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Bio = bio
	p.Specializations = specializations
	return nil
}

func (r *fakeTrainerRepo) UpdateSubscription(_ context.Context, id primitive.ObjectID, sub domain.Subscription, maxClients int, isActive bool) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Subscription = sub
	p.MaxClients = maxClients
	p.IsActive = isActive
	return nil
}

func (r *fakeTrainerRepo) AddClientID(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	p, ok := r.profiles[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range p.ClientIDs {
		if id == clientID {
			return nil
		}
	}
	p.ClientIDs = append(p.ClientIDs, clientID)
	return nil
}

func (r *fakeTrainerRepo) RemoveClientID(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	p, ok := r.profiles[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	out := p.ClientIDs[:0]
	for _, id := range p.ClientIDs {
		if id != clientID {
			out = append(out, id)
		}
	}
	p.ClientIDs = out
	return nil
}

func (r *fakeTrainerRepo) SuspendIfExpired(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	p, ok := r.profiles[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if p.Subscription.Status != domain.SubscriptionActive || p.Subscription.ExpiresAt.After(now) {
		return false, nil
	}
	p.Subscription.Status = domain.SubscriptionSuspended
	p.IsActive = false
	return true, nil
}

func (r *fakeTrainerRepo) SuspendAllExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id := range r.profiles {
		flipped, _ := r.SuspendIfExpired(ctx, id, now)
		if flipped {
			n++
		}
	}
	return n, nil
}

func (r *fakeTrainerRepo) ListAll(_ context.Context) ([]domain.TrainerProfile, error) {
	var out []domain.TrainerProfile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, nil
}

// --- client profiles ---

type fakeClientRepo struct {
	profiles map[primitive.ObjectID]*domain.ClientProfile
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{profiles: make(map[primitive.ObjectID]*domain.ClientProfile)}
}

func (r *fakeClientRepo) add(p *domain.ClientProfile) *domain.ClientProfile {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.profiles[p.ID] = p
	return p
}

func (r *fakeClientRepo) Create(_ context.Context, profile *domain.ClientProfile) (primitive.ObjectID, error) {
	r.add(profile)
	return profile.ID, nil
}

func (r *fakeClientRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeClientRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.ClientProfile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeClientRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.ClientProfile, error) {
	var out []domain.ClientProfile
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeClientRepo) UpdateAttributes(_ context.Context, id primitive.ObjectID, goal string, level domain.FitnessLevel, heightCm, weightKg float64) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.FitnessGoal = goal
	p.FitnessLevel = level
	p.HeightCm = heightCm
	p.WeightKg = weightKg
	return nil
}

func (r *fakeClientRepo) SetTrainer(_ context.Context, id, trainerID primitive.ObjectID) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.TrainerID = &trainerID
	return nil
}

func (r *fakeClientRepo) ClearTrainer(_ context.Context, id primitive.ObjectID) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.TrainerID = nil
	p.CurrentPlanID = nil
	p.PlanStartDate = nil
	p.PlanEndDate = nil
	return nil
}

func (r *fakeClientRepo) SetActivePlan(_ context.Context, id, planID primitive.ObjectID, start, end time.Time) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CurrentPlanID = &planID
	p.PlanStartDate = &start
	p.PlanEndDate = &end
	return nil
}

func (r *fakeClientRepo) RecordCompletion(_ context.Context, id primitive.ObjectID) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CurrentStreak++
	p.TotalWorkoutsCompleted++
	p.ConsecutiveMissedWorkouts = 0
	return nil
}

func (r *fakeClientRepo) ApplyPenaltyOutcome(_ context.Context, id primitive.ObjectID, penalty bool, missedDelta int, resetStreak bool) error {
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if penalty {
		p.ConsecutiveMissedWorkouts += missedDelta
		p.IsPenaltyMode = true
	} else {
		p.ConsecutiveMissedWorkouts = 0
		p.IsPenaltyMode = false
	}
	if resetStreak {
		p.CurrentStreak = 0
	}
	return nil
}

func (r *fakeClientRepo) ListAll(_ context.Context) ([]domain.ClientProfile, error) {
	var out []domain.ClientProfile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, nil
}

// --- weekly plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.WeeklyPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.WeeklyPlan)}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WeeklyPlan) (primitive.ObjectID, error) {
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	cp := *plan
	r.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WeeklyPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.WeeklyPlan, error) {
	var out []domain.WeeklyPlan
	for _, p := range r.plans {
		if p.TrainerID == trainerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.WeeklyPlan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id, trainerID primitive.ObjectID) error {
	p, ok := r.plans[id]
	if !ok || p.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) AddAssignedClients(_ context.Context, planID primitive.ObjectID, clientIDs []primitive.ObjectID) error {
	p, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, cid := range clientIDs {
		seen := false
		for _, existing := range p.AssignedClientIDs {
			if existing == cid {
				seen = true
				break
			}
		}
		if !seen {
			p.AssignedClientIDs = append(p.AssignedClientIDs, cid)
		}
	}
	return nil
}

// --- workout logs ---

type fakeLogRepo struct {
	logs map[primitive.ObjectID]*domain.WorkoutLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: make(map[primitive.ObjectID]*domain.WorkoutLog)}
}

func (r *fakeLogRepo) InsertMany(_ context.Context, logs []domain.WorkoutLog) (int, error) {
	inserted := 0
	dup := false
	for i := range logs {
		l := logs[i]
		l.WorkoutDate = domain.StartOfDayUTC(l.WorkoutDate)
		if r.findByClientAndDate(l.ClientID, l.WorkoutDate) != nil {
			dup = true
			continue
		}
		if l.ID.IsZero() {
			l.ID = primitive.NewObjectID()
		}
		r.logs[l.ID] = &l
		inserted++
	}
	if dup {
		return inserted, repository.ErrDuplicate
	}
	return inserted, nil
}

func (r *fakeLogRepo) findByClientAndDate(clientID primitive.ObjectID, day time.Time) *domain.WorkoutLog {
	day = domain.StartOfDayUTC(day)
	for _, l := range r.logs {
		if l.ClientID == clientID && l.WorkoutDate.Equal(day) {
			return l
		}
	}
	return nil
}

func (r *fakeLogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	l, ok := r.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLogRepo) GetByClientAndRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error) {
	var out []domain.WorkoutLog
	for _, l := range r.logs {
		if l.ClientID == clientID && !l.WorkoutDate.Before(from) && l.WorkoutDate.Before(to) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) GetByClientAndDate(_ context.Context, clientID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error) {
	l := r.findByClientAndDate(clientID, day)
	if l == nil {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLogRepo) Update(_ context.Context, log *domain.WorkoutLog) error {
	if _, ok := r.logs[log.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *log
	r.logs[log.ID] = &cp
	return nil
}

func (r *fakeLogRepo) CountScheduled(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	logs, _ := r.GetByClientAndRange(ctx, clientID, from, to)
	return int64(len(logs)), nil
}

func (r *fakeLogRepo) CountMissed(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	logs, _ := r.GetByClientAndRange(ctx, clientID, from, to)
	var n int64
	for _, l := range logs {
		if l.IsMissed && !l.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeLogRepo) CountCompleted(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error) {
	logs, _ := r.GetByClientAndRange(ctx, clientID, from, to)
	var n int64
	for _, l := range logs {
		if l.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeLogRepo) MarkOverdueMissed(_ context.Context, today time.Time) (int64, error) {
	cutoff := domain.StartOfDayUTC(today)
	var n int64
	for _, l := range r.logs {
		if !l.IsCompleted && !l.IsMissed && l.WorkoutDate.Before(cutoff) {
			l.IsMissed = true
			n++
		}
	}
	return n, nil
}

func (r *fakeLogRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, l := range r.logs {
		if l.WorkoutDate.Before(cutoff) {
			delete(r.logs, id)
			n++
		}
	}
	return n, nil
}

// --- check-ins ---

type fakeCheckInRepo struct {
	checkIns map[primitive.ObjectID]*domain.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{checkIns: make(map[primitive.ObjectID]*domain.CheckIn)}
}

func (r *fakeCheckInRepo) Create(_ context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	day := domain.StartOfDayUTC(checkIn.CheckInDate)
	for _, ci := range r.checkIns {
		if ci.ClientID == checkIn.ClientID && ci.CheckInDate.Equal(day) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	if checkIn.ID.IsZero() {
		checkIn.ID = primitive.NewObjectID()
	}
	checkIn.CheckInDate = day
	cp := *checkIn
	r.checkIns[checkIn.ID] = &cp
	return checkIn.ID, nil
}

func (r *fakeCheckInRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	ci, ok := r.checkIns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ci
	return &cp, nil
}

func (r *fakeCheckInRepo) GetByClientAndDate(_ context.Context, clientID primitive.ObjectID, day time.Time) (*domain.CheckIn, error) {
	day = domain.StartOfDayUTC(day)
	for _, ci := range r.checkIns {
		if ci.ClientID == clientID && ci.CheckInDate.Equal(day) {
			cp := *ci
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCheckInRepo) ListByClient(_ context.Context, clientID primitive.ObjectID, _ int64) ([]domain.CheckIn, error) {
	var out []domain.CheckIn
	for _, ci := range r.checkIns {
		if ci.ClientID == clientID {
			out = append(out, *ci)
		}
	}
	return out, nil
}

func (r *fakeCheckInRepo) ListByTrainer(_ context.Context, trainerID primitive.ObjectID, status domain.CheckInStatus, _ int64) ([]domain.CheckIn, error) {
	var out []domain.CheckIn
	for _, ci := range r.checkIns {
		if ci.TrainerID == trainerID && (status == "" || ci.Status == status) {
			out = append(out, *ci)
		}
	}
	return out, nil
}

func (r *fakeCheckInRepo) SetVerification(_ context.Context, id primitive.ObjectID, status domain.CheckInStatus, comment string, at time.Time) error {
	ci, ok := r.checkIns[id]
	if !ok {
		return repository.ErrNotFound
	}
	ci.Status = status
	ci.TrainerComment = comment
	ci.VerifiedAt = &at
	return nil
}

// --- penalty records ---

type penaltyKey struct {
	clientID  primitive.ObjectID
	weekStart time.Time
}

type fakePenaltyRepo struct {
	records map[penaltyKey]*domain.PenaltyRecord
}

func newFakePenaltyRepo() *fakePenaltyRepo {
	return &fakePenaltyRepo{records: make(map[penaltyKey]*domain.PenaltyRecord)}
}

func (r *fakePenaltyRepo) Upsert(_ context.Context, record *domain.PenaltyRecord) (bool, error) {
	key := penaltyKey{clientID: record.ClientID, weekStart: domain.StartOfDayUTC(record.WeekStartDate)}
	existing, ok := r.records[key]
	if ok {
		record.ID = existing.ID
	} else if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	cp := *record
	r.records[key] = &cp
	return !ok, nil
}

func (r *fakePenaltyRepo) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.PenaltyRecord, error) {
	var out []domain.PenaltyRecord
	for _, rec := range r.records {
		if rec.ClientID == clientID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// --- compile-time interface checks ---

var (
	_ repository.UserRepository           = (*fakeUserRepo)(nil)
	_ repository.TrainerProfileRepository = (*fakeTrainerRepo)(nil)
	_ repository.ClientProfileRepository  = (*fakeClientRepo)(nil)
	_ repository.WeeklyPlanRepository     = (*fakePlanRepo)(nil)
	_ repository.WorkoutLogRepository     = (*fakeLogRepo)(nil)
	_ repository.CheckInRepository        = (*fakeCheckInRepo)(nil)
	_ repository.PenaltyRecordRepository  = (*fakePenaltyRepo)(nil)
)
