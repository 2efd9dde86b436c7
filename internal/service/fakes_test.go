package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"telcodash/internal/analytics"
	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// In-memory repositories. Each exposes Func hooks so a test can inject failures.

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[uuid.UUID]*models.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user already exists: %w", apperror.ErrConflict)
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

type fakeLines struct {
	mu         sync.Mutex
	lines      map[uuid.UUID]*models.TelecomLine
	UpdateFunc func(line *models.TelecomLine) error
}

func newFakeLines() *fakeLines { return &fakeLines{lines: map[uuid.UUID]*models.TelecomLine{}} }

func (f *fakeLines) Create(_ context.Context, l *models.TelecomLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.lines {
		if existing.PhoneNumber == l.PhoneNumber {
			return fmt.Errorf("line already exists: %w", apperror.ErrConflict)
		}
	}
	cp := *l
	f.lines[l.ID] = &cp
	return nil
}

func (f *fakeLines) GetByID(_ context.Context, id uuid.UUID) (*models.TelecomLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[id]
	if !ok {
		return nil, fmt.Errorf("line: %w", apperror.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLines) matching(userID uuid.UUID, filter repository.LineFilter) []models.TelecomLine {
	var out []models.TelecomLine
	for _, l := range f.lines {
		if l.UserID != userID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Department != "" && l.Department != filter.Department {
			continue
		}
		out = append(out, *l)
	}
	// stable order for assertions
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].PhoneNumber < out[j-1].PhoneNumber; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (f *fakeLines) ListByUser(_ context.Context, userID uuid.UUID, filter repository.LineFilter) ([]models.TelecomLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.matching(userID, filter)
	if filter.Offset >= uint64(len(out)) {
		return []models.TelecomLine{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < uint64(len(out)) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeLines) CountByUser(_ context.Context, userID uuid.UUID, filter repository.LineFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(userID, filter)), nil
}

func (f *fakeLines) CountByStatus(_ context.Context, userID uuid.UUID) (map[models.LineStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[models.LineStatus]int{}
	for _, l := range f.matching(userID, repository.LineFilter{}) {
		out[l.Status]++
	}
	return out, nil
}

func (f *fakeLines) Update(_ context.Context, l *models.TelecomLine) error {
	if f.UpdateFunc != nil {
		if err := f.UpdateFunc(l); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lines[l.ID]; !ok {
		return fmt.Errorf("line: %w", apperror.ErrNotFound)
	}
	cp := *l
	f.lines[l.ID] = &cp
	return nil
}

func (f *fakeLines) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lines[id]; !ok {
		return fmt.Errorf("line: %w", apperror.ErrNotFound)
	}
	delete(f.lines, id)
	return nil
}

type fakePlans struct {
	plans []models.ServicePlan
}

func (f *fakePlans) Create(_ context.Context, p *models.ServicePlan) error {
	for _, existing := range f.plans {
		if existing.Name == p.Name {
			return fmt.Errorf("plan already exists: %w", apperror.ErrConflict)
		}
	}
	f.plans = append(f.plans, *p)
	return nil
}

func (f *fakePlans) GetByID(_ context.Context, id uuid.UUID) (*models.ServicePlan, error) {
	for _, p := range f.plans {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("plan: %w", apperror.ErrNotFound)
}

func (f *fakePlans) List(context.Context) ([]models.ServicePlan, error) {
	return append([]models.ServicePlan(nil), f.plans...), nil
}

func (f *fakePlans) Update(_ context.Context, p *models.ServicePlan) error {
	for i := range f.plans {
		if f.plans[i].ID == p.ID {
			f.plans[i] = *p
			return nil
		}
	}
	return fmt.Errorf("plan: %w", apperror.ErrNotFound)
}

func (f *fakePlans) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.plans {
		if f.plans[i].ID == id {
			f.plans = append(f.plans[:i], f.plans[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("plan: %w", apperror.ErrNotFound)
}

type fakeUsage struct {
	lines      *fakeLines
	records    []models.UsageRecord
	CreateFunc func(rec *models.UsageRecord) error
}

func (f *fakeUsage) Create(_ context.Context, rec *models.UsageRecord) error {
	if f.CreateFunc != nil {
		if err := f.CreateFunc(rec); err != nil {
			return err
		}
	}
	for _, r := range f.records {
		if r.LineID == rec.LineID && r.Month == rec.Month && r.Year == rec.Year {
			return fmt.Errorf("usage record already exists: %w", apperror.ErrConflict)
		}
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeUsage) Correct(_ context.Context, rec *models.UsageRecord) error {
	for i := range f.records {
		if f.records[i].ID == rec.ID {
			f.records[i] = *rec
			return nil
		}
	}
	return fmt.Errorf("usage record: %w", apperror.ErrNotFound)
}

func (f *fakeUsage) GetByID(_ context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("usage record: %w", apperror.ErrNotFound)
}

func (f *fakeUsage) ListByLine(_ context.Context, lineID uuid.UUID) ([]models.UsageRecord, error) {
	var out []models.UsageRecord
	for _, r := range f.records {
		if r.LineID == lineID {
			out = append(out, r)
		}
	}
	return analytics.SortChronologically(out), nil
}

func (f *fakeUsage) owner(lineID uuid.UUID) uuid.UUID {
	l, err := f.lines.GetByID(context.Background(), lineID)
	if err != nil {
		return uuid.Nil
	}
	return l.UserID
}

func (f *fakeUsage) ListByUser(_ context.Context, userID uuid.UUID) ([]models.UsageRecord, error) {
	var out []models.UsageRecord
	for _, r := range f.records {
		if f.owner(r.LineID) == userID {
			out = append(out, r)
		}
	}
	return analytics.SortChronologically(out), nil
}

func (f *fakeUsage) ListByUserForMonth(_ context.Context, userID uuid.UUID, month string, year int) ([]models.UsageRecord, error) {
	var out []models.UsageRecord
	for _, r := range f.records {
		if r.Month == month && r.Year == year && f.owner(r.LineID) == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCosts struct {
	rows []models.CostBreakdown
}

func (f *fakeCosts) Upsert(_ context.Context, c *models.CostBreakdown) error {
	for i, row := range f.rows {
		if row.UserID == c.UserID && row.Month == c.Month && row.Year == c.Year {
			c.ID, c.CreatedAt = row.ID, row.CreatedAt
			f.rows[i] = *c
			return nil
		}
	}
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeCosts) Get(_ context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error) {
	for _, row := range f.rows {
		if row.UserID == userID && row.Month == month && row.Year == year {
			cp := row
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("cost breakdown: %w", apperror.ErrNotFound)
}

func (f *fakeCosts) ListByUser(_ context.Context, userID uuid.UUID) ([]models.CostBreakdown, error) {
	var out []models.CostBreakdown
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && periodOf(out[j]).Before(periodOf(out[j-1])); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func periodOf(c models.CostBreakdown) models.YearMonth {
	return models.YearMonth{Year: c.Year, Month: models.MonthOrdinal(c.Month)}
}

type fakeBudgets struct {
	budgets []models.Budget
}

func (f *fakeBudgets) Create(_ context.Context, b *models.Budget) error {
	f.budgets = append(f.budgets, *b)
	return nil
}

func (f *fakeBudgets) GetByID(_ context.Context, id uuid.UUID) (*models.Budget, error) {
	for _, b := range f.budgets {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("budget: %w", apperror.ErrNotFound)
}

func (f *fakeBudgets) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range f.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBudgets) ListActiveByUser(_ context.Context, userID uuid.UUID, today time.Time) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range f.budgets {
		if b.UserID == userID && b.IsActive(today) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBudgets) FindActiveForEntity(_ context.Context, userID uuid.UUID, entityType models.EntityType, entityID string, today time.Time, excludeID uuid.UUID) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range f.budgets {
		if b.UserID == userID && b.EntityType == entityType && b.EntityID == entityID && b.ID != excludeID && b.IsActive(today) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBudgets) Update(_ context.Context, b *models.Budget) error {
	for i := range f.budgets {
		if f.budgets[i].ID == b.ID {
			f.budgets[i] = *b
			return nil
		}
	}
	return fmt.Errorf("budget: %w", apperror.ErrNotFound)
}

func (f *fakeBudgets) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.budgets {
		if f.budgets[i].ID == id {
			f.budgets = append(f.budgets[:i], f.budgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("budget: %w", apperror.ErrNotFound)
}

type fakeNotifications struct {
	items      []models.Notification
	CreateFunc func(n *models.Notification) error
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	if f.CreateFunc != nil {
		if err := f.CreateFunc(n); err != nil {
			return err
		}
	}
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	for _, n := range f.items {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("notification: %w", apperror.ErrNotFound)
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset uint64) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	if offset >= uint64(len(out)) {
		return []models.Notification{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < uint64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification: %w", apperror.ErrNotFound)
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for i := range f.items {
		if f.items[i].UserID == userID && !f.items[i].IsRead {
			f.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification: %w", apperror.ErrNotFound)
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	var n int
	for _, item := range f.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) ofType(t models.NotificationType) []models.Notification {
	var out []models.Notification
	for _, n := range f.items {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeRecs struct {
	recs []models.Recommendation
}

func (f *fakeRecs) Create(_ context.Context, r *models.Recommendation) error {
	f.recs = append(f.recs, *r)
	return nil
}

func (f *fakeRecs) GetByID(_ context.Context, id uuid.UUID) (*models.Recommendation, error) {
	for _, r := range f.recs {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("recommendation: %w", apperror.ErrNotFound)
}

func (f *fakeRecs) ListByUser(_ context.Context, userID uuid.UUID, applied *bool) ([]models.Recommendation, error) {
	var out []models.Recommendation
	for _, r := range f.recs {
		if r.UserID == userID && (applied == nil || r.IsApplied == *applied) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecs) HasOpenWithTitleFragment(_ context.Context, userID uuid.UUID, fragment string) (bool, error) {
	for _, r := range f.recs {
		if r.UserID == userID && !r.IsApplied && strings.Contains(strings.ToLower(r.Title), strings.ToLower(fragment)) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRecs) MarkApplied(_ context.Context, id uuid.UUID) error {
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs[i].IsApplied = true
			return nil
		}
	}
	return fmt.Errorf("recommendation: %w", apperror.ErrNotFound)
}

func (f *fakeRecs) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recommendation: %w", apperror.ErrNotFound)
}

func (f *fakeRecs) OpenSavings(_ context.Context, userID uuid.UUID) (map[models.RecommendationCategory]decimal.Decimal, error) {
	out := map[models.RecommendationCategory]decimal.Decimal{}
	for _, r := range f.recs {
		if r.UserID == userID && !r.IsApplied {
			out[r.Category] = out[r.Category].Add(r.SavingsAmount)
		}
	}
	return out, nil
}

type fakeStatuses struct {
	items []models.ServiceStatus
}

func (f *fakeStatuses) List(context.Context) ([]models.ServiceStatus, error) {
	return append([]models.ServiceStatus(nil), f.items...), nil
}

func (f *fakeStatuses) Upsert(_ context.Context, s *models.ServiceStatus) error {
	for i := range f.items {
		if f.items[i].ServiceName == s.ServiceName {
			s.ID = f.items[i].ID
			f.items[i] = *s
			return nil
		}
	}
	f.items = append(f.items, *s)
	return nil
}

var fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// world wires one fake per repository and seeds a small plan catalog.
type world struct {
	users         *fakeUsers
	lines         *fakeLines
	plans         *fakePlans
	usage         *fakeUsage
	costs         *fakeCosts
	budgets       *fakeBudgets
	notifications *fakeNotifications
	recs          *fakeRecs
	statuses      *fakeStatuses
	registry      *prometheus.Registry

	medium models.ServicePlan
	large  models.ServicePlan
	xl     models.ServicePlan
}

func newWorld() *world {
	lines := newFakeLines()
	w := &world{
		users:         newFakeUsers(),
		lines:         lines,
		plans:         &fakePlans{},
		usage:         &fakeUsage{lines: lines},
		costs:         &fakeCosts{},
		budgets:       &fakeBudgets{},
		notifications: &fakeNotifications{},
		recs:          &fakeRecs{},
		statuses:      &fakeStatuses{},
		registry:      prometheus.NewRegistry(),
		medium:        models.ServicePlan{ID: uuid.New(), Name: "Business M", DataLimit: 10, Price: dec("20")},
		large:         models.ServicePlan{ID: uuid.New(), Name: "Business L", DataLimit: 15, Price: dec("25")},
		xl:            models.ServicePlan{ID: uuid.New(), Name: "Business XL", DataLimit: 30, Price: dec("45")},
	}
	w.plans.plans = []models.ServicePlan{w.medium, w.large, w.xl}
	return w
}

func (w *world) addLine(t *testing.T, userID uuid.UUID, phone, department string, plan *models.ServicePlan, usage, limit float64) models.TelecomLine {
	t.Helper()
	line := models.TelecomLine{
		ID:           uuid.New(),
		UserID:       userID,
		PhoneNumber:  phone,
		Department:   department,
		MonthlyLimit: limit,
		CurrentUsage: usage,
		Status:       models.LineActive,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	if plan != nil {
		id := plan.ID
		line.PlanID = &id
	}
	require.NoError(t, w.lines.Create(context.Background(), &line))
	return line
}

func (w *world) addUsage(t *testing.T, lineID uuid.UUID, month string, year int, data float64, cost string) models.UsageRecord {
	t.Helper()
	rec := models.UsageRecord{
		ID:       uuid.New(),
		LineID:   lineID,
		Month:    month,
		Year:     year,
		DataUsed: data,
		DataCost: dec(cost),
	}
	require.NoError(t, w.usage.Create(context.Background(), &rec))
	return rec
}

// counterTotal sums every series of a counter family in reg.
func counterTotal(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
