package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepo struct {
	orders []*Order
	nextID int64
	txErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{nextID: 1}
}

func (m *mockRepo) seed(title string, status Status) *Order {
	o := &Order{ID: m.nextID, Title: title, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.nextID++
	m.orders = append(m.orders, o)
	return o
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, &mockTxRepo{repo: m})
}

func (m *mockRepo) Latest(ctx context.Context) (*Order, error) {
	if len(m.orders) == 0 {
		return nil, nil
	}
	latest := m.orders[0]
	for _, o := range m.orders {
		if o.ID > latest.ID {
			latest = o
		}
	}
	cp := *latest
	return &cp, nil
}

func (m *mockRepo) ByTitle(ctx context.Context, title string) (*Order, error) {
	for _, o := range m.orders {
		if o.Title == title {
			cp := *o
			return &cp, nil
		}
	}
	return nil, shared.NewNotFound("ledger order", title)
}

type mockTxRepo struct {
	repo *mockRepo
}

func (t *mockTxRepo) LatestForUpdate(ctx context.Context) (*Order, error) {
	return t.repo.Latest(ctx)
}

func (t *mockTxRepo) ByTitleForUpdate(ctx context.Context, title string) (*Order, error) {
	for _, o := range t.repo.orders {
		if o.Title == title {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *mockTxRepo) TitleExists(ctx context.Context, title string) (bool, error) {
	for _, o := range t.repo.orders {
		if o.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockTxRepo) Insert(ctx context.Context, title string, status Status) (*Order, error) {
	for _, o := range t.repo.orders {
		if o.Title == title {
			return nil, shared.ErrDuplicateTitle
		}
	}
	return t.repo.seed(title, status), nil
}

func (t *mockTxRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	for _, o := range t.repo.orders {
		if o.ID == id {
			o.Status = status
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewNotFound("ledger order", "?")
}

type recordingAuditor struct {
	entries []shared.TransitionLog
}

func (a *recordingAuditor) Record(ctx context.Context, entry shared.TransitionLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

type recordingNotifier struct {
	finalized []string
	err       error
}

func (n *recordingNotifier) LedgerFinalized(ctx context.Context, title string) error {
	n.finalized = append(n.finalized, title)
	return n.err
}

func newTestService(repo *mockRepo, year int) *Service {
	svc := NewService(repo, nil, nil, nil, nil)
	svc.WithNow(func() time.Time { return at(year) })
	return svc
}

// ============================================================================
// GENERATION
// ============================================================================

func TestGenerateNextSeedsFirstOrder(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 2025)

	result, err := svc.GenerateNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-001", result.Title)
	assert.Equal(t, StatusDraft, result.Status)
	assert.Empty(t, result.PreviousTitle)
	assert.Len(t, repo.orders, 1)
}

func TestGenerateNextSameYearIncrements(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-004", StatusFinalized)
	svc := newTestService(repo, 2025)

	result, err := svc.GenerateNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-005", result.Title)
	assert.Equal(t, StatusDraft, result.Status)
	assert.Equal(t, "2025-004", result.PreviousTitle)
}

func TestGenerateNextYearRolloverResets(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2024-004", StatusFinalized)
	svc := newTestService(repo, 2025)

	result, err := svc.GenerateNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-001", result.Title)
}

func TestGenerateNextRequiresFinalizedPredecessor(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusPositionConfirmed, StatusResponsibilityConfirmed, StatusExecutiveConfirmed} {
		t.Run(string(status), func(t *testing.T) {
			repo := newMockRepo()
			repo.seed("2025-001", status)
			svc := newTestService(repo, 2025)

			_, err := svc.GenerateNext(context.Background())
			require.Error(t, err)
			assert.True(t, shared.IsInvalidState(err))
			assert.Contains(t, err.Error(), string(StatusFinalized))
			assert.Contains(t, err.Error(), string(status))
			assert.Len(t, repo.orders, 1, "no row may be inserted on failure")
		})
	}
}

func TestGenerateNextRejectsDuplicateDerivedTitle(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-002", StatusDraft) // pre-existing clash, created out of order
	repo.seed("2025-001", StatusFinalized)
	svc := newTestService(repo, 2025)

	_, err := svc.GenerateNext(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicateTitle))
	assert.Len(t, repo.orders, 2)
}

func TestGenerateNextMalformedPredecessorFallsBack(t *testing.T) {
	repo := newMockRepo()
	repo.seed("legacy-record", StatusFinalized)
	svc := newTestService(repo, 2025)

	result, err := svc.GenerateNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-001", result.Title)
}

// ============================================================================
// STATUS CHECK
// ============================================================================

func TestCheckGenerationStatusEmpty(t *testing.T) {
	svc := newTestService(newMockRepo(), 2025)

	status, err := svc.CheckGenerationStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasExisting)
	assert.True(t, status.CanGenerate)
}

func TestCheckGenerationStatusGated(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-001", StatusPositionConfirmed)
	svc := newTestService(repo, 2025)

	status, err := svc.CheckGenerationStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasExisting)
	assert.Equal(t, "2025-001", status.CurrentTitle)
	assert.Equal(t, StatusPositionConfirmed, status.CurrentStatus)
	assert.False(t, status.CanGenerate)
}

func TestCheckGenerationStatusFinalized(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-001", StatusFinalized)
	svc := newTestService(repo, 2025)

	status, err := svc.CheckGenerationStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.CanGenerate)
}

// ============================================================================
// TRANSITIONS
// ============================================================================

func TestTransitionTable(t *testing.T) {
	ops := []struct {
		name string
		call func(*Service, context.Context, string) (string, error)
		from Status
		to   Status
	}{
		{"confirm", (*Service).Confirm, StatusDraft, StatusPositionConfirmed},
		{"cancelConfirm", (*Service).CancelConfirm, StatusPositionConfirmed, StatusDraft},
		{"confirmResponsibility", (*Service).ConfirmResponsibility, StatusPositionConfirmed, StatusResponsibilityConfirmed},
		{"cancelResponsibility", (*Service).CancelResponsibility, StatusResponsibilityConfirmed, StatusPositionConfirmed},
		{"confirmExecutive", (*Service).ConfirmExecutive, StatusResponsibilityConfirmed, StatusExecutiveConfirmed},
		{"cancelExecutive", (*Service).CancelExecutive, StatusExecutiveConfirmed, StatusResponsibilityConfirmed},
		{"finalConfirmExecutive", (*Service).FinalConfirmExecutive, StatusExecutiveConfirmed, StatusFinalized},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			repo := newMockRepo()
			order := repo.seed("2025-001", op.from)
			svc := newTestService(repo, 2025)

			result, err := op.call(svc, context.Background(), "2025-001")
			require.NoError(t, err)
			assert.Contains(t, result, "2025-001")
			assert.Equal(t, op.to, order.Status)
		})
	}
}

func TestTransitionRejectsWrongState(t *testing.T) {
	// Only P3 -> P4 is legal for confirmExecutive; every other start fails.
	for _, status := range []Status{StatusDraft, StatusPositionConfirmed, StatusExecutiveConfirmed, StatusFinalized} {
		t.Run(string(status), func(t *testing.T) {
			repo := newMockRepo()
			order := repo.seed("2025-001", status)
			svc := newTestService(repo, 2025)

			_, err := svc.ConfirmExecutive(context.Background(), "2025-001")
			require.Error(t, err)
			assert.True(t, shared.IsInvalidState(err))
			assert.Contains(t, err.Error(), string(StatusResponsibilityConfirmed))
			assert.Contains(t, err.Error(), string(status))
			assert.Equal(t, status, order.Status, "status must not change")
		})
	}
}

func TestTransitionFailsWhenAlreadyAtTarget(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-001", StatusPositionConfirmed)
	svc := newTestService(repo, 2025)

	_, err := svc.Confirm(context.Background(), "2025-001")
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}

func TestTransitionNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), 2025)

	_, err := svc.Confirm(context.Background(), "2025-404")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.Contains(t, err.Error(), "2025-404")
}

func TestConfirmCancelRoundTrip(t *testing.T) {
	repo := newMockRepo()
	order := repo.seed("2025-001", StatusDraft)
	svc := newTestService(repo, 2025)

	_, err := svc.Confirm(context.Background(), "2025-001")
	require.NoError(t, err)
	assert.Equal(t, StatusPositionConfirmed, order.Status)

	_, err = svc.CancelConfirm(context.Background(), "2025-001")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, order.Status)
}

func TestFinalConfirmFiresNotification(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-001", StatusExecutiveConfirmed)
	notifier := &recordingNotifier{}
	svc := NewService(repo, nil, nil, notifier, nil)

	_, err := svc.FinalConfirmExecutive(context.Background(), "2025-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-001"}, notifier.finalized)
}

func TestFinalConfirmSucceedsWhenNotifierFails(t *testing.T) {
	repo := newMockRepo()
	order := repo.seed("2025-001", StatusExecutiveConfirmed)
	notifier := &recordingNotifier{err: errors.New("queue down")}
	svc := NewService(repo, nil, nil, notifier, nil)

	_, err := svc.FinalConfirmExecutive(context.Background(), "2025-001")
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, order.Status)
}

func TestTransitionsAreAudited(t *testing.T) {
	repo := newMockRepo()
	repo.seed("2025-001", StatusDraft)
	auditor := &recordingAuditor{}
	svc := NewService(repo, nil, auditor, nil, nil)

	ctx := shared.ContextWithActor(context.Background(), "jkim")
	_, err := svc.Confirm(ctx, "2025-001")
	require.NoError(t, err)

	require.Len(t, auditor.entries, 1)
	entry := auditor.entries[0]
	assert.Equal(t, "ledger", entry.Module)
	assert.Equal(t, "2025-001", entry.Ref)
	assert.Equal(t, "jkim", entry.Actor)
	assert.Equal(t, string(StatusDraft), entry.FromStatus)
	assert.Equal(t, string(StatusPositionConfirmed), entry.ToStatus)
}

func TestGetIDByTitle(t *testing.T) {
	repo := newMockRepo()
	order := repo.seed("2025-001", StatusDraft)
	svc := newTestService(repo, 2025)

	id, err := svc.GetIDByTitle(context.Background(), "2025-001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	_, err = svc.GetIDByTitle(context.Background(), "2030-001")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

// ============================================================================
// END TO END
// ============================================================================

func TestFullLifecycleScenario(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, 2025)
	ctx := context.Background()

	result, err := svc.GenerateNext(ctx)
	require.NoError(t, err)
	require.Equal(t, "2025-001", result.Title)
	require.Equal(t, StatusDraft, result.Status)

	steps := []func(*Service, context.Context, string) (string, error){
		(*Service).Confirm,
		(*Service).ConfirmResponsibility,
		(*Service).ConfirmExecutive,
		(*Service).FinalConfirmExecutive,
	}
	for _, step := range steps {
		_, err := step(svc, ctx, "2025-001")
		require.NoError(t, err)
	}

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, latest.Status)

	status, err := svc.CheckGenerationStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.CanGenerate)
}
