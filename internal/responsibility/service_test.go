package responsibility

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/codes"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// mockRepo keeps the aggregate in memory and allocates codes with the real
// allocator over the stored rows, so sequences behave exactly as they would
// against the database.
type mockRepo struct {
	orderTitles      map[int64]string
	responsibilities []Responsibility
	details          []Detail
	obligations      []Obligation
	manuals          []Manual
}

func newMockRepo() *mockRepo {
	return &mockRepo{orderTitles: map[int64]string{}}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, &mockTxRepo{repo: m})
}

func (m *mockRepo) ListByOrder(_ context.Context, ledgerOrderID int64) ([]Responsibility, error) {
	var out []Responsibility
	for _, r := range m.responsibilities {
		if r.LedgerOrderID == ledgerOrderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) DetailsFor(_ context.Context, responsibilityCode string) ([]Detail, error) {
	var out []Detail
	for _, d := range m.details {
		if d.ResponsibilityCode == responsibilityCode {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) ObligationsFor(_ context.Context, detailCode string) ([]Obligation, error) {
	var out []Obligation
	for _, o := range m.obligations {
		if o.DetailCode == detailCode {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepo) ManualsFor(_ context.Context, obligationCode string) ([]Manual, error) {
	var out []Manual
	for _, v := range m.manuals {
		if v.ObligationCode == obligationCode {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockTxRepo struct {
	repo *mockRepo
}

func (t *mockTxRepo) OrderTitle(_ context.Context, ledgerOrderID int64) (string, error) {
	title, ok := t.repo.orderTitles[ledgerOrderID]
	if !ok {
		return "", shared.NewNotFound("ledger order", fmt.Sprintf("%d", ledgerOrderID))
	}
	return title, nil
}

func (t *mockTxRepo) ExistingCodes(_ context.Context, table, _ string, prefix string) ([]string, error) {
	var out []string
	switch table {
	case "responsibilities":
		for _, r := range t.repo.responsibilities {
			if strings.HasPrefix(r.Code, prefix) {
				out = append(out, r.Code)
			}
		}
	case "responsibility_details":
		for _, d := range t.repo.details {
			if strings.HasPrefix(d.Code, prefix) {
				out = append(out, d.Code)
			}
		}
	case "management_obligations":
		for _, o := range t.repo.obligations {
			if strings.HasPrefix(o.Code, prefix) {
				out = append(out, o.Code)
			}
		}
	case "dept_manager_manuals":
		for _, v := range t.repo.manuals {
			if strings.HasPrefix(v.Code, prefix) {
				out = append(out, v.Code)
			}
		}
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return out, nil
}

func (t *mockTxRepo) NextCode(ctx context.Context, spec codes.Spec) (string, error) {
	return codes.NewAllocator(t).Next(ctx, spec)
}

func (t *mockTxRepo) InsertResponsibility(_ context.Context, r Responsibility) (*Responsibility, error) {
	t.repo.responsibilities = append(t.repo.responsibilities, r)
	return &r, nil
}

func (t *mockTxRepo) InsertDetail(_ context.Context, d Detail) (*Detail, error) {
	t.repo.details = append(t.repo.details, d)
	return &d, nil
}

func (t *mockTxRepo) InsertObligation(_ context.Context, o Obligation) (*Obligation, error) {
	t.repo.obligations = append(t.repo.obligations, o)
	return &o, nil
}

func (t *mockTxRepo) InsertManual(_ context.Context, m Manual) (*Manual, error) {
	t.repo.manuals = append(t.repo.manuals, m)
	return &m, nil
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, slog.Default())
}

func TestCreateResponsibilityAllocatesPerCategory(t *testing.T) {
	repo := newMockRepo()
	repo.orderTitles[7] = "2025-001"
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.CreateResponsibility(ctx, CreateResponsibilityInput{LedgerOrderID: 7, Category: "M", Content: "internal control"})
	require.NoError(t, err)
	assert.Equal(t, "2025-001M0001", first.Code)

	second, err := svc.CreateResponsibility(ctx, CreateResponsibilityInput{LedgerOrderID: 7, Category: "M", Content: "reporting"})
	require.NoError(t, err)
	assert.Equal(t, "2025-001M0002", second.Code)

	other, err := svc.CreateResponsibility(ctx, CreateResponsibilityInput{LedgerOrderID: 7, Category: "C", Content: "compliance"})
	require.NoError(t, err)
	assert.Equal(t, "2025-001C0001", other.Code, "categories count independently")
}

func TestCreateResponsibilityUnknownOrder(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.CreateResponsibility(context.Background(), CreateResponsibilityInput{LedgerOrderID: 99, Category: "M", Content: "x"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, repo.responsibilities)
}

func TestCreateDetailTruncatesScope(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	// 13-char parent: only its last 9 characters scope the detail sequence.
	detail, err := svc.CreateDetail(ctx, CreateDetailInput{ResponsibilityCode: "2025-001M0001", Content: "review"})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0001", detail.Code)

	next, err := svc.CreateDetail(ctx, CreateDetailInput{ResponsibilityCode: "2025-001M0001", Content: "sign-off"})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0002", next.Code)
}

func TestCreateObligationAndManualChain(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	obligation, err := svc.CreateObligation(ctx, CreateObligationInput{DetailCode: "-001M0001D0001", OrgCode: "ORG01", Content: "monitor"})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0001O0001", obligation.Code)

	manual, err := svc.CreateManual(ctx, CreateManualInput{ObligationCode: obligation.Code, Content: "manual v1"})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0001O0001A0001", manual.Code)
}

func TestCreateWithChildren(t *testing.T) {
	repo := newMockRepo()
	repo.orderTitles[7] = "2025-001"
	svc := newTestService(repo)

	tree, err := svc.CreateWithChildren(context.Background(), TreeInput{
		LedgerOrderID: 7,
		Category:      "M",
		Content:       "root",
		Details: []TreeDetailInput{
			{Content: "d1", Obligations: []TreeObligationInput{{OrgCode: "ORG01", Content: "o1"}, {OrgCode: "ORG02", Content: "o2"}}},
			{Content: "d2"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-001M0001", tree.Responsibility.Code)
	require.Len(t, tree.Details, 2)
	assert.Equal(t, "-001M0001D0001", tree.Details[0].Detail.Code)
	assert.Equal(t, "-001M0001D0002", tree.Details[1].Detail.Code)

	require.Len(t, tree.Details[0].Obligations, 2)
	assert.Equal(t, "-001M0001D0001MO0001", tree.Details[0].Obligations[0].Code)
	assert.Equal(t, "-001M0001D0001MO0002", tree.Details[0].Obligations[1].Code)
	assert.Empty(t, tree.Details[1].Obligations)
}

func TestNestedObligationSequenceIndependentOfSingleCreates(t *testing.T) {
	repo := newMockRepo()
	repo.orderTitles[7] = "2025-001"
	svc := newTestService(repo)
	ctx := context.Background()

	single, err := svc.CreateObligation(ctx, CreateObligationInput{DetailCode: "-001M0001D0001", OrgCode: "ORG01", Content: "single"})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0001O0001", single.Code)

	tree, err := svc.CreateWithChildren(ctx, TreeInput{
		LedgerOrderID: 7,
		Category:      "M",
		Content:       "root",
		Details:       []TreeDetailInput{{Content: "d1", Obligations: []TreeObligationInput{{OrgCode: "ORG01", Content: "nested"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "-001M0001D0001MO0001", tree.Details[0].Obligations[0].Code, "MO scope does not share the O counter")
}

func TestListAndChildLookups(t *testing.T) {
	repo := newMockRepo()
	repo.orderTitles[7] = "2025-001"
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreateResponsibility(ctx, CreateResponsibilityInput{LedgerOrderID: 7, Category: "M", Content: "root"})
	require.NoError(t, err)
	detail, err := svc.CreateDetail(ctx, CreateDetailInput{ResponsibilityCode: created.Code, Content: "d"})
	require.NoError(t, err)

	list, err := svc.ListByOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.Code, list[0].Code)

	details, err := svc.Details(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, detail.Code, details[0].Code)
}
