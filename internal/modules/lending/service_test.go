package lending

import (
	"context"
	"sync"
	"testing"
	"time"

	"lendhub/internal/authz"
	"lendhub/internal/domain"
	"lendhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock repositories

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.Request) error {
	args := m.Called(ctx, req)
	if req != nil {
		req.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *MockRequestRepository) GetDetailsByID(ctx context.Context, id int64) (*repository.RequestDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RequestDetails), args.Error(1)
}

func (m *MockRequestRepository) ListDetails(ctx context.Context, f repository.RequestFilters) ([]repository.RequestDetails, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RequestDetails), args.Error(1)
}

func (m *MockRequestRepository) ListApprovedForEquipment(ctx context.Context, equipmentID int64) ([]domain.Request, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Request), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RequestStatus, fields map[string]any) (bool, error) {
	args := m.Called(ctx, id, from, to, fields)
	return args.Bool(0), args.Error(1)
}

type MockEquipmentReader struct {
	mock.Mock
}

func (m *MockEquipmentReader) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	staffID = domain.Identity{UserID: 7, Role: domain.RoleStaff}
	userID  = domain.Identity{UserID: 3, Role: domain.RoleUser}
)

func TestService_Create_Success(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	mockEquipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10, Quantity: 2}, nil)
	mockRequests.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	start := domain.Day(time.Now()).AddDate(0, 0, 1)
	r, err := service.Create(context.Background(), userID, CreateRequestRequest{
		EquipmentID: 10,
		StartDate:   start.Format(domain.DateLayout),
		EndDate:     start.AddDate(0, 0, 3).Format(domain.DateLayout),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, r.Status)
	assert.Equal(t, int64(3), r.UserID)
	assert.Equal(t, int64(999), r.ID)
}

// The boundary is the UTC calendar day: a request starting on the current
// UTC day is valid wherever the server clock's zone points.
func TestService_Create_AcceptsCurrentUTCDay(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	mockEquipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10, Quantity: 1}, nil)
	mockRequests.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	today := domain.Day(time.Now()).Format(domain.DateLayout)
	r, err := service.Create(context.Background(), userID, CreateRequestRequest{
		EquipmentID: 10,
		StartDate:   today,
		EndDate:     today,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Day(time.Now()), r.StartDate)
}

func TestService_Create_RejectsBadDates(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)
	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	tomorrow := domain.Day(time.Now()).AddDate(0, 0, 1)
	yesterday := domain.Day(time.Now()).AddDate(0, 0, -1)

	cases := []struct {
		name       string
		start, end string
	}{
		{"end before start", tomorrow.AddDate(0, 0, 5).Format(domain.DateLayout), tomorrow.Format(domain.DateLayout)},
		{"start in past", yesterday.Format(domain.DateLayout), tomorrow.Format(domain.DateLayout)},
		{"garbage start", "06-01-2024", tomorrow.Format(domain.DateLayout)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), userID, CreateRequestRequest{
				EquipmentID: 10,
				StartDate:   tc.start,
				EndDate:     tc.end,
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	mockRequests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_UnknownEquipment(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)
	mockEquipment.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	start := domain.Day(time.Now()).AddDate(0, 0, 1)
	_, err := service.Create(context.Background(), userID, CreateRequestRequest{
		EquipmentID: 404,
		StartDate:   start.Format(domain.DateLayout),
		EndDate:     start.Format(domain.DateLayout),
	})
	assert.ErrorIs(t, err, ErrEquipmentMissing)
}

func TestService_Approve_ForbiddenForUserRole(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)
	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.Approve(context.Background(), userID, 1)

	assert.ErrorIs(t, err, authz.ErrForbidden)
	mockRequests.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestService_Approve_Success(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	pending := &domain.Request{
		ID: 1, EquipmentID: 10, UserID: 3,
		StartDate: day("2024-06-01"), EndDate: day("2024-06-05"),
		Status: domain.RequestPending,
	}

	mockRequests.On("GetByID", mock.Anything, int64(1)).Return(pending, nil)
	mockEquipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10, Quantity: 2}, nil)
	mockRequests.On("ListApprovedForEquipment", mock.Anything, int64(10)).Return([]domain.Request{}, nil)
	mockRequests.On("UpdateStatus", mock.Anything, int64(1),
		domain.RequestPending, domain.RequestApproved, mock.Anything).Return(true, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	r, err := service.Approve(context.Background(), staffID, 1)

	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, r.Status)
	require.NotNil(t, r.DecidedBy)
	assert.Equal(t, staffID.UserID, *r.DecidedBy)
	assert.NotNil(t, r.DecidedAt)
}

func TestService_Approve_CapacityConflictLeavesPending(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	pending := &domain.Request{
		ID: 4, EquipmentID: 10, UserID: 3,
		StartDate: day("2024-06-04"), EndDate: day("2024-06-04"),
		Status: domain.RequestPending,
	}
	committed := []domain.Request{
		{ID: 1, EquipmentID: 10, StartDate: day("2024-06-01"), EndDate: day("2024-06-05"), Status: domain.RequestApproved},
		{ID: 2, EquipmentID: 10, StartDate: day("2024-06-03"), EndDate: day("2024-06-07"), Status: domain.RequestApproved},
	}

	mockRequests.On("GetByID", mock.Anything, int64(4)).Return(pending, nil)
	mockEquipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10, Quantity: 2}, nil)
	mockRequests.On("ListApprovedForEquipment", mock.Anything, int64(10)).Return(committed, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.Approve(context.Background(), staffID, 4)

	assert.ErrorIs(t, err, ErrCapacityConflict)
	mockRequests.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Approve_NonPendingIsStateConflict(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	approved := &domain.Request{
		ID: 1, EquipmentID: 10,
		StartDate: day("2024-06-01"), EndDate: day("2024-06-05"),
		Status: domain.RequestApproved,
	}
	mockRequests.On("GetByID", mock.Anything, int64(1)).Return(approved, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.Approve(context.Background(), staffID, 1)

	assert.ErrorIs(t, err, ErrStateConflict)
	mockRequests.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Reject_RequiresPending(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	rejected := &domain.Request{ID: 2, EquipmentID: 10, Status: domain.RequestRejected}
	mockRequests.On("GetByID", mock.Anything, int64(2)).Return(rejected, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.Reject(context.Background(), staffID, 2)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestService_MarkReturned_RequiresApproved(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	pending := &domain.Request{ID: 3, EquipmentID: 10, Status: domain.RequestPending}
	mockRequests.On("GetByID", mock.Anything, int64(3)).Return(pending, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.MarkReturned(context.Background(), staffID, 3)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestService_List_UserSeesOnlyOwn(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	mockRequests.On("ListDetails", mock.Anything, mock.MatchedBy(func(f repository.RequestFilters) bool {
		return f.UserID != nil && *f.UserID == userID.UserID
	})).Return([]repository.RequestDetails{}, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.List(context.Background(), userID, "")
	require.NoError(t, err)
	mockRequests.AssertExpectations(t)
}

func TestService_List_StaffSeesAll(t *testing.T) {
	mockRequests := new(MockRequestRepository)
	mockEquipment := new(MockEquipmentReader)

	mockRequests.On("ListDetails", mock.Anything, mock.MatchedBy(func(f repository.RequestFilters) bool {
		return f.UserID == nil && f.Status == "pending"
	})).Return([]repository.RequestDetails{}, nil)

	service := NewService(mockRequests, mockEquipment, NewLedger(mockRequests), nil)

	_, err := service.List(context.Background(), staffID, "pending")
	require.NoError(t, err)
	mockRequests.AssertExpectations(t)
}

// memRequestRepo is an in-memory repository with the same compare-and-set
// semantics as the real one, for exercising concurrent approvals.
type memRequestRepo struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*domain.Request
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{next: 1, rows: make(map[int64]*domain.Request)}
}

func (m *memRequestRepo) Create(_ context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.next
	m.next++
	cp := *req
	m.rows[req.ID] = &cp
	return nil
}

func (m *memRequestRepo) GetByID(_ context.Context, id int64) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRequestRepo) GetDetailsByID(context.Context, int64) (*repository.RequestDetails, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memRequestRepo) ListDetails(context.Context, repository.RequestFilters) ([]repository.RequestDetails, error) {
	return nil, nil
}

func (m *memRequestRepo) ListApprovedForEquipment(_ context.Context, equipmentID int64) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Request
	for _, r := range m.rows {
		if r.EquipmentID == equipmentID && r.Status == domain.RequestApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRequestRepo) UpdateStatus(_ context.Context, id int64, from, to domain.RequestStatus, _ map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

type memEquipmentReader struct {
	item domain.Equipment
}

func (m *memEquipmentReader) GetByID(context.Context, int64) (*domain.Equipment, error) {
	cp := m.item
	return &cp, nil
}

// Two units, many concurrent approvals for the same overlapping week:
// exactly two may commit, everything else must fail with a capacity
// conflict, and the committed set must never exceed quantity on any day.
func TestService_ConcurrentApprovals_NeverOversubscribe(t *testing.T) {
	repo := newMemRequestRepo()
	equipment := &memEquipmentReader{item: domain.Equipment{ID: 10, Quantity: 2}}
	service := NewService(repo, equipment, NewLedger(repo), nil)

	ctx := context.Background()
	const contenders = 16
	ids := make([]int64, 0, contenders)
	for i := 0; i < contenders; i++ {
		r := &domain.Request{
			EquipmentID: 10,
			UserID:      int64(100 + i),
			StartDate:   day("2030-06-01"),
			EndDate:     day("2030-06-07"),
			Status:      domain.RequestPending,
		}
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := service.Approve(ctx, staffID, id)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	approved, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			approved++
		case err == ErrCapacityConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, approved)
	assert.Equal(t, contenders-2, conflicts)

	peak, err := NewLedger(repo).PeakOverlap(ctx, 10, day("2030-06-01"), day("2030-06-07"))
	require.NoError(t, err)
	assert.Equal(t, 2, peak)
}

// create -> approve -> return restores availability for the range exactly.
func TestService_ApproveThenReturn_RoundTrip(t *testing.T) {
	repo := newMemRequestRepo()
	equipment := &memEquipmentReader{item: domain.Equipment{ID: 10, Quantity: 2}}
	service := NewService(repo, equipment, NewLedger(repo), nil)
	ledger := NewLedger(repo)

	ctx := context.Background()
	r := &domain.Request{
		EquipmentID: 10, UserID: 3,
		StartDate: day("2030-06-01"), EndDate: day("2030-06-05"),
		Status: domain.RequestPending,
	}
	require.NoError(t, repo.Create(ctx, r))

	before, err := ledger.PeakOverlap(ctx, 10, day("2030-06-01"), day("2030-06-05"))
	require.NoError(t, err)

	_, err = service.Approve(ctx, staffID, r.ID)
	require.NoError(t, err)

	during, err := ledger.PeakOverlap(ctx, 10, day("2030-06-01"), day("2030-06-05"))
	require.NoError(t, err)
	assert.Equal(t, before+1, during)

	_, err = service.MarkReturned(ctx, staffID, r.ID)
	require.NoError(t, err)

	after, err := ledger.PeakOverlap(ctx, 10, day("2030-06-01"), day("2030-06-05"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// approving again is a state conflict with no extra capacity consumed
	_, err = service.Approve(ctx, staffID, r.ID)
	assert.ErrorIs(t, err, ErrStateConflict)
}
