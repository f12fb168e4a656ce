package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/pkg/cache"
	"github.com/electrogest/electrogest-backend/pkg/config"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

const (
	dashboardCacheKey = "reports:dashboard"
	rfmCacheKey       = "reports:rfm"

	averageTicketWindowDays = 30
)

// Granularity selects how sales are bucketed over a period.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Dashboard is the landing-page snapshot.
type Dashboard struct {
	Customers        int64           `json:"customers"`
	ActiveProducts   int64           `json:"active_products"`
	LowStockProducts int64           `json:"low_stock_products"`
	SalesToday       int64           `json:"sales_today"`
	RevenueToday     decimal.Decimal `json:"revenue_today"`
	AverageTicket30d decimal.Decimal `json:"average_ticket_30d"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// PeriodBucket is one time slice of the sales-by-period report.
type PeriodBucket struct {
	Period  string          `json:"period"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Service computes the management reports.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	SalesByPeriod(ctx context.Context, from, to time.Time, granularity Granularity) ([]PeriodBucket, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error)
	Productivity(ctx context.Context, from, to time.Time) ([]OperatorProductivity, error)
	RFM(ctx context.Context) (*RFMReport, error)
}

// ServiceParams wires the report service dependencies.
type ServiceParams struct {
	Repo   Repository
	Cache  cache.Cache
	Config config.CacheConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo  Repository
	cache cache.Cache
	cfg   config.CacheConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the report service. Cache defaults to a no-op when absent.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports: repository is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports: logger is required")
	}
	store := params.Cache
	if store == nil {
		store = cache.Noop{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  params.Repo,
		cache: store,
		cfg:   params.Config,
		logg:  params.Logger,
		now:   now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var cachedBoard Dashboard
	if s.readCache(ctx, dashboardCacheKey, &cachedBoard) {
		return &cachedBoard, nil
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	customers, err := s.repo.CustomerCount(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count customers")
	}
	activeProducts, err := s.repo.ActiveProductCount(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count active products")
	}
	lowStock, err := s.repo.LowStockCount(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count low stock products")
	}
	salesToday, revenueToday, err := s.repo.SalesCountAndRevenue(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load today's sales")
	}
	windowCount, windowRevenue, err := s.repo.SalesCountAndRevenue(ctx, now.AddDate(0, 0, -averageTicketWindowDays), now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load the ticket window")
	}

	averageTicket := decimal.Zero
	if windowCount > 0 {
		averageTicket = windowRevenue.Div(decimal.NewFromInt(windowCount)).Round(2)
	}

	board := &Dashboard{
		Customers:        customers,
		ActiveProducts:   activeProducts,
		LowStockProducts: lowStock,
		SalesToday:       salesToday,
		RevenueToday:     revenueToday,
		AverageTicket30d: averageTicket,
		GeneratedAt:      now,
	}
	s.writeCache(ctx, dashboardCacheKey, board, s.cfg.DashboardTTL)
	return board, nil
}

func (s *service) SalesByPeriod(ctx context.Context, from, to time.Time, granularity Granularity) ([]PeriodBucket, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must be after its start")
	}
	if !granularity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "granularity must be day, week or month")
	}

	rows, err := s.repo.SaleRows(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load sales for the period")
	}

	buckets := make([]PeriodBucket, 0)
	index := make(map[string]int)
	for _, row := range rows {
		key := bucketKey(row.OccurredAt, granularity)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, PeriodBucket{Period: key, Revenue: decimal.Zero})
		}
		buckets[pos].Sales++
		buckets[pos].Revenue = buckets[pos].Revenue.Add(row.Total)
	}
	return buckets, nil
}

func (s *service) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must be after its start")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.repo.TopCustomers(ctx, from, to, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to rank customers")
	}
	return rows, nil
}

func (s *service) Productivity(ctx context.Context, from, to time.Time) ([]OperatorProductivity, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must be after its start")
	}
	rows, err := s.repo.Productivity(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to aggregate operator sales")
	}
	return rows, nil
}

func (s *service) RFM(ctx context.Context) (*RFMReport, error) {
	var cachedReport RFMReport
	if s.readCache(ctx, rfmCacheKey, &cachedReport) {
		return &cachedReport, nil
	}

	sources, err := s.repo.RFMSources(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load purchase aggregates")
	}

	report := buildRFMReport(sources, s.now())
	s.writeCache(ctx, rfmCacheKey, report, s.cfg.ReportTTL)
	return report, nil
}

func (s *service) readCache(ctx context.Context, key string, out any) bool {
	payload, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logg.Warn(s.cacheCtx(ctx, key, err), "report cache read failed")
		return false
	}
	if !hit {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logg.Warn(s.cacheCtx(ctx, key, err), "report cache entry is corrupt")
		return false
	}
	return true
}

func (s *service) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logg.Warn(s.cacheCtx(ctx, key, err), "report cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, payload, ttl); err != nil {
		s.logg.Warn(s.cacheCtx(ctx, key, err), "report cache write failed")
	}
}

func (s *service) cacheCtx(ctx context.Context, key string, err error) context.Context {
	return s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()})
}

func bucketKey(at time.Time, granularity Granularity) string {
	switch granularity {
	case GranularityWeek:
		year, week := at.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityMonth:
		return at.Format("2006-01")
	default:
		return at.Format("2006-01-02")
	}
}
