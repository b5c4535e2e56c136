package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// DefaultLowStockThreshold replaces a negative threshold. Zero is kept and
// flags only items that are out of stock.
const DefaultLowStockThreshold = 5

// ItemLister reads the current inventory.
type ItemLister interface {
	ListItems(ctx context.Context) ([]models.StockRecord, error)
}

// Service exposes read-only views over the inventory for the web page,
// the JSON API and scheduled alerts.
type Service struct {
	items     ItemLister
	threshold int
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(items ItemLister, threshold int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Service{items: items, threshold: threshold, logger: logger, now: time.Now}
}

// Threshold returns the quantity at or below which an item counts as low.
func (s *Service) Threshold() int {
	return s.threshold
}

// Stats returns the total units on hand and the number of distinct entries.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return statsOf(items), nil
}

// Search returns items whose id, size or company contains q, ignoring case.
// A blank query returns every item.
func (s *Service) Search(ctx context.Context, q string) ([]models.StockRecord, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return items, nil
	}

	matches := make([]models.StockRecord, 0, len(items))
	for _, item := range items {
		if matchesQuery(item, needle) {
			matches = append(matches, item)
		}
	}
	s.logger.Debug("search", zap.String("q", needle), zap.Int("matches", len(matches)))
	return matches, nil
}

// LowStock returns items at or below the threshold, lowest quantity first.
func (s *Service) LowStock(ctx context.Context) ([]models.StockRecord, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load low stock: %w", err)
	}
	return s.lowStockOf(items), nil
}

// LowStockDigest renders the low-stock list as a short text message. It
// returns an empty string and zero when nothing is low.
func (s *Service) LowStockDigest(ctx context.Context) (string, int, error) {
	low, err := s.LowStock(ctx)
	if err != nil {
		return "", 0, err
	}
	if len(low) == 0 {
		return "", 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Low stock (%s): %d item(s) at or below %d.\n", s.now().Format("2006-01-02"), len(low), s.threshold)
	for _, item := range low {
		fmt.Fprintf(&b, "- #%d %s: %d\n", item.ID, item.Signature(), item.Quantity)
	}
	return strings.TrimRight(b.String(), "\n"), len(low), nil
}

// Snapshot captures the whole inventory for archiving.
func (s *Service) Snapshot(ctx context.Context) (models.InventorySnapshot, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return models.InventorySnapshot{}, fmt.Errorf("take snapshot: %w", err)
	}
	return models.NewInventorySnapshot(s.now().UTC(), items, s.threshold), nil
}

func (s *Service) lowStockOf(items []models.StockRecord) []models.StockRecord {
	low := make([]models.StockRecord, 0)
	for _, item := range items {
		if item.Quantity <= s.threshold {
			low = append(low, item)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Quantity != low[j].Quantity {
			return low[i].Quantity < low[j].Quantity
		}
		return low[i].ID < low[j].ID
	})
	return low
}

func statsOf(items []models.StockRecord) models.Stats {
	stats := models.Stats{DistinctItems: len(items)}
	for _, item := range items {
		stats.TotalUnits += item.Quantity
	}
	return stats
}

func matchesQuery(item models.StockRecord, needle string) bool {
	if strings.Contains(strconv.FormatInt(item.ID, 10), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Size), needle) {
		return true
	}
	return item.Company != nil && strings.Contains(strings.ToLower(*item.Company), needle)
}
