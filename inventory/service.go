package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/greenplanet/inventory-server/cache"
	"github.com/greenplanet/inventory-server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefreshChannel carries the invalidation signal every successful
// mutation publishes. Subscribers re-fetch the full list on signal;
// there is no delta payload and no conflict detection.
const RefreshChannel = "inventory_updated"

// ErrNotFound is returned when an item does not exist or belongs to a
// different account.
var ErrNotFound = errors.New("inventory: item not found")

// Service owns inventory persistence and the refresh broadcast.
type Service struct {
	db     *gorm.DB
	pubsub cache.PubSub
	logger *zap.Logger
}

func NewService(db *gorm.DB, ps cache.PubSub, logger *zap.Logger) *Service {
	return &Service{db: db, pubsub: ps, logger: logger}
}

// List returns the account's items newest-first.
func (s *Service) List(ctx context.Context, accountID int64) ([]model.Item, error) {
	var items []model.Item
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: list: %w", err)
	}
	return items, nil
}

// Get returns one item scoped to the account.
func (s *Service) Get(ctx context.Context, accountID, id int64) (*model.Item, error) {
	var item model.Item
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: get: %w", err)
	}
	return &item, nil
}

// ItemUpdate holds the editable fields; nil means leave unchanged.
type ItemUpdate struct {
	Name           *string    `json:"name"`
	Description    *string    `json:"description"`
	Category       *string    `json:"category"`
	Condition      *string    `json:"condition"`
	EstimatedValue *float64   `json:"estimated_value"`
	PurchasePrice  *float64   `json:"purchase_price"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	Brand          *string    `json:"brand"`
	Model          *string    `json:"model"`
	SerialNumber   *string    `json:"serial_number"`
	RoomLocation   *string    `json:"room_location"`
}

// Update applies field-by-field changes and publishes a refresh.
// Last write wins.
func (s *Service) Update(ctx context.Context, accountID, id int64, upd ItemUpdate) (*model.Item, error) {
	fields := make(map[string]interface{})
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Category != nil {
		if !model.Category(*upd.Category).Valid() {
			return nil, fmt.Errorf("inventory: invalid category %q", *upd.Category)
		}
		fields["category"] = *upd.Category
	}
	if upd.Condition != nil {
		if !model.Condition(*upd.Condition).Valid() {
			return nil, fmt.Errorf("inventory: invalid condition %q", *upd.Condition)
		}
		fields["condition"] = *upd.Condition
	}
	if upd.EstimatedValue != nil {
		if *upd.EstimatedValue < 0 {
			return nil, fmt.Errorf("inventory: estimated value must not be negative")
		}
		fields["estimated_value"] = *upd.EstimatedValue
	}
	if upd.PurchasePrice != nil {
		if *upd.PurchasePrice < 0 {
			return nil, fmt.Errorf("inventory: purchase price must not be negative")
		}
		fields["purchase_price"] = *upd.PurchasePrice
	}
	if upd.PurchaseDate != nil {
		fields["purchase_date"] = *upd.PurchaseDate
	}
	if upd.Brand != nil {
		fields["brand"] = *upd.Brand
	}
	if upd.Model != nil {
		fields["model"] = *upd.Model
	}
	if upd.SerialNumber != nil {
		fields["serial_number"] = *upd.SerialNumber
	}
	if upd.RoomLocation != nil {
		fields["room_location"] = *upd.RoomLocation
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Item{}).
			Where("id = ? AND account_id = ?", id, accountID).
			Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("inventory: update: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
		s.notify(ctx)
	}
	return s.Get(ctx, accountID, id)
}

// Delete removes one item and publishes a refresh.
func (s *Service) Delete(ctx context.Context, accountID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&model.Item{})
	if res.Error != nil {
		return fmt.Errorf("inventory: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx)
	return nil
}

// BulkCreate inserts a batch in one statement, all-or-nothing, and
// publishes a refresh on success.
func (s *Service) BulkCreate(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return fmt.Errorf("inventory: bulk create: %w", err)
	}
	s.notify(ctx)
	return nil
}

// notify publishes the empty invalidation signal. Best effort: a failed
// publish is logged, never surfaced, because the write already landed.
func (s *Service) notify(ctx context.Context) {
	if err := s.pubsub.Publish(ctx, RefreshChannel, ""); err != nil {
		s.logger.Warn("refresh broadcast failed", zap.Error(err))
	}
}

// Watch subscribes to the refresh broadcast, mapping messages to bare
// signals. The returned cancel must be called to release the
// subscription.
func (s *Service) Watch(ctx context.Context) (<-chan struct{}, func(), error) {
	msgs, cancel, err := s.pubsub.Subscribe(ctx, RefreshChannel)
	if err != nil {
		return nil, nil, fmt.Errorf("inventory: watch: %w", err)
	}
	out := make(chan struct{}, 16)
	go func() {
		defer close(out)
		for range msgs {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, cancel, nil
}

// TotalValue sums estimated values, treating absent as zero. Every
// rendering of the total goes through here so the figure always
// matches.
func TotalValue(items []model.Item) float64 {
	var sum float64
	for _, it := range items {
		if it.EstimatedValue != nil {
			sum += *it.EstimatedValue
		}
	}
	return sum
}

// FilterByCategory returns the subset matching cat; "all" or empty
// returns the full list.
func FilterByCategory(items []model.Item, cat string) []model.Item {
	if cat == "" || cat == "all" {
		return items
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if string(it.Category) == cat {
			out = append(out, it)
		}
	}
	return out
}

// Search matches name, description, or brand case-insensitively.
func Search(items []model.Item, term string) []model.Item {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), term) ||
			strings.Contains(strings.ToLower(it.Description), term) ||
			strings.Contains(strings.ToLower(it.Brand), term) {
			out = append(out, it)
		}
	}
	return out
}

// CountByCategory tallies items per category.
func CountByCategory(items []model.Item) map[model.Category]int {
	counts := make(map[model.Category]int)
	for _, it := range items {
		counts[it.Category]++
	}
	return counts
}

// FormatUSD renders a dollar amount with thousands separators, rounded
// to cents with trailing zeros trimmed, e.g. 12345.5 → "12,345.5",
// 900 → "900".
func FormatUSD(v float64) string {
	rounded := math.Round(v*100) / 100
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + frac
	}
	return out
}
