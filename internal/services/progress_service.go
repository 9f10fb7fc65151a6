package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
	"github.com/vladimiradmaev/ai-trainer/internal/utils"
)

// WeightChangeFunc is called after a weight entry was added
type WeightChangeFunc func(ctx context.Context, entry domain.WeightEntry)

// ProgressService owns weight entries and progress photos
type ProgressService struct {
	weightRepo *repository.Snapshot[[]domain.WeightEntry]
	photoRepo  *repository.Snapshot[[]domain.ProgressPhoto]
	clock      clock

	mu        sync.RWMutex
	weights   []domain.WeightEntry
	photos    []domain.ProgressPhoto
	listeners []WeightChangeFunc
}

// NewProgressService creates the weight and photo store. Call Load before use.
func NewProgressService(weightRepo *repository.Snapshot[[]domain.WeightEntry], photoRepo *repository.Snapshot[[]domain.ProgressPhoto], opts ...Option) *ProgressService {
	return &ProgressService{
		weightRepo: weightRepo,
		photoRepo:  photoRepo,
		clock:      newClock(opts),
	}
}

// Load hydrates both collections from storage
func (s *ProgressService) Load(ctx context.Context) error {
	weights, _, err := s.weightRepo.Load(ctx)
	if err != nil {
		return err
	}
	photos, _, err := s.photoRepo.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.weights = weights
	s.photos = photos
	s.mu.Unlock()
	return nil
}

// OnWeightAdded registers fn to run after every new weight entry
func (s *ProgressService) OnWeightAdded(fn WeightChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddWeightEntry stores a weigh-in and returns its id
func (s *ProgressService) AddWeightEntry(ctx context.Context, entry domain.WeightEntry) (string, error) {
	if entry.Weight <= 0 || math.IsNaN(entry.Weight) || entry.Weight > 500 {
		return "", apperrors.NewValidationError("weight must be between 0 and 500 kg").WithContext("weight", entry.Weight)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date.IsZero() {
		entry.Date = s.clock.now()
	}

	s.mu.Lock()
	next := append(append([]domain.WeightEntry{}, s.weights...), entry)
	if err := s.weightRepo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.weights = next
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, entry)
	}
	return entry.ID, nil
}

// DeleteWeightEntry removes a weigh-in
func (s *ProgressService) DeleteWeightEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.weights, func(e domain.WeightEntry) bool { return e.ID == id })
	if i < 0 {
		return apperrors.NewNotFoundError("weight entry", id)
	}
	next := append(append([]domain.WeightEntry{}, s.weights[:i]...), s.weights[i+1:]...)
	if err := s.weightRepo.Save(ctx, next); err != nil {
		return err
	}
	s.weights = next
	return nil
}

// UpdateWeightEntryNotes replaces the notes of a weigh-in
func (s *ProgressService) UpdateWeightEntryNotes(ctx context.Context, id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.weights, func(e domain.WeightEntry) bool { return e.ID == id })
	if i < 0 {
		return apperrors.NewNotFoundError("weight entry", id)
	}
	next := append([]domain.WeightEntry{}, s.weights...)
	next[i].Notes = notes
	if err := s.weightRepo.Save(ctx, next); err != nil {
		return err
	}
	s.weights = next
	return nil
}

// GetWeightEntries returns entries dated within [start, end], oldest first
func (s *ProgressService) GetWeightEntries(start, end time.Time) []domain.WeightEntry {
	s.mu.RLock()
	var result []domain.WeightEntry
	for _, e := range s.weights {
		if inRange(e.Date, start, end) {
			result = append(result, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// LatestWeight returns the most recent weigh-in
func (s *ProgressService) LatestWeight() (domain.WeightEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest domain.WeightEntry
	found := false
	for _, e := range s.weights {
		if !found || !e.Date.Before(latest.Date) {
			latest = e
			found = true
		}
	}
	return latest, found
}

// GetWeightTrend averages weigh-ins per calendar day over the trailing days,
// one point per day that has data, oldest first
func (s *ProgressService) GetWeightTrend(days int) []domain.WeightTrendPoint {
	if days <= 0 {
		return []domain.WeightTrendPoint{}
	}
	now := s.clock.now()
	start := utils.StartOfDay(now, s.clock.loc).AddDate(0, 0, -(days - 1))

	type bucket struct {
		day   time.Time
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	for _, e := range s.GetWeightEntries(start, now) {
		key := utils.DayKey(e.Date, s.clock.loc)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{day: utils.StartOfDay(e.Date, s.clock.loc)}
			buckets[key] = b
		}
		b.sum += e.Weight
		b.count++
	}

	points := make([]domain.WeightTrendPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, domain.WeightTrendPoint{
			Date:   b.day,
			Weight: round1(b.sum / float64(b.count)),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// AddProgressPhoto stores a photo and returns its id
func (s *ProgressService) AddProgressPhoto(ctx context.Context, photo domain.ProgressPhoto) (string, error) {
	if photo.ImageURI == "" {
		return "", apperrors.NewValidationError("photo image is required")
	}
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.Date.IsZero() {
		photo.Date = s.clock.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]domain.ProgressPhoto{}, s.photos...), photo)
	if err := s.photoRepo.Save(ctx, next); err != nil {
		return "", err
	}
	s.photos = next
	return photo.ID, nil
}

// DeleteProgressPhoto removes a photo
func (s *ProgressService) DeleteProgressPhoto(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.photos, func(p domain.ProgressPhoto) bool { return p.ID == id })
	if i < 0 {
		return apperrors.NewNotFoundError("progress photo", id)
	}
	next := append(append([]domain.ProgressPhoto{}, s.photos[:i]...), s.photos[i+1:]...)
	if err := s.photoRepo.Save(ctx, next); err != nil {
		return err
	}
	s.photos = next
	return nil
}

// UpdatePhotoNotes replaces the notes of a photo
func (s *ProgressService) UpdatePhotoNotes(ctx context.Context, id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.photos, func(p domain.ProgressPhoto) bool { return p.ID == id })
	if i < 0 {
		return apperrors.NewNotFoundError("progress photo", id)
	}
	next := append([]domain.ProgressPhoto{}, s.photos...)
	next[i].Notes = notes
	if err := s.photoRepo.Save(ctx, next); err != nil {
		return err
	}
	s.photos = next
	return nil
}

// GetProgressPhotos returns photos dated within [start, end], newest first
func (s *ProgressService) GetProgressPhotos(start, end time.Time) []domain.ProgressPhoto {
	s.mu.RLock()
	var result []domain.ProgressPhoto
	for _, p := range s.photos {
		if inRange(p.Date, start, end) {
			result = append(result, p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}
