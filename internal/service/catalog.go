package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/cache"
	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/repository"
)

// SlotOption is one bookable slot the way the conversation presents it: an
// opaque reference plus the date and time range shown in the numbered menu.
type SlotOption struct {
	ID   string
	Date string
	Time string
}

// CatalogService serves center/clinic/slot lookups through the cache layer so
// repeated menu fetches hit the backing store at most once per TTL window.
type CatalogService struct {
	store   repository.CatalogStore
	centers *cache.Cache[[]string]
	clinics *cache.Cache[[]string]
	slots   *cache.Cache[[]SlotOption]
	loc     *time.Location
	timeout time.Duration
	log     zerolog.Logger
}

func NewCatalogService(store repository.CatalogStore, ttl, timeout time.Duration, loc *time.Location, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:   store,
		centers: cache.New[[]string](ttl),
		clinics: cache.New[[]string](ttl),
		slots:   cache.New[[]SlotOption](ttl),
		loc:     loc,
		timeout: timeout,
		log:     log.With().Str("component", "catalog").Logger(),
	}
}

// ListCenters returns the ordered center names shown in the first menu.
func (s *CatalogService) ListCenters(ctx context.Context) ([]string, error) {
	return s.centers.GetOrLoad("centers", func() ([]string, error) {
		return runWithTimeout(s.timeout, func() ([]string, error) {
			s.log.Debug().Msg("loading centers from store")
			centers, err := s.store.ListCenters(ctx)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(centers))
			for _, c := range centers {
				names = append(names, c.Name)
			}
			return names, nil
		})
	})
}

// ListClinics returns the ordered clinic names for a center, resolving the
// center by the exact name the user was shown.
func (s *CatalogService) ListClinics(ctx context.Context, centerName string) ([]string, error) {
	return s.clinics.GetOrLoad("clinics:"+centerName, func() ([]string, error) {
		return runWithTimeout(s.timeout, func() ([]string, error) {
			s.log.Debug().Str("center", centerName).Msg("loading clinics from store")
			center, err := s.store.GetCenterByName(ctx, centerName)
			if err != nil {
				return nil, err
			}
			clinics, err := s.store.ListClinics(ctx, center.ID)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(clinics))
			for _, c := range clinics {
				names = append(names, c.Name)
			}
			return names, nil
		})
	})
}

// ListSlotsForTomorrow returns the available slots at a clinic on the next
// calendar date. The cache is keyed per (center, clinic) and may span dates,
// so results are re-filtered by tomorrow's date on every read.
func (s *CatalogService) ListSlotsForTomorrow(ctx context.Context, centerName, clinicName string) ([]SlotOption, error) {
	tomorrow := s.Tomorrow()

	slots, err := s.slots.GetOrLoad(centerName+"|"+clinicName, func() ([]SlotOption, error) {
		return runWithTimeout(s.timeout, func() ([]SlotOption, error) {
			s.log.Debug().Str("center", centerName).Str("clinic", clinicName).Msg("loading slots from store")
			center, err := s.store.GetCenterByName(ctx, centerName)
			if err != nil {
				return nil, err
			}
			clinic, err := s.store.GetClinicByName(ctx, center.ID, clinicName)
			if err != nil {
				return nil, err
			}
			slots, err := s.store.ListAvailableSlots(ctx, clinic.ID, tomorrow)
			if err != nil {
				return nil, err
			}
			options := make([]SlotOption, 0, len(slots))
			for _, slot := range slots {
				options = append(options, SlotOption{
					ID:   slot.ID,
					Date: slot.Date,
					Time: slot.TimeRange(),
				})
			}
			return options, nil
		})
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]SlotOption, 0, len(slots))
	for _, slot := range slots {
		if slot.Date == tomorrow {
			filtered = append(filtered, slot)
		}
	}
	return filtered, nil
}

// Tomorrow computes the next calendar date in the configured timezone.
func (s *CatalogService) Tomorrow() string {
	return time.Now().In(s.loc).AddDate(0, 0, 1).Format(model.DateLayout)
}

// InvalidateAll drops every cached lookup. Called after any write that could
// change catalog or availability data.
func (s *CatalogService) InvalidateAll() {
	s.centers.InvalidateAll()
	s.clinics.InvalidateAll()
	s.slots.InvalidateAll()
}
