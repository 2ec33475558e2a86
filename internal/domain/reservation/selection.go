package reservation

import "time"

// ChooseSlot returns the first available slot matching the preferred times in
// order, compared at minute granularity. With no preferences it returns the
// earliest slot.
func ChooseSlot(preferred []time.Time, available []ProviderSlot) (ProviderSlot, bool) {
	if len(available) == 0 {
		return ProviderSlot{}, false
	}
	if len(preferred) == 0 {
		best := available[0]
		for _, s := range available[1:] {
			if s.Start.Before(best.Start) {
				best = s
			}
		}
		return best, true
	}

	byMinute := make(map[int64]ProviderSlot, len(available))
	for _, s := range available {
		k := s.Start.Truncate(time.Minute).Unix()
		if existing, ok := byMinute[k]; ok && !s.Start.Before(existing.Start) {
			continue
		}
		byMinute[k] = s
	}
	for _, p := range preferred {
		if s, ok := byMinute[p.Truncate(time.Minute).Unix()]; ok {
			return s, true
		}
	}
	return ProviderSlot{}, false
}

// SlotTime formats a slot start as HH:MM in its own location.
func SlotTime(s ProviderSlot) string {
	return s.Start.Format("15:04")
}
