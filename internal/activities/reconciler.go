package activities

// Merge folds a freshly fetched batch into an existing dataset. Existing
// records always win over incoming duplicates, so merging the same batch
// twice yields the same dataset as merging it once. Both inputs may be dirty
// (contain duplicate IDs themselves), the result never is.
func Merge(existing Dataset, incoming []Activity) Dataset {
	seen := existing.IDSet()

	merged := make([]Activity, 0, len(existing.Activities)+len(incoming))
	merged = append(merged, existing.Activities...)

	for _, act := range incoming {
		if _, ok := seen[act.ID]; ok {
			continue
		}
		seen[act.ID] = struct{}{}
		merged = append(merged, act)
	}

	return Dataset{Activities: dedupKeepFirst(merged)}
}

// dedupKeepFirst drops every record whose ID was already seen earlier in the
// slice. Guards against a pre-existing dataset that was edited by hand.
func dedupKeepFirst(activities []Activity) []Activity {
	seen := make(map[int64]struct{}, len(activities))
	deduped := make([]Activity, 0, len(activities))
	for _, act := range activities {
		if _, ok := seen[act.ID]; ok {
			continue
		}
		seen[act.ID] = struct{}{}
		deduped = append(deduped, act)
	}
	return deduped
}
