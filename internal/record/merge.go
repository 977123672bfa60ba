package record

// Merge resolves one record from the entry already present in the loaded
// document, the record freshly built from remote lookups, and the cached
// record. Any of the three may be the zero Record.
//
// Precedence by field group:
//
//	narrative (Summary, Description):    existing > fresh > cached
//	asset local references:              existing > cached > fresh
//	everything else, remote asset refs:  fresh > cached > existing
//
// An empty value never displaces a non-empty one, so a hand-edited summary in
// the document survives a lookup that returns none. Checking that an existing
// local asset still exists on disk is the caller's responsibility.
func Merge(existing, fresh, cached Record) Record {
	out := Record{
		Title:       catalog(existing.Title, fresh.Title, cached.Title),
		Hash:        catalog(existing.Hash, fresh.Hash, cached.Hash),
		File:        catalog(existing.File, fresh.File, cached.File),
		Rating:      catalog(existing.Rating, fresh.Rating, cached.Rating),
		Release:     catalog(existing.Release, fresh.Release, cached.Release),
		Developers:  catalogList(existing.Developers, fresh.Developers, cached.Developers),
		Publishers:  catalogList(existing.Publishers, fresh.Publishers, cached.Publishers),
		Genre:       catalog(existing.Genre, fresh.Genre, cached.Genre),
		Players:     catalog(existing.Players, fresh.Players, cached.Players),
		Summary:     curated(existing.Summary, fresh.Summary, cached.Summary),
		Description: curated(existing.Description, fresh.Description, cached.Description),
		SourceLinks: catalogList(existing.SourceLinks, fresh.SourceLinks, cached.SourceLinks),
		SourceTag:   catalog(existing.SourceTag, fresh.SourceTag, cached.SourceTag),
	}
	for _, slot := range Slots {
		out.Assets[slot] = Asset{
			Remote: catalog(existing.Assets[slot].Remote, fresh.Assets[slot].Remote, cached.Assets[slot].Remote),
			Local:  firstNonEmpty(existing.Assets[slot].Local, cached.Assets[slot].Local, fresh.Assets[slot].Local),
		}
	}
	return out
}

// FillEmpty copies each narrative value from candidate into dst only where
// dst is still empty. It returns true if anything changed.
func FillEmpty(dst *Record, summary, description string) bool {
	changed := false
	if dst.Summary == "" && summary != "" {
		dst.Summary = summary
		changed = true
	}
	if dst.Description == "" && description != "" {
		dst.Description = description
		changed = true
	}
	return changed
}

func curated(existing, fresh, cached string) string {
	return firstNonEmpty(existing, fresh, cached)
}

func catalog(existing, fresh, cached string) string {
	return firstNonEmpty(fresh, cached, existing)
}

func catalogList(existing, fresh, cached []string) []string {
	for _, candidate := range [][]string{fresh, cached, existing} {
		if len(candidate) > 0 {
			return cloneStrings(candidate)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
