package normalize

import (
	"sort"
	"strings"

	"profile-ingest/core/reconcile"
	"profile-ingest/core/utils"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// Raw keys tried, in order, for the identity key.
var identityKeys = []string{"id", "public_identifier", "profile_id"}

// Raw keys holding a single asset URL, by category.
var assetKeys = []struct {
	key      string
	category reconcile.AssetCategory
}{
	{"profile_picture_url", reconcile.CategoryProfilePhoto},
	{"background_picture_url", reconcile.CategoryBackground},
	{"company_logo_url", reconcile.CategoryCompanyLogo},
}

// Normalizer maps scraped profile payloads onto reconcile.NormalizedRecord.
// Strings are trimmed and NFC normalized so that equivalent Unicode spellings
// fingerprint identically.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize implements reconcile.Normalizer. Missing fields take their zero value
// and lists are never nil. A record without an identity key is rejected with
// reconcile.ErrInvalidRecord. Asset references with an unknown category are
// dropped and only the first reference of each category is kept, in the order
// Assets discovers them; the result is sorted by category.
func (n *Normalizer) Normalize(raw reconcile.RawRecord) (reconcile.NormalizedRecord, error) {
	if raw == nil {
		return reconcile.NormalizedRecord{}, eris.Wrap(reconcile.ErrInvalidRecord, "normalize: nil record")
	}
	key := IdentityKey(raw)
	if key == "" {
		return reconcile.NormalizedRecord{}, eris.Wrap(reconcile.ErrInvalidRecord, "normalize: record has no identity key")
	}

	rec := reconcile.NormalizedRecord{
		IdentityKey: key,
		Name:        Name(raw),
		Headline:    Text(raw["headline"]),
		Location:    Text(raw["location"]),
		Summary:     firstText(raw, "summary", "about"),
		Experience:  experience(raw["experience"]),
		Education:   education(raw["education"]),
		Skills:      skills(raw["skills"]),
		Connections: utils.ToInt(raw["connections"]),
		Assets:      []reconcile.AssetRef{},
	}

	// One current version per category, so one reference per category.
	seen := make(map[reconcile.AssetCategory]bool)
	for _, ref := range Assets(raw) {
		if !ref.Category.Valid() || seen[ref.Category] {
			continue
		}
		seen[ref.Category] = true
		rec.Assets = append(rec.Assets, ref)
	}
	sort.Slice(rec.Assets, func(i, j int) bool {
		return rec.Assets[i].Category < rec.Assets[j].Category
	})

	return rec, nil
}

// Text trims and NFC normalizes v.
func Text(v any) string {
	return norm.NFC.String(strings.TrimSpace(utils.ToString(v)))
}

func firstText(raw reconcile.RawRecord, keys ...string) string {
	for _, k := range keys {
		if s := Text(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

// IdentityKey returns the first non-empty identity field of raw.
func IdentityKey(raw reconcile.RawRecord) string {
	return firstText(raw, identityKeys...)
}

// Name returns raw's name, falling back to first_name and last_name.
func Name(raw reconcile.RawRecord) string {
	if name := Text(raw["name"]); name != "" {
		return name
	}
	return strings.TrimSpace(Text(raw["first_name"]) + " " + Text(raw["last_name"]))
}

// Assets lists every asset reference found in raw, including unknown categories,
// in discovery order.
func Assets(raw reconcile.RawRecord) []reconcile.AssetRef {
	var refs []reconcile.AssetRef
	for _, ak := range assetKeys {
		if url := Text(raw[ak.key]); url != "" {
			refs = append(refs, reconcile.AssetRef{URL: url, Category: ak.category})
		}
	}
	for _, item := range utils.ToSlice(raw["images"]) {
		m := utils.ToMap(item)
		if m == nil {
			continue
		}
		url := Text(m["url"])
		if url == "" {
			continue
		}
		refs = append(refs, reconcile.AssetRef{
			URL:      url,
			Category: reconcile.AssetCategory(strings.ToLower(Text(m["category"]))),
		})
	}
	return refs
}

func experience(v any) []reconcile.Experience {
	out := []reconcile.Experience{}
	for _, item := range utils.ToSlice(v) {
		m := utils.ToMap(item)
		if m == nil {
			continue
		}
		out = append(out, reconcile.Experience{
			Title:       Text(m["title"]),
			Company:     firstText(m, "company", "company_name"),
			Location:    Text(m["location"]),
			StartDate:   Text(m["start_date"]),
			EndDate:     Text(m["end_date"]),
			Description: Text(m["description"]),
		})
	}
	return out
}

func education(v any) []reconcile.Education {
	out := []reconcile.Education{}
	for _, item := range utils.ToSlice(v) {
		m := utils.ToMap(item)
		if m == nil {
			continue
		}
		out = append(out, reconcile.Education{
			School:    firstText(m, "school", "school_name"),
			Degree:    firstText(m, "degree", "degree_name"),
			Field:     firstText(m, "field", "field_of_study"),
			StartDate: Text(m["start_date"]),
			EndDate:   Text(m["end_date"]),
		})
	}
	return out
}

func skills(v any) []string {
	out := []string{}
	for _, item := range utils.ToSlice(v) {
		var s string
		if m := utils.ToMap(item); m != nil {
			s = Text(m["name"])
		} else {
			s = Text(item)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
