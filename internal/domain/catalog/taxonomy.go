package catalog

// Taxonomy names used by the replica. Attribute taxonomies are dynamic
// and use the AttributeTaxonomyPrefix.
const (
	TaxonomyCategory = "product_cat"
	TaxonomyTag      = "product_tag"
	TaxonomyBrand    = "product_brand"
	TaxonomyLocation = "product_location"

	// AttributeTaxonomyPrefix prefixes dynamic attribute taxonomies,
	// e.g. "pa_color", "pa_size".
	AttributeTaxonomyPrefix = "pa_"
)

// AttributeTaxonomy builds the taxonomy name for a product attribute slug.
func AttributeTaxonomy(attribute string) string {
	return AttributeTaxonomyPrefix + attribute
}

// AttributeSlug extracts the attribute slug from an attribute taxonomy
// name. It reports false for fixed taxonomies.
func AttributeSlug(taxonomy string) (string, bool) {
	if len(taxonomy) <= len(AttributeTaxonomyPrefix) ||
		taxonomy[:len(AttributeTaxonomyPrefix)] != AttributeTaxonomyPrefix {
		return "", false
	}
	return taxonomy[len(AttributeTaxonomyPrefix):], true
}

// Term is a single value within a taxonomy (e.g. "Electronics").
type Term struct {
	ID   int64
	Name string
	Slug string
}

// TermTaxonomy binds a term to a named taxonomy. Its ID is the replica's
// own identifier for the (term, taxonomy) pair; it is resolved by lookup
// and never assumed equal to the term ID.
type TermTaxonomy struct {
	ID       int64
	TermID   int64
	Taxonomy string
	ParentID int64
	Count    int64
}

// TermRelationship links an item to a term-taxonomy row. For a given
// (item, taxonomy) the set of relationships after a sync equals exactly
// the set supplied by the source.
type TermRelationship struct {
	ItemID         int64
	TermTaxonomyID int64
}

// TermRef is a term as it appears in an upstream snapshot: the upstream
// term id plus display data, grouped under its taxonomy by ItemSnapshot.
type TermRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
