package types

// ContainerType classifies the vessel a beer is served in. The zero value
// means the record has not been classified (stored as NULL).
type ContainerType string

// Recognized container classifications.
const (
	ContainerPint   ContainerType = "pint"
	ContainerTulip  ContainerType = "tulip"
	ContainerCan    ContainerType = "can"
	ContainerBottle ContainerType = "bottle"
	ContainerFlight ContainerType = "flight"
)

// ValidContainerType reports whether ct is one of the recognized
// classifications. The zero value is not valid; it stands for NULL.
func ValidContainerType(ct ContainerType) bool {
	switch ct {
	case ContainerPint, ContainerTulip, ContainerCan, ContainerBottle, ContainerFlight:
		return true
	}
	return false
}

// BeerRecord is one catalog entry, either still on offer or tasted in the
// current round. Descriptive fields come verbatim from the remote catalog;
// derived fields are computed locally and are nil/empty until populated by
// a pre-write calculation or a schema migration backfill.
type BeerRecord struct {
	ID              string `json:"id"`
	BrewName        string `json:"brew_name"`
	Brewer          string `json:"brewer"`
	BrewerLoc       string `json:"brewer_loc"`
	BrewStyle       string `json:"brew_style"`
	BrewContainer   string `json:"brew_container"`
	BrewDescription string `json:"brew_description"`
	// AddedDate is a string-encoded unix timestamp in seconds, kept in the
	// remote catalog's own encoding.
	AddedDate string `json:"added_date"`

	ContainerType        ContainerType `json:"container_type,omitempty"`
	ABV                  *float64      `json:"abv,omitempty"`
	EnrichmentConfidence *float64      `json:"enrichment_confidence,omitempty"`
	EnrichmentSource     string        `json:"enrichment_source,omitempty"`
}

// Recognized enrichment sources.
const (
	EnrichmentSourcePerplexity = "perplexity"
	EnrichmentSourceManual     = "manual"
)
