package enums

import "fmt"

// CatalogSortField names the columns a catalog listing can be ordered by.
type CatalogSortField string

const (
	CatalogSortPrice     CatalogSortField = "price"
	CatalogSortName      CatalogSortField = "name"
	CatalogSortCreatedAt CatalogSortField = "createdAt"
)

var validCatalogSortFields = []CatalogSortField{
	CatalogSortPrice,
	CatalogSortName,
	CatalogSortCreatedAt,
}

// IsValid reports whether the value matches the canonical sort field enum.
func (f CatalogSortField) IsValid() bool {
	for _, candidate := range validCatalogSortFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseCatalogSortField converts the raw string to CatalogSortField.
func ParseCatalogSortField(value string) (CatalogSortField, error) {
	for _, candidate := range validCatalogSortFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort field %q", value)
}

// SortOrder is the direction applied to the catalog sort field.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// IsValid reports whether the value matches the canonical sort order enum.
func (o SortOrder) IsValid() bool {
	return o == SortOrderAsc || o == SortOrderDesc
}

// ParseSortOrder converts the raw string to SortOrder.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case SortOrderAsc:
		return SortOrderAsc, nil
	case SortOrderDesc:
		return SortOrderDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
