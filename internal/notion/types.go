package notion

// Object is a raw Notion object (page, block, database) decoded as generic JSON.
type Object map[string]any

// ID returns the object's id, or "" when absent.
func (o Object) ID() string {
	return StringOr(o, "", "id")
}

// Type returns the object's type discriminator, or "" when absent.
func (o Object) Type() string {
	return StringOr(o, "", "type")
}

// ListResponse is the paginated envelope shared by queries and block listings.
type ListResponse struct {
	Results    []Object `json:"results"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor"`
}

// QueryRequest is the body of a database query.
type QueryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	Sorts       []Sort `json:"sorts,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// Sort orders query results by a property.
type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

const (
	Ascending  = "ascending"
	Descending = "descending"
)

// PropertyFilter matches a single property. Exactly one condition should be set.
type PropertyFilter struct {
	Property string             `json:"property"`
	Checkbox *CheckboxCondition `json:"checkbox,omitempty"`
	RichText *TextCondition     `json:"rich_text,omitempty"`
}

// AndFilter matches when every nested filter matches.
type AndFilter struct {
	And []PropertyFilter `json:"and"`
}

type CheckboxCondition struct {
	Equals bool `json:"equals"`
}

type TextCondition struct {
	Equals string `json:"equals"`
}

// CheckboxEquals builds a checkbox filter.
func CheckboxEquals(property string, v bool) PropertyFilter {
	return PropertyFilter{Property: property, Checkbox: &CheckboxCondition{Equals: v}}
}

// RichTextEquals builds an exact, case-sensitive text filter.
func RichTextEquals(property, v string) PropertyFilter {
	return PropertyFilter{Property: property, RichText: &TextCondition{Equals: v}}
}
