package types

// Category represents channel categories
type Category string

const (
	CategoryStorage Category = "storage"
	CategoryPicker  Category = "picker"
)

// Service describes a method channel and the methods it answers
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Methods      []Method `json:"methods"`
}

// Method represents a callable channel method
type Method struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
	Errors      []string    `json:"errors,omitempty"`
}

// Parameter represents a method argument
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}
