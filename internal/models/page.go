package models

// Page is the backend's paged list envelope
type Page[T any] struct {
	Content       []T   `json:"content" yaml:"content"`
	TotalElements int64 `json:"totalElements" yaml:"totalElements"`
	TotalPages    int   `json:"totalPages" yaml:"totalPages"`
	Number        int   `json:"number" yaml:"number"`
	Size          int   `json:"size" yaml:"size"`
	First         bool  `json:"first" yaml:"first"`
	Last          bool  `json:"last" yaml:"last"`
	Empty         bool  `json:"empty" yaml:"empty"`
}

// HasNext reports whether another page follows this one
func (p *Page[T]) HasNext() bool {
	return !p.Last && p.Number+1 < p.TotalPages
}
