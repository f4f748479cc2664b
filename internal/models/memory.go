package models

// Memory is a photo attached to a group. It has no relation to financial data.
type Memory struct {
	ID int64 `json:"id"`

	// ImageURL is the public location of the stored image.
	ImageURL string `json:"imageUrl"`

	GroupID int64 `json:"groupId"`

	Filename string `json:"filename,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
}
