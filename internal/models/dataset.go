package models

import "time"

// Column describes one column of an ingested dataset.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Dataset is the handle for an ingested data file. Rows live in the document
// store under CollectionName; the record itself holds no row data.
type Dataset struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	OwnerID        int64     `json:"owner_id"`
	SessionID      int64     `json:"session_id,omitempty"`
	CollectionName string    `json:"collection_name"`
	Columns        []Column  `json:"columns"`
	RowCount       int64     `json:"row_count"`
	CreatedAt      time.Time `json:"created_at"`
}
