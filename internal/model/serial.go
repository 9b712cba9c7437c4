package model

import "time"

// SerialRecord claims a serial for one variant, permanently until purged.
type SerialRecord struct {
	Serial    string    `db:"serial" json:"serial"`
	VariantID string    `db:"variant_id" json:"variant_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
