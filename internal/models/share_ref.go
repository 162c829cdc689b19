package models

import "fmt"

// ShareType tags which table a ShareRef points into
type ShareType string

const (
	ShareTypeText ShareType = "text_share"
	ShareTypeFood ShareType = "food_log"
)

// ParseShareType accepts only the two known share types
func ParseShareType(s string) (ShareType, error) {
	switch ShareType(s) {
	case ShareTypeText, ShareTypeFood:
		return ShareType(s), nil
	}
	return "", fmt.Errorf("invalid share_type %q", s)
}

// ShareRef identifies either a text share or a food log. Storage keeps the
// two targets in separate nullable foreign keys; use Columns to map.
type ShareRef struct {
	Type ShareType `json:"share_type"`
	ID   string    `json:"share_id"`
}

// TextShareRef references a text share
func TextShareRef(id string) ShareRef { return ShareRef{Type: ShareTypeText, ID: id} }

// FoodLogRef references a food log
func FoodLogRef(id string) ShareRef { return ShareRef{Type: ShareTypeFood, ID: id} }

// Columns returns the (text_share_id, food_log_id) pair with exactly one set
func (r ShareRef) Columns() (textShareID, foodLogID *string) {
	id := r.ID
	if r.Type == ShareTypeFood {
		return nil, &id
	}
	return &id, nil
}

// String renders the ref as "type:id"
func (r ShareRef) String() string {
	return string(r.Type) + ":" + r.ID
}
