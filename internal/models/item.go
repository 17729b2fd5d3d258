package models

// Item represents a purchasable entry within a group. Items have no
// lifecycle outside their parent group.
type Item struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	IsBought bool   `json:"isBought"`
}
