package models

import (
	"fmt"
	"strings"
	"time"
)

// ItemStatus is the approval state of an item.
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "Pending"
	ItemStatusApproved ItemStatus = "Approved"
	ItemStatusRejected ItemStatus = "Rejected"
)

// ParseItemStatus matches a status case-insensitively.
func ParseItemStatus(raw string) (ItemStatus, error) {
	for _, s := range []ItemStatus{ItemStatusPending, ItemStatusApproved, ItemStatusRejected} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown item status %q", raw)
}

// Terminal reports whether no further transition is possible.
func (s ItemStatus) Terminal() bool {
	return s == ItemStatusApproved || s == ItemStatusRejected
}

// ItemAction is a reviewer decision applied to an item.
type ItemAction string

const (
	ItemActionApprove ItemAction = "approve"
	ItemActionReject  ItemAction = "reject"
)

type transitionKey struct {
	from   ItemStatus
	action ItemAction
}

// transitions lists every legal move. Anything absent is illegal.
var transitions = map[transitionKey]ItemStatus{
	{ItemStatusPending, ItemActionApprove}: ItemStatusApproved,
	{ItemStatusPending, ItemActionReject}:  ItemStatusRejected,
}

// NextStatus looks up the status reached by applying action in state from.
func NextStatus(from ItemStatus, action ItemAction) (ItemStatus, bool) {
	to, ok := transitions[transitionKey{from, action}]
	return to, ok
}

// ActionFor returns the action that leads to target, if any.
func ActionFor(target ItemStatus) (ItemAction, bool) {
	switch target {
	case ItemStatusApproved:
		return ItemActionApprove, true
	case ItemStatusRejected:
		return ItemActionReject, true
	}
	return "", false
}

// Field limits.
const (
	ItemNameMaxLength        = 200
	ItemDescriptionMaxLength = 1000
)

// Item is a registered entry awaiting or past review.
type Item struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Status      ItemStatus `db:"status" json:"status"`
	ImageKey    *string    `db:"image_key" json:"-"`
	ImageURL    *string    `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// ItemFilter constrains listing queries.
type ItemFilter struct {
	Status ItemStatus
	Limit  int
	Offset int
}

// ItemStatusCounts is a per-status tally of items.
type ItemStatusCounts struct {
	Pending  int `db:"pending" json:"pending"`
	Approved int `db:"approved" json:"approved"`
	Rejected int `db:"rejected" json:"rejected"`
}

// Total sums every status.
func (c ItemStatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}
