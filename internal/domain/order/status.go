package order

import (
	"github.com/go-faster/errors"

	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Tier is the lifecycle stage of an order. Every kind of order walks the same
// tiers; only the status label shown at each tier differs.
type Tier int

const (
	// TierDraft is an order that has not been placed yet.
	TierDraft Tier = 0
	// TierPending is a placed order waiting for payment.
	TierPending Tier = 100
	// TierAwaitingFulfillment is a paid order waiting to be shipped or sent.
	TierAwaitingFulfillment Tier = 200
	// TierFulfilled is an order on its way to the customer.
	TierFulfilled Tier = 300
	// TierCompleted is an order the customer has received.
	TierCompleted Tier = 400
)

// Status is the label an order shows at its current tier.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusNotShipped        Status = "NOT_SHIPPED"
	StatusUnsent            Status = "UNSENT"
	StatusPendingActivation Status = "PENDING_ACTIVATION"
	StatusShipped           Status = "SHIPPED"
	StatusSent              Status = "SENT"
	StatusDelivered         Status = "DELIVERED"
	StatusRedeemed          Status = "REDEEMED"
	StatusActivated         Status = "ACTIVATED"
)

var statusTiers = map[Status]Tier{
	StatusPending:           TierPending,
	StatusNotShipped:        TierAwaitingFulfillment,
	StatusUnsent:            TierAwaitingFulfillment,
	StatusPendingActivation: TierAwaitingFulfillment,
	StatusShipped:           TierFulfilled,
	StatusSent:              TierFulfilled,
	StatusDelivered:         TierCompleted,
	StatusRedeemed:          TierCompleted,
	StatusActivated:         TierCompleted,
}

// Tier returns the lifecycle stage of s. The empty status is TierDraft.
func (s Status) Tier() Tier {
	return statusTiers[s]
}

// Code returns the numeric status code (100, 200, 300, 400), or 0 for a draft.
func (s Status) Code() int {
	return int(s.Tier())
}

func (s Status) String() string { return string(s) }

// Kind is the variant of an order, determined by what it delivers.
type Kind string

const (
	KindPhysical     Kind = "PHYSICAL"
	KindDigital      Kind = "DIGITAL"
	KindSubscription Kind = "SUBSCRIPTION"
)

func (k Kind) String() string { return string(k) }

// ParseKind converts s to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPhysical, KindDigital, KindSubscription:
		return k, nil
	default:
		return "", errors.Errorf("unknown order kind %q", s)
	}
}

// variant holds everything that differs between kinds of order.
type variant struct {
	labels     map[Tier]Status
	accepts    func(product.Type) bool
	wrongType  string
	singleItem string
	fees       func(o *Order, rates FeeCalculator) Fees
}

var variants = map[Kind]variant{
	KindPhysical: {
		labels: map[Tier]Status{
			TierPending:             StatusPending,
			TierAwaitingFulfillment: StatusNotShipped,
			TierFulfilled:           StatusShipped,
			TierCompleted:           StatusDelivered,
		},
		accepts:   product.Type.IsPhysical,
		wrongType: "A Physical Order may only contain Physical items",
		fees:      physicalFees,
	},
	KindDigital: {
		labels: map[Tier]Status{
			TierPending:             StatusPending,
			TierAwaitingFulfillment: StatusUnsent,
			TierFulfilled:           StatusSent,
			TierCompleted:           StatusRedeemed,
		},
		accepts:   func(t product.Type) bool { return t == product.Digital },
		wrongType: "A Digital Order may only contain Digital items",
		fees:      digitalFees,
	},
	// Activation is completion for a subscription, so it has no fulfilled tier.
	KindSubscription: {
		labels: map[Tier]Status{
			TierPending:             StatusPending,
			TierAwaitingFulfillment: StatusPendingActivation,
			TierCompleted:           StatusActivated,
		},
		accepts:    func(t product.Type) bool { return t == product.Subscription },
		wrongType:  "A Membership Order may only contain Membership items",
		singleItem: "A Membership Order may only contain one Membership subscription",
		fees:       func(*Order, FeeCalculator) Fees { return Fees{} },
	},
}

// next returns the label of the first tier above from.
func (v variant) next(from Tier) Status {
	for t := from + 100; t <= TierCompleted; t += 100 {
		if s, ok := v.labels[t]; ok {
			return s
		}
	}
	return ""
}

// knows reports whether s is a label this variant can hold.
func (v variant) knows(s Status) bool {
	if s == "" {
		return true
	}
	label, ok := v.labels[s.Tier()]
	return ok && label == s
}

// check validates the items an order of this variant is built from.
func (v variant) check(items []product.Item) error {
	for _, it := range items {
		if !v.accepts(it.Product().Type()) {
			return errs.Invariant(v.wrongType)
		}
	}
	if v.singleItem != "" && len(items) != 1 {
		return errs.Invariant(v.singleItem)
	}
	return nil
}
