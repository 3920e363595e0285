package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/pkg/utils"
)

// Provider disburses money to a beneficiary through one payment channel. The
// external processor protocol is out of scope; implementations return the
// opaque transaction reference the channel assigned.
type Provider interface {
	Method() string
	Disburse(ctx context.Context, beneficiary string, amount decimal.Decimal) (string, error)
}

// Registry maps payment methods to providers. Lookup is by explicit method
// key, never by reflection.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Method()] = p
	}
	return r
}

// Get returns the provider for a method.
func (r *Registry) Get(method string) (Provider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, fmt.Errorf("no payment provider registered for method %q", method)
	}
	return p, nil
}

// DefaultRegistry wires the three supported channels.
func DefaultRegistry() *Registry {
	return NewRegistry(
		cashProvider{},
		transferProvider{},
		mobileMoneyProvider{},
	)
}

// cashProvider records cash handed over at a group meeting.
type cashProvider struct{}

func (cashProvider) Method() string { return domain.PaymentMethodCash }

func (cashProvider) Disburse(ctx context.Context, beneficiary string, amount decimal.Decimal) (string, error) {
	return utils.GenerateTransactionReference(), nil
}

// transferProvider disburses via bank transfer.
type transferProvider struct{}

func (transferProvider) Method() string { return domain.PaymentMethodTransfer }

func (transferProvider) Disburse(ctx context.Context, beneficiary string, amount decimal.Decimal) (string, error) {
	return utils.GenerateTransactionReference(), nil
}

// mobileMoneyProvider disburses via mobile money.
type mobileMoneyProvider struct{}

func (mobileMoneyProvider) Method() string { return domain.PaymentMethodMobileMoney }

func (mobileMoneyProvider) Disburse(ctx context.Context, beneficiary string, amount decimal.Decimal) (string, error) {
	return utils.GenerateTransactionReference(), nil
}
