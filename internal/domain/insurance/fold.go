package insurance

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// Apply folds one insurance event into the store.
func Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	switch evt.Type {
	case event.TypeInsuranceBought:
		var payload BuyPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetPolicy(ctx, payload.FlightKey, payload.PassengerID)
		if errors.Is(err, store.ErrNotFound) {
			rec = store.PolicyRecord{
				FlightKey:   payload.FlightKey,
				PassengerID: payload.PassengerID,
				CreatedAt:   evt.Timestamp,
			}
		} else if err != nil {
			return err
		}
		rec.Premium += payload.Amount
		rec.UpdatedAt = evt.Timestamp
		if err := st.PutPolicy(ctx, writerID, rec); err != nil {
			return err
		}
		return st.CreditPool(ctx, writerID, payload.Amount)

	case event.TypeInsuranceCredited:
		var payload CreditedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetPolicy(ctx, payload.FlightKey, payload.PassengerID)
		if err != nil {
			return err
		}
		rec.Credited = payload.Amount
		rec.Settled = true
		rec.UpdatedAt = evt.Timestamp
		if err := st.PutPolicy(ctx, writerID, rec); err != nil {
			return err
		}
		balance, err := st.CreditBalance(ctx, payload.PassengerID)
		if err != nil {
			return err
		}
		return st.PutCreditBalance(ctx, writerID, payload.PassengerID, balance+payload.Amount)

	case event.TypePassengerPaid:
		var payload WithdrawPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		// Zero the balance before moving funds out of the pool.
		if err := st.PutCreditBalance(ctx, writerID, payload.PassengerID, 0); err != nil {
			return err
		}
		if err := st.DebitPool(ctx, writerID, payload.Amount); err != nil {
			return err
		}
		policies, err := st.ListPoliciesByPassenger(ctx, payload.PassengerID)
		if err != nil {
			return err
		}
		for _, policy := range policies {
			if policy.Settled && !policy.Paid {
				policy.Paid = true
				policy.UpdatedAt = evt.Timestamp
				if err := st.PutPolicy(ctx, writerID, policy); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return nil
}
