package insurance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	// CommandTypeBuy purchases or tops up a policy for the caller.
	CommandTypeBuy command.Type = "insurance.buy"
	// CommandTypeWithdraw pays out the caller's credited balance.
	CommandTypeWithdraw command.Type = "insurance.withdraw"
)

const (
	// Cap is the maximum accumulated premium per policy. Amounts that would
	// push the total past the cap are rejected outright, never truncated.
	Cap = 1 * store.Token
	// PayoutNumerator and PayoutDenominator pin the credited payout at 3/2
	// of the premium, kept as integer math to avoid rounding drift.
	PayoutNumerator   = 3
	PayoutDenominator = 2
)

const (
	// EntityType is the entity addressing used by policy events.
	EntityType = "policy"
	// PassengerEntityType is the entity addressing used by payout events.
	PassengerEntityType = "passenger"
)

// Payout returns the credited amount for a premium.
func Payout(premium uint64) uint64 {
	return premium * PayoutNumerator / PayoutDenominator
}

// Decide returns the decision for an insurance command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == CommandTypeBuy {
		var payload BuyPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		flightKey := strings.TrimSpace(payload.FlightKey)
		if flightKey == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "flight key is required",
			})
		}
		if payload.Amount == 0 {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "premium amount is required",
			})
		}
		if !state.FlightExists || !state.Flight.IsRegistered {
			return command.Reject(command.Rejection{
				Code:    errors.CodeUnknownFlight,
				Message: "flight is not registered",
			})
		}
		// Sale closes once the flight is finalized, to block post-hoc bets.
		if state.Flight.Status.IsFinal() {
			return command.Reject(command.Rejection{
				Code:    errors.CodePolicyClosed,
				Message: "flight status is already finalized",
			})
		}
		if state.Policy.Settled {
			return command.Reject(command.Rejection{
				Code:    errors.CodePolicyClosed,
				Message: "policy is already settled",
			})
		}
		if state.Policy.Premium+payload.Amount > Cap {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInsuranceCapExceeded,
				Message: "accumulated premium exceeds the insurance cap",
			})
		}

		payloadJSON, _ := json.Marshal(BuyPayload{
			FlightKey:   flightKey,
			PassengerID: cmd.CallerID,
			Amount:      payload.Amount,
		})
		evt := command.NewEvent(cmd, event.TypeInsuranceBought, EntityType, flightKey+"/"+cmd.CallerID, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	if cmd.Type == CommandTypeWithdraw {
		if state.CreditBalance == 0 {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNoCredit,
				Message: "no credited balance to withdraw",
			})
		}

		payloadJSON, _ := json.Marshal(WithdrawPayload{
			PassengerID: cmd.CallerID,
			Amount:      state.CreditBalance,
		})
		evt := command.NewEvent(cmd, event.TypePassengerPaid, PassengerEntityType, cmd.CallerID, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	return command.Reject(command.Rejection{
		Code:    errors.CodeInvalidCommand,
		Message: "unknown insurance command",
	})
}
