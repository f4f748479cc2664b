// Package expense validates and submits new group expenses and lists the
// expenses already logged in a group.
package expense

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/money"
)

const minDescriptionLength = 3

// User-facing messages.
const (
	MsgDescriptionTooShort = "Please enter a description of at least 3 characters."
	MsgAmountRequired      = "Please enter the total amount."
	MsgAmountInvalid       = "Please enter a valid amount."
	MsgAmountNotPositive   = "Amount must be greater than zero."
	MsgPayerRequired       = "Please select who paid."
	MsgPayerNotMember      = "The selected payer is not a member of this group."
	MsgTypeRequired        = "Please select how to split the expense."
	MsgParticipantRequired = "Please select at least one person to split with."
	MsgSubmitFailed        = "Failed to add expense. Please try again."
	MsgAdded               = "Expense added successfully!"
)

// ShareInput is the raw share entered for one participant.
type ShareInput struct {
	UserID int64
	Name   string
	Value  string
}

// Validate checks the expense header fields in order and returns the parsed
// amount. Fractional amounts are truncated to whole currency units.
func Validate(description, amount string, payerID int64, expenseType models.ExpenseType, participantIDs []int64, roster []models.User) (int64, error) {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < minDescriptionLength {
		return 0, apperrors.Validation("description", MsgDescriptionTooShort)
	}

	if strings.TrimSpace(amount) == "" {
		return 0, apperrors.Validation("amount", MsgAmountRequired)
	}
	total, err := money.Parse(amount)
	switch {
	case errors.Is(err, money.ErrNotPositive):
		return 0, apperrors.Validation("amount", MsgAmountNotPositive)
	case err != nil:
		return 0, apperrors.Validation("amount", MsgAmountInvalid)
	}

	if payerID == 0 {
		return 0, apperrors.Validation("payer", MsgPayerRequired)
	}
	if !inRoster(payerID, roster) {
		return 0, apperrors.Validation("payer", MsgPayerNotMember)
	}

	if !expenseType.Valid() {
		return 0, apperrors.Validation("expense_type", MsgTypeRequired)
	}

	if len(participantIDs) == 0 {
		return 0, apperrors.Validation("participants", MsgParticipantRequired)
	}
	return total, nil
}

// ValidateShares parses the per-participant inputs and checks them against
// the split policy. Shares must be whole numbers; unlike the amount they are
// never truncated. EQUAL splits ignore the inputs; the backend distributes
// the amount and every share is sent as zero.
func ValidateShares(expenseType models.ExpenseType, total int64, inputs []ShareInput) ([]models.UserShare, error) {
	shares := make([]models.UserShare, 0, len(inputs))
	if expenseType == models.ExpenseEqual {
		for _, in := range inputs {
			shares = append(shares, models.UserShare{UserID: in.UserID})
		}
		return shares, nil
	}

	sum := decimal.Zero
	for _, in := range inputs {
		v, err := money.ParseWhole(in.Value)
		if err != nil {
			return nil, apperrors.Validation("shares", fmt.Sprintf("Please enter a valid share for %s.", shareName(in)))
		}
		sum = sum.Add(decimal.NewFromInt(v))
		shares = append(shares, models.UserShare{UserID: in.UserID, ShareAmount: v})
	}

	// sum can exceed int64, so it is rendered from the decimal.
	switch expenseType {
	case models.ExpenseExact:
		if !sum.Equal(decimal.NewFromInt(total)) {
			return nil, apperrors.Validation("shares", fmt.Sprintf(
				"The shares add up to %s%s but the total amount is %s.", money.Symbol, sum.StringFixed(2), money.Format(total)))
		}
	case models.ExpensePercentage:
		if !sum.Equal(decimal.NewFromInt(100)) {
			return nil, apperrors.Validation("shares", fmt.Sprintf(
				"The percentages add up to %s%% but must total 100%%.", sum.String()))
		}
	default:
		return nil, apperrors.Validation("expense_type", MsgTypeRequired)
	}
	return shares, nil
}

func shareName(in ShareInput) string {
	if in.Name != "" {
		return in.Name
	}
	return fmt.Sprintf("User %d", in.UserID)
}

func inRoster(id int64, roster []models.User) bool {
	for _, u := range roster {
		if u.ID == id {
			return true
		}
	}
	return false
}
