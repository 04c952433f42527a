package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/economy"
	"github.com/talgya/pubsim/internal/staff"
)

// Supplier names a supplier account for payments.
type Supplier string

const (
	SupplierWine Supplier = "wine"
	SupplierFood Supplier = "food"
)

func (s *Simulation) account(sup Supplier) *credit.SupplierAccount {
	switch sup {
	case SupplierWine:
		return s.Credit.Wine
	case SupplierFood:
		return s.Credit.Food
	default:
		return nil
	}
}

func pendingQty[T economy.Item](pending []economy.Delivery[T]) int {
	n := 0
	for _, d := range pending {
		n += d.Qty
	}
	return n
}

// BuyWine orders wine. While closed the order goes on the wine supplier
// account at today's deal; while open it is an emergency cash order that
// arrives a few rounds later and needs both managers on the roster.
func (s *Simulation) BuyWine(name string, qty int) (economy.Quote, error) {
	if s.GameOver {
		return economy.Quote{}, ErrGameOver
	}
	w, ok := economy.FindWine(s.WineCatalog, name)
	if !ok {
		return economy.Quote{}, fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	if qty <= 0 {
		return economy.Quote{}, credit.ErrInvalidAmount
	}
	if s.Wine.Free()-pendingQty(s.WineDeliveries) < qty {
		s.Log.Neg("stock", "No room on the rack for %d x %s.", qty, w.Name)
		return economy.Quote{}, ErrRackFull
	}
	trust := s.Credit.SupplierPriceMultiplier() * s.seasonalSupplierPrice()

	if s.NightOpen {
		if !s.Staff.Has(staff.RoleManager) || !s.Staff.Has(staff.RoleAssistantManager) {
			s.Log.Neg("stock", "Emergency restock needs a manager and an assistant manager on.")
			return economy.Quote{}, ErrNoEmergencyStaff
		}
		q := economy.EmergencyWineQuote(w, qty, trust, s.Weekend())
		if s.Cash+1e-9 < q.Total {
			s.Log.Neg("stock", "Emergency order of %s costs %.2f.", w.Name, q.Total)
			return q, ErrInsufficientCash
		}
		s.spend(q.Total)
		s.WineDeliveries = append(s.WineDeliveries, economy.Delivery[economy.Wine]{
			Item: w, Qty: qty, Round: s.Round + economy.EmergencyWineDelay, Cost: q.Total,
		})
		s.Log.Info("stock", "Emergency order: %d x %s for %.2f, due in %d rounds.", qty, w.Name, q.Total, economy.EmergencyWineDelay)
		return q, nil
	}

	q := economy.QuoteWine(w, qty, s.Reputation, s.Deal, trust)
	if err := s.Credit.ChargeSupplier(s.Credit.Wine, q.Total, s.PubLevel); err != nil {
		s.Log.Neg("stock", "Wine supplier refused %.2f: %v.", q.Total, err)
		return q, err
	}
	s.recordCost(q.Total)
	s.Wine.AddN(w, qty, s.DayCounter)
	s.Log.Info("stock", "Bought %d x %s for %.2f on account.", qty, w.Name, q.Total)
	return q, nil
}

// BuyFood orders kitchen stock. Mid-night orders need a head chef.
func (s *Simulation) BuyFood(name string, qty int) (economy.Quote, error) {
	if s.GameOver {
		return economy.Quote{}, ErrGameOver
	}
	f, ok := economy.FindFood(s.FoodCatalog, name)
	if !ok {
		return economy.Quote{}, fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	if qty <= 0 {
		return economy.Quote{}, credit.ErrInvalidAmount
	}
	if s.Food.Free()-pendingQty(s.FoodDeliveries) < qty {
		s.Log.Neg("stock", "No room in the kitchen for %d x %s.", qty, f.Name)
		return economy.Quote{}, ErrRackFull
	}
	trust := s.Credit.SupplierPriceMultiplier() * s.seasonalSupplierPrice()

	if s.NightOpen {
		if !s.Staff.Has(staff.RoleHeadChef) {
			s.Log.Neg("stock", "Emergency food orders need a head chef on.")
			return economy.Quote{}, ErrNoEmergencyStaff
		}
		q := economy.EmergencyFoodQuote(f, qty, trust, s.Weekend())
		if s.Cash+1e-9 < q.Total {
			s.Log.Neg("stock", "Emergency order of %s costs %.2f.", f.Name, q.Total)
			return q, ErrInsufficientCash
		}
		delay := economy.EmergencyFoodDelay
		if s.Weekend() {
			delay = economy.EmergencyFoodWeekendDelay
		}
		s.spend(q.Total)
		s.FoodDeliveries = append(s.FoodDeliveries, economy.Delivery[economy.Food]{
			Item: f, Qty: qty, Round: s.Round + delay, Cost: q.Total,
		})
		s.Log.Info("stock", "Emergency kitchen order: %d x %s for %.2f.", qty, f.Name, q.Total)
		return q, nil
	}

	q := economy.QuoteFood(f, qty, trust)
	if err := s.Credit.ChargeSupplier(s.Credit.Food, q.Total, s.PubLevel); err != nil {
		s.Log.Neg("stock", "Food supplier refused %.2f: %v.", q.Total, err)
		return q, err
	}
	s.recordCost(q.Total)
	s.Food.AddN(f, qty, s.DayCounter)
	s.Log.Info("stock", "Bought %d x %s for %.2f on account.", qty, f.Name, q.Total)
	return q, nil
}

// PaySupplier makes an ad-hoc payment to a supplier account from cash or a
// credit line.
func (s *Simulation) PaySupplier(sup Supplier, amount float64, source string) (credit.Receipt, error) {
	r, err := s.Credit.PaySupplier(s.account(sup), amount, credit.AdHoc, source, s.Cash)
	if err != nil {
		s.Log.Neg("credit", "Supplier payment failed: %v.", err)
		return r, err
	}
	s.payOut(r.CashSpent)
	s.Log.Info("credit", "Paid %.2f to %s.", r.Amount, r.Target)
	return r, nil
}

// PayLine makes an ad-hoc payment on a credit line.
func (s *Simulation) PayLine(id string, amount float64, source string) (credit.Receipt, error) {
	r, err := s.Credit.PayLine(id, amount, credit.AdHoc, source, s.Cash)
	if err != nil {
		s.Log.Neg("credit", "Payment failed: %v.", err)
		return r, err
	}
	s.payOut(r.CashSpent)
	s.Log.Info("credit", "Paid %.2f to %s.", r.Amount, r.Target)
	return r, nil
}

// RepayLine clears a credit line from cash.
func (s *Simulation) RepayLine(id string) (credit.Receipt, error) {
	r, err := s.Credit.RepayInFull(id, s.Cash)
	if err != nil {
		s.Log.Neg("credit", "Repayment failed: %v.", err)
		return r, err
	}
	s.payOut(r.CashSpent)
	s.Log.Pos("credit", "Cleared %s (%.2f).", r.Target, r.Amount)
	return r, nil
}

// OpenCreditLine applies to a bank.
func (s *Simulation) OpenCreditLine(bank credit.Bank) (*credit.Line, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	line, ok := s.Credit.OpenLine(bank, s.RNG)
	if !ok {
		s.Log.Neg("credit", "%s turned the application down.", bank)
		return nil, credit.ErrCreditUnavailable
	}
	s.Log.Pos("credit", "%s opened a line: limit %.0f at %.1f%%.", line.Lender, line.Limit, line.BaseAPR*100)
	return line, nil
}

// OpenShark borrows from the loan shark. It always costs credit score.
func (s *Simulation) OpenShark() (*credit.Line, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	line, ok := s.Credit.OpenShark(s.RNG)
	if !ok {
		return nil, credit.ErrCreditUnavailable
	}
	s.Rumours.Add(RumourDodgyNights, 5)
	s.Log.Neg("credit", "The loan shark offers %.0f at %.0f%%.", line.Limit, line.BaseAPR*100)
	return line, nil
}

// SetLineEnabled switches a line on or off.
func (s *Simulation) SetLineEnabled(id string, enabled bool) error {
	if !s.Credit.SetEnabled(id, enabled) {
		return credit.ErrUnknownLine
	}
	return nil
}

// Hire adds a member of staff. Wages accrue nightly and are paid on payday.
func (s *Simulation) Hire(role staff.Role) (*staff.Member, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	m := s.Staff.Hire(role, s.RNG, s.Week, s.Reputation)
	s.Log.Info("staff", "Hired %s, %s, at %.0f a week.", m.Name, m.Role, m.WeeklyWage)
	return m, nil
}

// Fire lets a member go and pays what they are owed.
func (s *Simulation) Fire(id staff.ID) error {
	m, ok := s.Staff.Fire(id)
	if !ok {
		return ErrUnknownStaff
	}
	owed := m.CashOut()
	s.settle(owed, "final wages")
	s.Staff.AdjustAll(-2)
	s.Log.Info("staff", "Let %s go (paid %.2f).", m.Name, owed)
	return nil
}

// SetPrice sets the base price multiplier.
func (s *Simulation) SetPrice(mult float64) error {
	if mult < minPrice || mult > maxPrice {
		return fmt.Errorf("%w: %.2f", ErrInvalidPrice, mult)
	}
	s.PriceMultiplier = mult
	s.Log.Info("price", "Prices set to x%.2f.", mult)
	return nil
}

// SetHappyHour turns happy hour on or off.
func (s *Simulation) SetHappyHour(on bool) {
	if s.HappyHour == on {
		return
	}
	s.HappyHour = on
	if on {
		s.Log.Info("price", "Happy hour is on.")
	} else {
		s.Log.Info("price", "Happy hour is over.")
	}
}

// IsRuleError reports whether err is a business-rule refusal rather than an
// infrastructure fault.
func IsRuleError(err error) bool {
	for _, target := range []error{
		ErrNightOpen, ErrNightClosed, ErrGameOver, ErrRackFull, ErrSupplierCap,
		ErrInsufficientCash, ErrUnknownItem, ErrNoEmergencyStaff, ErrUnknownUpgrade,
		ErrAlreadyOwned, ErrPrerequisite, ErrUnknownActivity, ErrAlreadyScheduled,
		ErrBouncerCap, ErrUnknownStaff, ErrInvalidPrice,
		credit.ErrInvalidAmount, credit.ErrNothingOwed, credit.ErrOverpayment,
		credit.ErrCreditUnavailable, credit.ErrUnknownSource, credit.ErrUnknownLine,
		credit.ErrSelfTransfer, credit.ErrSupplierNotAccount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
