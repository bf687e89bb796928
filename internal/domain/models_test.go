package domain

import (
	"testing"
)

func TestMoney(t *testing.T) {
	t.Run("NewMoney", func(t *testing.T) {
		m := NewMoney(100.50, "EUR")
		if m.Amount != 10050 {
			t.Errorf("Expected 10050 cents, got %d", m.Amount)
		}
		if m.Currency != "EUR" {
			t.Errorf("Expected EUR, got %s", m.Currency)
		}
	})

	t.Run("Float64", func(t *testing.T) {
		m := Money{Amount: 10050, Currency: "EUR"}
		f := m.Float64()
		if f != 100.50 {
			t.Errorf("Expected 100.50, got %f", f)
		}
	})

	t.Run("Add", func(t *testing.T) {
		m1 := Money{Amount: 1000, Currency: "EUR"}
		m2 := Money{Amount: 500, Currency: "EUR"}
		result := m1.Add(m2)
		if result.Amount != 1500 {
			t.Errorf("Expected 1500, got %d", result.Amount)
		}
	})

	t.Run("Sub", func(t *testing.T) {
		m1 := Money{Amount: 1000, Currency: "EUR"}
		m2 := Money{Amount: 300, Currency: "EUR"}
		result := m1.Sub(m2)
		if result.Amount != 700 {
			t.Errorf("Expected 700, got %d", result.Amount)
		}
	})

	t.Run("SubNegative", func(t *testing.T) {
		m1 := Money{Amount: 100, Currency: "EUR"}
		m2 := Money{Amount: 300, Currency: "EUR"}
		result := m1.Sub(m2)
		if result.Amount != -200 {
			t.Errorf("Expected -200, got %d", result.Amount)
		}
	})
}

func TestTransactionType(t *testing.T) {
	types := []TransactionType{
		TxTypeDeposit,
		TxTypeCashout,
		TxTypeWager,
		TxTypeWin,
		TxTypeVoucherCredit,
		TxTypeAdjustment,
	}

	for _, txType := range types {
		if txType == "" {
			t.Error("Transaction type should not be empty")
		}
	}
}

func TestVoucherStatus(t *testing.T) {
	statuses := []VoucherStatus{
		VoucherIssued,
		VoucherRedeemed,
		VoucherVoided,
	}

	for _, status := range statuses {
		if status == "" {
			t.Error("Voucher status should not be empty")
		}
	}
}

func TestEventSeverity(t *testing.T) {
	severities := []EventSeverity{
		SeverityInfo,
		SeverityWarning,
		SeverityError,
		SeverityCritical,
	}

	for _, sev := range severities {
		if sev == "" {
			t.Error("Event severity should not be empty")
		}
	}
}
