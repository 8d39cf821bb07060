package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecordValidation(test *testing.T) {
	test.Parallel()
	past := fixedCreatedAt.Add(-time.Hour)
	valid := RecordInput{Title: "Site", Client: clientAddress, Freelancer: freelancerAddress, Amount: "10"}
	testCases := []struct {
		name   string
		mutate func(input *RecordInput)
		want   error
	}{
		{name: "empty title", mutate: func(input *RecordInput) { input.Title = " <> " }, want: ErrInvalidTitle},
		{name: "bad client", mutate: func(input *RecordInput) { input.Client = "client" }, want: ErrInvalidParticipant},
		{name: "bad freelancer", mutate: func(input *RecordInput) { input.Freelancer = contractAddress }, want: ErrInvalidParticipant},
		{name: "same participants", mutate: func(input *RecordInput) { input.Freelancer = clientAddress }, want: ErrInvalidParticipant},
		{name: "zero amount", mutate: func(input *RecordInput) { input.Amount = "0" }, want: ErrInvalidAmount},
		{name: "unknown currency", mutate: func(input *RecordInput) { input.Currency = "EUR" }, want: ErrInvalidCurrency},
		{name: "bad contract", mutate: func(input *RecordInput) { input.ContractAddress = clientAddress }, want: ErrInvalidParticipant},
		{name: "past deadline", mutate: func(input *RecordInput) { input.Deadline = &past }, want: ErrInvalidDeadline},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			input := valid
			testCase.mutate(&input)
			if _, err := NewRecord(input, fixedCreatedAt); !errors.Is(err, testCase.want) {
				test.Fatalf(errorMismatch, testCase.want, err)
			}
		})
	}
}

func TestNewRecordNormalizes(test *testing.T) {
	test.Parallel()
	record, err := NewRecord(RecordInput{
		Title:      "  <script>Logo</script> ",
		Client:     " " + clientAddress,
		Freelancer: freelancerAddress,
		Amount:     " 12.0000001 ",
		Currency:   "usdc",
	}, fixedCreatedAt)
	if err != nil {
		test.Fatalf("new record: %v", err)
	}
	if record.ID == "" || record.Title != "scriptLogo/script" || record.Client != clientAddress {
		test.Fatalf("unexpected record %+v", record)
	}
	if record.Currency != CurrencyUSDC || !record.Amount.Equal(mustDecimal(test, "12.0000001")) || record.Status != StatusCreated {
		test.Fatalf("unexpected record %+v", record)
	}
}

func TestParseStatus(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"created", "FUNDED", " released ", "refunded", "disputed"} {
		if _, err := ParseStatus(raw); err != nil {
			test.Fatalf("parse %q: %v", raw, err)
		}
	}
	if _, err := ParseStatus("cancelled"); !errors.Is(err, ErrInvalidStatus) {
		test.Fatalf(errorMismatch, ErrInvalidStatus, err)
	}
	if !StatusReleased.IsTerminal() || !StatusRefunded.IsTerminal() || StatusDisputed.IsTerminal() {
		test.Fatalf("unexpected terminal statuses")
	}
}
