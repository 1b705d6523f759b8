package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertcolmenero/invoicehub/apperr"
)

func TestClientInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		input ClientInput
		hint  string
	}{
		{name: "valid", input: ClientInput{Name: "Acme", Email: "ap@acme.test"}},
		{name: "missing name", input: ClientInput{Email: "ap@acme.test"}, hint: "name is required"},
		{name: "missing email", input: ClientInput{Name: "Acme"}, hint: "email is required"},
		{name: "bad email", input: ClientInput{Name: "Acme", Email: "not-an-email"}, hint: "email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.hint == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.hint, apperr.Hint(err, ""))
		})
	}
}

func TestInvoiceInputFromJSON(t *testing.T) {
	body := `{
		"client_id": "c1",
		"invoice_date": "2025-03-01",
		"due_date": "2025-03-31T00:00:00Z",
		"items": [{"description": "Design", "quantity": "2", "unit_price": 100, "tax_percent": "10"}]
	}`
	var in InvoiceInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	require.NoError(t, in.Validate())

	assert.Equal(t, "2025-03-01", in.InvoiceDate.String())
	assert.Equal(t, "2025-03-31", in.DueDate.String())
	require.Len(t, in.Items, 1)
	assert.Equal(t, "2", in.Items[0].Quantity.String())
	assert.Equal(t, "100", in.Items[0].UnitPrice.String())
}

func TestLineItemMissingField(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"description": "x", "quantity": 1, "unit_price": "2.50"}`, ""},
		{`{"description": "x", "quantity": 0, "unit_price": 0}`, ""},
		{`{"description": "x", "unit_price": 1}`, "quantity"},
		{`{"description": "x", "quantity": 1, "unit_price": null}`, "unit_price"},
		{`{"description": "x"}`, "quantity"},
	}
	for _, tt := range tests {
		var it LineItem
		require.NoError(t, json.Unmarshal([]byte(tt.body), &it))
		assert.Equal(t, tt.want, it.MissingField(), tt.body)
		assert.Equal(t, "x", it.Description)
	}

	var it LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"description": "x", "quantity": "3", "unit_price": 4, "tax_percent": "7.5"}`), &it))
	assert.Equal(t, "3", it.Quantity.String())
	assert.Equal(t, "4", it.UnitPrice.String())
	assert.Equal(t, "7.5", it.TaxPercent.String())

	assert.Empty(t, LineItem{Description: "built in code"}.MissingField())
}

func TestInvoiceInputValidate(t *testing.T) {
	day := func(s string) Date {
		d, err := ParseDate(s)
		require.NoError(t, err)
		return d
	}
	valid := InvoiceInput{
		ClientID:    "c1",
		InvoiceDate: day("2025-03-01"),
		DueDate:     day("2025-03-01"),
		Items:       []LineItem{{Description: "Design"}},
	}
	require.NoError(t, valid.Validate(), "due on the day of issue")

	missingClient := valid
	missingClient.ClientID = ""
	assert.Equal(t, "client_id is required", apperr.Hint(missingClient.Validate(), ""))

	missingDate := valid
	missingDate.DueDate = Date{}
	assert.Equal(t, "due_date is required", apperr.Hint(missingDate.Validate(), ""))

	early := valid
	early.DueDate = day("2025-02-28")
	err := early.Validate()
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "due_date must not be before invoice_date", apperr.Hint(err, ""))

	blankItem := valid
	blankItem.Items = []LineItem{{Description: "Design"}, {}}
	assert.Equal(t, "items[1].description is required", apperr.Hint(blankItem.Validate(), ""))
}

func TestInvoiceUpdateInput(t *testing.T) {
	void := InvoiceStatus("VOID")
	err := (&InvoiceUpdateInput{Status: &void}).Validate()
	require.Error(t, err)
	assert.Equal(t, "status must be one of: DRAFT, SENT, PAID", apperr.Hint(err, ""))

	issued, _ := ParseDate("2025-03-01")
	due, _ := ParseDate("2025-03-31")
	inv := Invoice{ClientID: "c1", InvoiceDate: issued, DueDate: due, Status: StatusDraft, Notes: lo.ToPtr("old")}

	paid := StatusPaid
	notes := "new"
	require.NoError(t, (&InvoiceUpdateInput{Status: &paid, Notes: &notes}).Apply(&inv))
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, "new", *inv.Notes)
	assert.Equal(t, "c1", inv.ClientID)
	assert.Equal(t, due, inv.DueDate)

	early, _ := ParseDate("2025-02-01")
	err = (&InvoiceUpdateInput{DueDate: &early}).Apply(&inv)
	assert.True(t, apperr.IsValidation(err))
}

func TestInvoiceStatusValid(t *testing.T) {
	for _, s := range []InvoiceStatus{StatusDraft, StatusSent, StatusPaid} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, InvoiceStatus("draft").Valid())
	assert.False(t, InvoiceStatus("").Valid())
}

func TestDate(t *testing.T) {
	d := NewDate(time.Date(2025, time.July, 4, 23, 59, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-07-04"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, d.Equal(back.Time))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	_, err = ParseDate("04/07/2025")
	assert.Error(t, err)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-07-04", scanned.String())
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
}

func TestSettingsInput(t *testing.T) {
	bad := SettingsInput{Logo: lo.ToPtr("not a url")}
	assert.True(t, apperr.IsValidation(bad.Validate()))

	in := SettingsInput{CompanyName: lo.ToPtr("Acme Studio"), Logo: lo.ToPtr("https://cdn.test/logo.png")}
	require.NoError(t, in.Validate())
	u := User{ID: "owner-1", Phone: lo.ToPtr("555")}
	in.Apply(&u)
	assert.Equal(t, "Acme Studio", *u.CompanyName)
	assert.Nil(t, u.Phone, "settings are overwritten, not merged")
	assert.Equal(t, "owner-1", u.ID)
}

func TestDocumentInput(t *testing.T) {
	assert.Equal(t, "name is required", apperr.Hint((&DocumentInput{}).Validate(), ""))

	in := DocumentInput{Name: "Brief", ProjectID: lo.ToPtr("p1"), Content: lo.ToPtr("# Scope")}
	require.NoError(t, in.Validate())
	var d Document
	in.Apply(&d)
	assert.Equal(t, "Brief", d.Name)
	assert.Equal(t, "p1", *d.ProjectID)
}
