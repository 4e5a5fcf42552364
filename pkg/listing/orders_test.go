package listing

import (
	"strings"
	"testing"

	"github.com/pirate-pro/get-resume-direction/pkg/client"
)

func TestCreateOrderRequest_WithDefaults(t *testing.T) {
	r := CreateOrderRequest{UserName: "a", Phone: "13800000000"}.WithDefaults()

	if r.DeliveryType != DefaultDeliveryType || r.Quantity != 1 || r.Currency != DefaultCurrency {
		t.Errorf("defaults = %+v", r)
	}

	r = CreateOrderRequest{DeliveryType: "remote", Quantity: 3, Currency: "USD"}.WithDefaults()
	if r.DeliveryType != "remote" || r.Quantity != 3 || r.Currency != "USD" {
		t.Errorf("explicit values overwritten: %+v", r)
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	jobID := int64(1)
	negative := int64(-5)
	valid := func() CreateOrderRequest {
		return CreateOrderRequest{
			UserName:    "Li Lei",
			Phone:       "13800000000",
			TargetJobID: &jobID,
		}.WithDefaults()
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateOrderRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(r *CreateOrderRequest) {}},
		{name: "company target only", mutate: func(r *CreateOrderRequest) {
			r.TargetJobID = nil
			r.TargetCompanyName = "DJI"
		}},
		{name: "multibyte name at limit", mutate: func(r *CreateOrderRequest) {
			r.UserName = strings.Repeat("李", 64)
		}},
		{name: "missing name", mutate: func(r *CreateOrderRequest) { r.UserName = "" }, wantErr: "user_name must be at least 1"},
		{name: "name too long", mutate: func(r *CreateOrderRequest) { r.UserName = strings.Repeat("a", 65) }, wantErr: "user_name must be at most 64"},
		{name: "short phone", mutate: func(r *CreateOrderRequest) { r.Phone = "12345" }, wantErr: "phone must be at least 6"},
		{name: "long resume url", mutate: func(r *CreateOrderRequest) { r.ResumeURL = strings.Repeat("u", 1025) }, wantErr: "resume_url"},
		{name: "quantity above max", mutate: func(r *CreateOrderRequest) { r.Quantity = 21 }, wantErr: "quantity"},
		{name: "negative amount", mutate: func(r *CreateOrderRequest) { r.AmountCents = &negative }, wantErr: "amount_cents"},
		{name: "long currency", mutate: func(r *CreateOrderRequest) { r.Currency = "DOLLARS!!" }, wantErr: "currency"},
		{name: "no target", mutate: func(r *CreateOrderRequest) { r.TargetJobID = nil }, wantErr: "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			apiErr, ok := client.AsAPIError(err)
			if !ok {
				t.Fatalf("Validate() error = %v, want *APIError", err)
			}
			if apiErr.Class != client.ErrorClassValidation || apiErr.StatusCode != 0 {
				t.Errorf("class=%s status=%d", apiErr.Class, apiErr.StatusCode)
			}
			if !strings.Contains(apiErr.Message, tt.wantErr) {
				t.Errorf("message %q does not mention %q", apiErr.Message, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderRequest_ValidateReportsAllProblems(t *testing.T) {
	err := CreateOrderRequest{Quantity: 1}.Validate()
	apiErr, _ := client.AsAPIError(err)
	if apiErr == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"user_name", "phone", "target"} {
		if !strings.Contains(apiErr.Message, field) {
			t.Errorf("message %q missing %s", apiErr.Message, field)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	if got := maskPhone("13800001234"); got != "*******1234" {
		t.Errorf("maskPhone() = %q", got)
	}
	if got := maskPhone("123"); got != "****" {
		t.Errorf("maskPhone() = %q", got)
	}
}
