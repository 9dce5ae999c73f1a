package validate

import "testing"

type sampleRequest struct {
	StudentName   string `json:"student_name" validate:"notblank"`
	PaymentMethod string `json:"payment_method" validate:"payment_method"`
	CourseFee     int64  `json:"course_fee" validate:"gte=0"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	problems := Struct(sampleRequest{
		StudentName:   "   ",
		PaymentMethod: "cash",
		CourseFee:     -1,
	})

	for _, field := range []string{"student_name", "payment_method", "course_fee"} {
		if problems[field] == "" {
			t.Fatalf("expected problem for %s, got %+v", field, problems)
		}
	}
	if problems["student_name"] != "student_name cannot be blank" {
		t.Fatalf("unexpected notblank message: %q", problems["student_name"])
	}
}

func TestStructAcceptsValidPayload(t *testing.T) {
	problems := Struct(sampleRequest{
		StudentName:   "Aung Aung",
		PaymentMethod: "KBZ_PAY",
		CourseFee:     150000,
	})
	if problems != nil {
		t.Fatalf("unexpected problems: %+v", problems)
	}
}

func TestRequired(t *testing.T) {
	if Required(" \t") {
		t.Fatalf("blank value must not satisfy Required")
	}
	if !Required("x") {
		t.Fatalf("non-blank value must satisfy Required")
	}
}
