package actions

// FormBody holds the submitted form fields. Fields carry no schema
// constraints and unknown properties are ignored; the profile validator owns
// the rules and reports them as result kinds.
type FormBody struct {
	_     struct{} `json:"-" additionalProperties:"true"`
	Name  string   `json:"name"  required:"false" doc:"Full name"                                    example:"Asha"`
	Email string   `json:"email" required:"false" doc:"Email address"                                example:"asha@example.com"`
	Phone string   `json:"phone" required:"false" doc:"Phone number with leading + and 10-15 digits" example:"+911234567890"`
	DOB   string   `json:"dob"   required:"false" doc:"Date of birth (YYYY-MM-DD)"                   example:"1990-05-20"`
}

// FormInput is the request for the login, profile and event actions. An
// absent body reads as an empty form.
type FormInput struct {
	Body FormBody `required:"false"`
}

// PushPermissionInput for POST /actions/push-permission (no body needed)
type PushPermissionInput struct{}
